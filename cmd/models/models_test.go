package models

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/imagecurator/internal/curator"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
)

func TestPrintCatalog(t *testing.T) {
	t.Parallel()

	catalog := curator.ModelCatalog{
		entities.ModelTypeTagger: {
			{ID: 3, Name: "wd-vit-tagger-v3", Provider: "SmilingWolf", IsLocal: true},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, printCatalog(&buf, catalog))

	out := buf.String()
	assert.Contains(t, out, "TAGGER\n")
	assert.Contains(t, out, "wd-vit-tagger-v3")
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "(none)", "capabilities without models are still listed")
}
