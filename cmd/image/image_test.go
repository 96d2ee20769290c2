package image

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/imagecurator/internal/curator"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/datastore/repository"
)

func TestPrintImage(t *testing.T) {
	t.Parallel()

	img := &entities.Image{ID: 7, StoredImagePath: "/data/cat.png", Width: 640, Height: 480, Format: "PNG", Mode: "RGB", PHash: "00ff00ff00ff00ff"}
	processed := []entities.ProcessedImage{{ProcessedImagePath: "/processed/cat_512.png", Width: 512, Height: 384}}
	set := &repository.AnnotationSet{
		Tags:     []repository.TagAnnotation{{Tag: "cat", Source: repository.ManualSource}},
		Captions: []repository.CaptionAnnotation{{Caption: "a cat", Source: "gpt-4o"}},
	}
	res := &rating.Resolution{
		Manual:    rating.Unrated,
		AI:        rating.PG,
		Effective: rating.PG,
		Tallies:   []rating.Tally{{Rating: rating.PG, Votes: 2}},
	}

	var buf bytes.Buffer
	require.NoError(t, printImage(&buf, img, processed, set, res))

	out := buf.String()
	assert.Contains(t, out, "640x480")
	assert.Contains(t, out, "/processed/cat_512.png")
	assert.Contains(t, out, "manual")
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "PG=2")
}

func TestPrintStats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printStats(&buf, &curator.Stats{
		Images:     3,
		Renditions: 6,
		Tags:       12,
		Formats:    []curator.FormatCount{{Format: "JPEG", Images: 1}, {Format: "PNG", Images: 2}},
	}))

	out := buf.String()
	assert.Regexp(t, `images\s+3\n`, out)
	assert.Regexp(t, `renditions\s+6\n`, out)
	assert.Regexp(t, `format PNG\s+2\n`, out)
}
