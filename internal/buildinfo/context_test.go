package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAccessors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ctx      *Context
		version  string
		date     string
		revision string
	}{
		{"nil context", nil, UnknownValue, UnknownValue, UnknownValue},
		{"empty values", NewContext("", "", ""), UnknownValue, UnknownValue, UnknownValue},
		{"populated", NewContext("1.2.0", "2024-05-01", "abc123"), "1.2.0", "2024-05-01", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var info BuildInfo = tt.ctx
			assert.Equal(t, tt.version, info.GetVersion())
			assert.Equal(t, tt.date, info.GetBuildDate())
			assert.Equal(t, tt.revision, info.GetRevision())
		})
	}
}

func TestCurrentNeverPanics(t *testing.T) {
	t.Parallel()
	ctx := Current()
	assert.NotNil(t, ctx)
	assert.NotEmpty(t, ctx.GetVersion())
}
