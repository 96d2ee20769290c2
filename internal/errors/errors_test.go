package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSetsCategoryAndContext(t *testing.T) {
	t.Parallel()

	base := NewStd("disk unplugged")
	ee := New(base).
		Component("imagefs").
		Category(CategoryFileIO).
		Context("operation", "open").
		Build()

	require.NotNil(t, ee)
	assert.Equal(t, "disk unplugged", ee.Error())
	assert.Equal(t, "imagefs", ee.GetComponent())
	assert.Equal(t, CategoryFileIO, ee.Category)
	assert.Equal(t, "open", ee.GetContext()["operation"])
	assert.ErrorIs(t, ee, base)
	assert.False(t, ee.Timestamp.IsZero())
}

func TestGetContextReturnsCopy(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Context("k", 1).Build()
	ctx := ee.GetContext()
	ctx["k"] = 2

	assert.Equal(t, 1, ee.GetContext()["k"])
	assert.Nil(t, New(NewStd("y")).Build().GetContext())
}

func TestCategoryDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"not found", NewStd("image not found"), CategoryNotFound},
		{"invalid", NewStd("invalid rating value"), CategoryValidation},
		{"conflict", NewStd("UNIQUE constraint failed: images.phash"), CategoryConflict},
		{"database", NewStd("sql: connection is already closed"), CategoryDatabase},
		{"generic", NewStd("something odd"), CategoryGeneric},
		{"nil", nil, CategoryGeneric},
		{"categorized", ValidationError("bad"), CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCategory(tt.err))
		})
	}
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("missing")).Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("lookup failed: %w", ee)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.True(t, IsCategory(wrapped, CategoryNotFound))
	assert.False(t, IsNotFound(NewStd("plain")))
}

func TestEnhancedErrorIsMatchesByCategory(t *testing.T) {
	t.Parallel()

	a := New(NewStd("a")).Category(CategoryConflict).Build()
	b := New(NewStd("b")).Category(CategoryConflict).Build()
	c := New(NewStd("c")).Category(CategoryDatabase).Build()

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}

func TestFileContextAndTiming(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("decode")).
		FileContext("/data/images/cat.PNG", 2*1024*1024).
		Timing("decode", 150*time.Millisecond).
		Build()

	ctx := ee.GetContext()
	assert.Equal(t, "png", ctx["file_extension"])
	assert.Equal(t, "medium", ctx["file_size_category"])
	assert.Equal(t, "decode", ctx["operation"])
	assert.Equal(t, int64(150), ctx["duration_ms"])
}

func TestJoinAndUnwrap(t *testing.T) {
	t.Parallel()

	e1 := NewStd("one")
	e2 := NewStd("two")
	joined := Join(e1, e2)

	assert.ErrorIs(t, joined, e1)
	assert.ErrorIs(t, joined, e2)
	assert.Equal(t, e1, Unwrap(fmt.Errorf("wrap: %w", e1)))
}

func TestComponentFallsBackToUnknown(t *testing.T) {
	t.Parallel()

	// Calls from inside this package are skipped during detection.
	ee := Newf("formatted %d", 7).Build()
	assert.Equal(t, "formatted 7", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
}
