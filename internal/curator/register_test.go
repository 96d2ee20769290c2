package curator

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/imagecurator/internal/datastore/repository"
	"github.com/tphakala/imagecurator/internal/errors"
)

func TestRegisterOriginalImageDeduplicates(t *testing.T) {
	t.Parallel()
	fs := newFakeFS()
	fs.add("/in/cat.png", 1600, 1200, "aa00aa00aa00aa00")
	fs.add("/in/cat-copy.jpg", 800, 600, "aa00aa00aa00aa00")
	c := newTestCurator(t, fs)
	ctx := t.Context()

	first, err := c.RegisterOriginalImage(ctx, "/in/cat.png")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 1600, first.Info.Width)

	second, err := c.RegisterOriginalImage(ctx, "/in/cat-copy.jpg")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ImageID, second.ImageID)

	count, err := c.GetTotalImageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	img, err := c.GetImageMetadata(ctx, first.ImageID)
	require.NoError(t, err)
	assert.Equal(t, "/in/cat.png", img.StoredImagePath)
	assert.Equal(t, "cat.png", img.Filename)
	assert.Equal(t, ".png", img.Extension)
	assert.Equal(t, "sRGB", img.ColorSpace)

	_, err = c.RegisterOriginalImage(ctx, "/in/missing.png")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegisterProcessedImage(t *testing.T) {
	t.Parallel()
	fs := newFakeFS()
	fs.add("/in/wide.png", 2000, 1000, "0101010101010101")
	c := newTestCurator(t, fs)
	ctx := t.Context()

	reg, err := c.RegisterOriginalImage(ctx, "/in/wide.png")
	require.NoError(t, err)

	id, err := c.RegisterProcessedImage(ctx, reg.ImageID, 512)
	require.NoError(t, err)

	again, err := c.RegisterProcessedImage(ctx, reg.ImageID, 512)
	require.NoError(t, err)
	assert.Equal(t, id, again, "re-rendering the same size reuses the record")

	processed, err := c.GetProcessedImages(ctx, reg.ImageID)
	require.NoError(t, err)
	require.Len(t, processed, 1)
	assert.Equal(t, 512, processed[0].Width)
	assert.Equal(t, 256, processed[0].Height)
	img, err := c.GetImageMetadata(ctx, reg.ImageID)
	require.NoError(t, err)
	assert.Equal(t, "/renditions/"+img.UUID+"/wide_512.png", processed[0].ProcessedImagePath)

	_, err = c.RegisterProcessedImage(ctx, 999, 512)
	require.ErrorIs(t, err, repository.ErrImageNotFound)
	assert.True(t, errors.IsNotFound(err))
}

func TestRegisterBatch(t *testing.T) {
	t.Parallel()
	fs := newFakeFS()
	fs.add("/in/a.png", 1024, 1024, "1111111111111111")
	fs.add("/in/b.png", 3000, 2000, "2222222222222222")
	fs.add("/in/a-again.png", 1024, 1024, "1111111111111111")
	c := newTestCurator(t, fs, WithResolutions(512, 768))
	ctx := t.Context()

	paths := []string{"/in/a.png", "/in/b.png", "/in/missing.png", "/in/a-again.png"}
	results, err := c.RegisterBatch(ctx, paths)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, path := range paths {
		assert.Equal(t, path, results[i].Path)
	}

	assert.True(t, results[0].Created)
	assert.Len(t, results[0].Processed, 2)
	assert.True(t, results[1].Created)
	assert.Len(t, results[1].Processed, 2)
	require.Error(t, results[2].Err)
	assert.False(t, results[3].Created)
	assert.Equal(t, results[0].ImageID, results[3].ImageID)
	assert.Empty(t, results[3].Processed, "duplicates are not re-rendered")

	assert.Equal(t, BatchSummary{Created: 2, Duplicates: 1, Failed: 1}, Summarize(results))
	assert.Equal(t, []string{"/in/a.png@512", "/in/a.png@768", "/in/b.png@512", "/in/b.png@768"}, fs.resizeCalls())

	count, err := c.GetTotalImageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRegisterBatchReportsRenditionFailures(t *testing.T) {
	t.Parallel()
	fs := newFakeFS()
	fs.add("/in/a.png", 100, 100, "3333333333333333")
	fs.resizeErr = errors.NewStd("disk full")
	c := newTestCurator(t, fs, WithResolutions(64))

	results, err := c.RegisterBatch(t.Context(), []string{"/in/a.png"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Created, "the original stays registered")
	require.Error(t, results[0].Err)
	assert.Equal(t, BatchSummary{Failed: 1}, Summarize(results))
}

func TestRegisterBatchStopsBetweenImagesOnCancel(t *testing.T) {
	t.Parallel()
	fs := newFakeFS()
	fs.add("/in/1.png", 10, 10, "4444444444444444")
	fs.add("/in/2.png", 10, 10, "5555555555555555")
	fs.add("/in/3.png", 10, 10, "6666666666666666")
	c := newTestCurator(t, fs)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	fs.onInspect = func(path string) {
		if path == "/in/1.png" {
			cancel()
		}
	}

	results, err := c.RegisterBatch(ctx, []string{"/in/1.png", "/in/2.png", "/in/3.png"})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
	require.Len(t, results, 1, "no image is started after cancellation")
}
