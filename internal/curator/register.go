package curator

import (
	"context"
	"time"

	"github.com/tphakala/imagecurator/internal/datastore/repository"
	"github.com/tphakala/imagecurator/internal/errors"
	"github.com/tphakala/imagecurator/internal/imagefs"
	"github.com/tphakala/imagecurator/internal/logger"
)

// Registration is the outcome of registering one original image.
type Registration struct {
	ImageID uint
	Created bool // false when an image with the same perceptual hash existed
	Info    *imagefs.Info
}

// BatchResult reports one file of a batch registration.
type BatchResult struct {
	Path      string
	ImageID   uint
	Created   bool
	Processed []uint // processed image ids, one per resolution
	Err       error
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Created    int
	Duplicates int
	Failed     int
}

// Summarize counts created, duplicate and failed files.
func Summarize(results []BatchResult) BatchSummary {
	var s BatchSummary
	for i := range results {
		switch {
		case results[i].Err != nil:
			s.Failed++
		case results[i].Created:
			s.Created++
		default:
			s.Duplicates++
		}
	}
	return s
}

// RegisterOriginalImage inspects path and stores it, returning the existing
// image id when the perceptual hash is already known.
func (c *Curator) RegisterOriginalImage(ctx context.Context, path string) (*Registration, error) {
	info, err := c.fs.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}

	id, created, err := c.images.AddOriginalImage(ctx, &repository.ImageMetadata{
		StoredImagePath: info.Path,
		Width:           info.Width,
		Height:          info.Height,
		Format:          info.Format,
		Mode:            info.Mode,
		HasAlpha:        info.HasAlpha,
		Filename:        info.Filename,
		Extension:       info.Extension,
		ColorSpace:      info.ColorSpace,
		ICCProfile:      info.ICCProfile,
		PHash:           info.PHash,
	})
	if err != nil {
		return nil, err
	}

	if created {
		c.log.Info("image registered",
			logger.Uint("image_id", id),
			logger.String("path", path),
			logger.String("phash", info.PHash))
	} else {
		c.log.Debug("duplicate image, existing record kept",
			logger.Uint("image_id", id),
			logger.String("path", path))
	}
	return &Registration{ImageID: id, Created: created, Info: info}, nil
}

// RegisterProcessedImage renders the stored original of imageID at
// resolution and records the rendition. Re-rendering the same size to the
// same path returns the existing record.
func (c *Curator) RegisterProcessedImage(ctx context.Context, imageID uint, resolution int) (uint, error) {
	img, err := c.images.GetImageMetadata(ctx, imageID)
	if err != nil {
		return 0, err
	}
	if img == nil {
		return 0, errors.New(errors.Join(repository.ErrImageNotFound, errors.NewStd("cannot render a missing image"))).
			Component("curator").
			Category(errors.CategoryNotFound).
			Context("image_id", imageID).
			Build()
	}

	rendition, err := c.fs.Resize(ctx, img.StoredImagePath, img.UUID, resolution)
	if err != nil {
		return 0, err
	}

	existing, err := c.images.FindProcessedImage(ctx, imageID, rendition.Width, rendition.Height)
	if err != nil {
		return 0, err
	}
	if existing != nil && existing.ProcessedImagePath == rendition.Path {
		return existing.ID, nil
	}

	id, err := c.images.RegisterProcessedImage(ctx, imageID, &repository.ProcessedImageMetadata{
		Path:       rendition.Path,
		Width:      rendition.Width,
		Height:     rendition.Height,
		Format:     rendition.Format,
		Mode:       rendition.Mode,
		HasAlpha:   rendition.HasAlpha,
		Filename:   rendition.Filename,
		Extension:  rendition.Extension,
		ColorSpace: rendition.ColorSpace,
		ICCProfile: rendition.ICCProfile,
	})
	if err != nil {
		return 0, err
	}

	c.log.Debug("processed image registered",
		logger.Uint("image_id", imageID),
		logger.Uint("processed_id", id),
		logger.Int("resolution", resolution))
	return id, nil
}

// RegisterBatch registers paths one at a time and renders every configured
// resolution for new images. Cancellation is observed between files; the
// results gathered so far are returned with the context error. Per-file
// failures are reported in the results and do not stop the batch.
func (c *Curator) RegisterBatch(ctx context.Context, paths []string) ([]BatchResult, error) {
	start := time.Now()
	results := make([]BatchResult, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			c.log.Warn("batch registration canceled",
				logger.Int("completed", len(results)),
				logger.Int("remaining", len(paths)-len(results)))
			return results, errors.New(err).
				Component("curator").
				Category(errors.CategoryCancellation).
				Context("completed", len(results)).
				Build()
		}
		results = append(results, c.registerOne(ctx, path))
	}

	s := Summarize(results)
	c.log.Info("batch registration completed",
		logger.Int("files", len(paths)),
		logger.Int("created", s.Created),
		logger.Int("duplicates", s.Duplicates),
		logger.Int("failed", s.Failed),
		logger.Duration("duration", time.Since(start)))
	return results, nil
}

func (c *Curator) registerOne(ctx context.Context, path string) BatchResult {
	res := BatchResult{Path: path}

	reg, err := c.RegisterOriginalImage(ctx, path)
	if err != nil {
		c.log.Warn("failed to register image", logger.String("path", path), logger.Error(err))
		res.Err = err
		return res
	}
	res.ImageID = reg.ImageID
	res.Created = reg.Created
	if !reg.Created {
		return res
	}

	for _, resolution := range c.resolutions {
		id, err := c.RegisterProcessedImage(ctx, reg.ImageID, resolution)
		if err != nil {
			c.log.Warn("failed to render processed image",
				logger.String("path", path),
				logger.Int("resolution", resolution),
				logger.Error(err))
			res.Err = err
			return res
		}
		res.Processed = append(res.Processed, id)
	}
	return res
}
