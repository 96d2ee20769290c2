package repository

import (
	"context"

	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/datastore/query"
	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/datastore/tagdict"
)

// ImageRepository stores images and their annotations and answers searches.
type ImageRepository interface {
	// AddOriginalImage stores a new image or, when an image with the same
	// perceptual hash exists, returns that image's id without changing it.
	// created reports whether a row was inserted.
	AddOriginalImage(ctx context.Context, meta *ImageMetadata) (id uint, created bool, err error)

	// FindImageByPHash returns the image with the exact hash, nil when none.
	FindImageByPHash(ctx context.Context, phash string) (*entities.Image, error)

	// RegisterProcessedImage stores a rendition of imageID.
	// Returns ErrImageNotFound when the image does not exist.
	RegisterProcessedImage(ctx context.Context, imageID uint, meta *ProcessedImageMetadata) (uint, error)

	// GetProcessedImages returns the renditions of imageID, oldest first.
	GetProcessedImages(ctx context.Context, imageID uint) ([]entities.ProcessedImage, error)

	// FindProcessedImage returns the rendition with the exact size, nil when none.
	FindProcessedImage(ctx context.Context, imageID uint, width, height int) (*entities.ProcessedImage, error)

	// UpdateImageMetadata writes the provided fields and refreshes updated_at.
	// Unknown ids are a silent no-op.
	UpdateImageMetadata(ctx context.Context, imageID uint, update *MetadataUpdate) error

	// DeleteImage removes the image and every row it owns in one transaction.
	// Unknown ids are a silent no-op.
	DeleteImage(ctx context.Context, imageID uint) error

	// GetImageMetadata returns the image or nil when it does not exist.
	GetImageMetadata(ctx context.Context, imageID uint) (*entities.Image, error)

	// SaveAnnotations merges a payload into the image's annotations.
	// The call is additive; re-saving a tag for the same model is a no-op.
	SaveAnnotations(ctx context.Context, imageID uint, payload *Annotations) (SaveResult, error)

	// GetImageAnnotations returns every annotation row with its source.
	GetImageAnnotations(ctx context.Context, imageID uint) (*AnnotationSet, error)

	// FindTagID resolves tag text through the tag dictionary.
	FindTagID(ctx context.Context, text string) tagdict.TagID

	// GetImagesByFilter returns one page of matching ids and the total count.
	// An empty, non-nil tag list yields a nil page and zero total.
	GetImagesByFilter(ctx context.Context, criteria *query.Criteria) (*SearchResult, error)

	// CountImages returns the number of original images.
	CountImages(ctx context.Context) (int64, error)

	// GetImageRating resolves the manual and AI ratings of an image.
	GetImageRating(ctx context.Context, imageID uint) (*rating.Resolution, error)
}
