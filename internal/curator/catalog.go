package curator

import (
	"context"

	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/datastore/query"
	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/datastore/repository"
	"github.com/tphakala/imagecurator/internal/datastore/tagdict"
	"github.com/tphakala/imagecurator/internal/logger"
)

// ModelCatalog groups available models by capability. Every capability in
// entities.ModelTypeNames has an entry; models with several capabilities
// appear under each of them.
type ModelCatalog map[string][]*entities.Model

// SaveAnnotations merges an annotation payload into the image.
func (c *Curator) SaveAnnotations(ctx context.Context, imageID uint, payload *repository.Annotations) (repository.SaveResult, error) {
	res, err := c.images.SaveAnnotations(ctx, imageID, payload)
	if err != nil {
		return res, err
	}
	if payload != nil && payload.IsManual() {
		c.log.Info("manual annotations saved",
			logger.Uint("image_id", imageID),
			logger.Int("tags_added", res.TagsAdded),
			logger.Int("captions", res.Captions),
			logger.Int("ratings", res.Ratings))
	}
	return res, nil
}

// GetImageAnnotations returns every annotation row of the image with its source.
func (c *Curator) GetImageAnnotations(ctx context.Context, imageID uint) (*repository.AnnotationSet, error) {
	return c.images.GetImageAnnotations(ctx, imageID)
}

// GetImageRating returns the manual, AI majority and effective rating.
func (c *Curator) GetImageRating(ctx context.Context, imageID uint) (*rating.Resolution, error) {
	return c.images.GetImageRating(ctx, imageID)
}

// FindTagID resolves tag text through the canonical tag dictionary.
func (c *Curator) FindTagID(ctx context.Context, text string) tagdict.TagID {
	return c.images.FindTagID(ctx, text)
}

// SearchImages returns one page of matching image ids and the total count.
func (c *Curator) SearchImages(ctx context.Context, criteria *query.Criteria) (*repository.SearchResult, error) {
	return c.images.GetImagesByFilter(ctx, criteria)
}

// GetImageMetadata returns the stored image or nil when it does not exist.
func (c *Curator) GetImageMetadata(ctx context.Context, imageID uint) (*entities.Image, error) {
	return c.images.GetImageMetadata(ctx, imageID)
}

// GetProcessedImages lists the renditions of an image.
func (c *Curator) GetProcessedImages(ctx context.Context, imageID uint) ([]entities.ProcessedImage, error) {
	return c.images.GetProcessedImages(ctx, imageID)
}

// UpdateImageMetadata writes the provided fields and refreshes updated_at.
func (c *Curator) UpdateImageMetadata(ctx context.Context, imageID uint, update *repository.MetadataUpdate) error {
	return c.images.UpdateImageMetadata(ctx, imageID, update)
}

// DeleteImage removes the image and every row it owns. Rendition files on
// disk are left in place.
func (c *Curator) DeleteImage(ctx context.Context, imageID uint) error {
	if err := c.images.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	c.log.Info("image deleted", logger.Uint("image_id", imageID))
	return nil
}

// GetTotalImageCount returns the number of stored images.
func (c *Curator) GetTotalImageCount(ctx context.Context) (int64, error) {
	return c.images.CountImages(ctx)
}

// GetModels returns the model catalog grouped by capability, without
// discontinued models.
func (c *Curator) GetModels(ctx context.Context) (ModelCatalog, error) {
	models, err := c.models.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make(ModelCatalog, len(entities.ModelTypeNames))
	for _, name := range entities.ModelTypeNames {
		catalog[name] = []*entities.Model{}
	}
	for _, m := range models {
		if m.DiscontinuedAt != nil {
			continue
		}
		for i := range m.Types {
			name := m.Types[i].Name
			catalog[name] = append(catalog[name], m)
		}
	}
	return catalog, nil
}

// GetModelByName looks a model up by its unique name.
func (c *Curator) GetModelByName(ctx context.Context, name string) (*entities.Model, error) {
	return c.models.GetByName(ctx, name)
}

// RegisterModel returns the named model, creating it when unknown.
func (c *Curator) RegisterModel(ctx context.Context, spec *repository.ModelSpec) (*entities.Model, error) {
	return c.models.GetOrCreate(ctx, spec)
}

// DiscontinueModel hides a model from GetModels. A nil at makes it
// available again.
func (c *Curator) DiscontinueModel(ctx context.Context, modelID uint, at *int64) error {
	return c.models.SetDiscontinued(ctx, modelID, at)
}
