package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/datastore"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/datastore/query"
	"github.com/tphakala/imagecurator/internal/datastore/tagdict"
	"github.com/tphakala/imagecurator/internal/logger"
	"github.com/tphakala/imagecurator/internal/observability/metrics"
)

// imageRepository implements ImageRepository.
type imageRepository struct {
	db       *gorm.DB
	resolver *tagdict.Resolver
	search   query.Options
	now      func() time.Time
	log      logger.Logger
	metrics  *datastore.Metrics
}

// Option configures an ImageRepository.
type Option func(*imageRepository)

// WithTagResolver sets the resolver used for external tag ids.
func WithTagResolver(r *tagdict.Resolver) Option {
	return func(repo *imageRepository) { repo.resolver = r }
}

// WithSearchOptions sets the NSFW threshold and page size limits.
func WithSearchOptions(o query.Options) Option {
	return func(repo *imageRepository) { repo.search = o }
}

// WithClock replaces time.Now for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(repo *imageRepository) { repo.now = now }
}

// WithLogger sets the repository logger.
func WithLogger(l logger.Logger) Option {
	return func(repo *imageRepository) { repo.log = l }
}

// WithMetrics enables operation metrics.
func WithMetrics(m *datastore.Metrics) Option {
	return func(repo *imageRepository) { repo.metrics = m }
}

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(db *gorm.DB, opts ...Option) ImageRepository {
	repo := &imageRepository{
		db:     db,
		search: query.DefaultOptions(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}
	if repo.log == nil {
		repo.log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	if repo.resolver == nil {
		repo.resolver = tagdict.NewResolver(nil, 0, repo.log)
	}
	return repo
}

// observe records the outcome and duration of one operation.
func (r *imageRepository) observe(operation, table string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		r.metrics.RecordDbOperationError(operation, table, datastore.CategorizeError(err))
	}
	r.metrics.RecordDbOperation(operation, table, status)
	r.metrics.RecordDbOperationDuration(operation, table, time.Since(start).Seconds())
}

// AddOriginalImage inserts the image unless its perceptual hash is known.
func (r *imageRepository) AddOriginalImage(ctx context.Context, meta *ImageMetadata) (id uint, created bool, err error) {
	if meta == nil {
		return 0, false, invalidInput("metadata", "required")
	}
	phash := strings.TrimSpace(meta.PHash)
	if phash == "" {
		return 0, false, invalidInput("phash", "required")
	}
	if strings.TrimSpace(meta.StoredImagePath) == "" {
		return 0, false, invalidInput("stored_image_path", "required")
	}
	if meta.Width < 0 || meta.Height < 0 {
		return 0, false, invalidInput("dimensions", "must not be negative")
	}

	start := time.Now()
	defer func() { r.observe(metrics.OpImageCreate, tableImages, start, err) }()

	existing, err := r.FindImageByPHash(ctx, phash)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		r.log.Debug("duplicate image skipped",
			logger.Uint("image_id", existing.ID),
			logger.String("phash", phash),
			logger.String("path", meta.StoredImagePath))
		return existing.ID, false, nil
	}

	now := r.now().Unix()
	img := entities.Image{
		UUID:            uuid.NewString(),
		StoredImagePath: meta.StoredImagePath,
		Width:           meta.Width,
		Height:          meta.Height,
		Format:          meta.Format,
		Mode:            meta.Mode,
		HasAlpha:        meta.HasAlpha,
		Filename:        meta.Filename,
		Extension:       meta.Extension,
		ColorSpace:      meta.ColorSpace,
		ICCProfile:      meta.ICCProfile,
		PHash:           phash,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if createErr := r.db.WithContext(ctx).Table(tableImages).Create(&img).Error; createErr != nil {
		if !datastore.IsConstraintViolation(createErr) {
			return 0, false, dbError(createErr, "add_original_image")
		}
		// Another writer stored the same hash first.
		existing, err = r.FindImageByPHash(ctx, phash)
		if err != nil {
			return 0, false, err
		}
		if existing == nil {
			return 0, false, dbError(createErr, "add_original_image")
		}
		return existing.ID, false, nil
	}

	r.log.Debug("image stored",
		logger.Uint("image_id", img.ID),
		logger.String("uuid", img.UUID),
		logger.String("path", img.StoredImagePath))
	return img.ID, true, nil
}

// FindImageByPHash looks an image up by exact perceptual hash.
func (r *imageRepository) FindImageByPHash(ctx context.Context, phash string) (*entities.Image, error) {
	var img entities.Image
	err := r.db.WithContext(ctx).Table(tableImages).
		Where("phash = ?", strings.TrimSpace(phash)).
		Take(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "find_image_by_phash")
	}
	return &img, nil
}

// GetImageMetadata returns the image row, nil when it does not exist.
func (r *imageRepository) GetImageMetadata(ctx context.Context, imageID uint) (img *entities.Image, err error) {
	start := time.Now()
	defer func() { r.observe(metrics.OpImageGet, tableImages, start, err) }()

	var found entities.Image
	err = r.db.WithContext(ctx).Table(tableImages).First(&found, imageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "get_image_metadata")
	}
	return &found, nil
}

// UpdateImageMetadata writes only the provided fields.
func (r *imageRepository) UpdateImageMetadata(ctx context.Context, imageID uint, update *MetadataUpdate) (err error) {
	start := time.Now()
	defer func() { r.observe(metrics.OpImageUpdate, tableImages, start, err) }()

	cols := update.columns()
	if p, ok := cols["phash"].(string); ok {
		p = strings.TrimSpace(p)
		if p == "" {
			return invalidInput("phash", "must not be empty")
		}
		cols["phash"] = p
	}
	cols["updated_at"] = r.now().Unix()

	result := r.db.WithContext(ctx).Table(tableImages).
		Where("id = ?", imageID).
		Updates(cols)
	if result.Error != nil {
		if datastore.IsConstraintViolation(result.Error) {
			return errors.Join(ErrDuplicateKey, dbError(result.Error, "update_image_metadata"))
		}
		return dbError(result.Error, "update_image_metadata")
	}
	if result.RowsAffected == 0 {
		r.log.Debug("metadata update matched no image", logger.Uint("image_id", imageID))
	}
	return nil
}

// DeleteImage removes the image and its owned rows atomically.
func (r *imageRepository) DeleteImage(ctx context.Context, imageID uint) (err error) {
	start := time.Now()
	defer func() { r.observe(metrics.OpImageDelete, tableImages, start, err) }()

	err = datastore.RunTransaction(ctx, r.db, r.metrics, func(tx *gorm.DB) error {
		// Children are deleted explicitly so the result does not depend on
		// the engine enforcing foreign keys.
		for _, table := range childTables {
			if err := tx.Exec("DELETE FROM "+table+" WHERE image_id = ?", imageID).Error; err != nil {
				return err
			}
		}
		return tx.Exec("DELETE FROM "+tableImages+" WHERE id = ?", imageID).Error
	})
	if err != nil {
		return dbError(err, "delete_image")
	}
	r.log.Debug("image deleted", logger.Uint("image_id", imageID))
	return nil
}

// RegisterProcessedImage stores a derived rendition.
func (r *imageRepository) RegisterProcessedImage(ctx context.Context, imageID uint, meta *ProcessedImageMetadata) (id uint, err error) {
	if meta == nil || strings.TrimSpace(meta.Path) == "" {
		return 0, invalidInput("processed_image_path", "required")
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return 0, invalidInput("dimensions", "must be positive")
	}

	start := time.Now()
	defer func() { r.observe(metrics.OpProcessedCreate, tableProcessedImages, start, err) }()

	exists, err := r.imageExists(r.db.WithContext(ctx), imageID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, notFound(ErrImageNotFound, imageID)
	}

	row := entities.ProcessedImage{
		ImageID:            imageID,
		ProcessedImagePath: meta.Path,
		Width:              meta.Width,
		Height:             meta.Height,
		Format:             meta.Format,
		Mode:               meta.Mode,
		HasAlpha:           meta.HasAlpha,
		Filename:           meta.Filename,
		Extension:          meta.Extension,
		ColorSpace:         meta.ColorSpace,
		ICCProfile:         meta.ICCProfile,
		CreatedAt:          r.now().Unix(),
	}
	if err := r.db.WithContext(ctx).Table(tableProcessedImages).Create(&row).Error; err != nil {
		return 0, dbError(err, "register_processed_image")
	}
	return row.ID, nil
}

// GetProcessedImages lists the renditions of an image.
func (r *imageRepository) GetProcessedImages(ctx context.Context, imageID uint) ([]entities.ProcessedImage, error) {
	rows := []entities.ProcessedImage{}
	err := r.db.WithContext(ctx).Table(tableProcessedImages).
		Where("image_id = ?", imageID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "get_processed_images")
	}
	return rows, nil
}

// FindProcessedImage returns the rendition with the given size.
func (r *imageRepository) FindProcessedImage(ctx context.Context, imageID uint, width, height int) (*entities.ProcessedImage, error) {
	var row entities.ProcessedImage
	err := r.db.WithContext(ctx).Table(tableProcessedImages).
		Where("image_id = ? AND width = ? AND height = ?", imageID, width, height).
		Order("id DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "find_processed_image")
	}
	return &row, nil
}

// imageExists checks for the image row using db, which may be a transaction.
func (r *imageRepository) imageExists(db *gorm.DB, imageID uint) (bool, error) {
	var count int64
	if err := db.Table(tableImages).Where("id = ?", imageID).Count(&count).Error; err != nil {
		return false, dbError(err, "image_exists")
	}
	return count > 0, nil
}

// CountImages returns the number of original images.
func (r *imageRepository) CountImages(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { r.observe(metrics.OpCount, tableImages, start, err) }()

	if err := r.db.WithContext(ctx).Table(tableImages).Count(&n).Error; err != nil {
		return 0, dbError(err, "count_images")
	}
	r.metrics.UpdateImageCount(n)
	return n, nil
}
