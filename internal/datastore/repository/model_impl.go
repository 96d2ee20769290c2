package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/datastore"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/observability/metrics"
)

// modelRepository implements ModelRepository.
type modelRepository struct {
	db      *gorm.DB
	metrics *datastore.Metrics
}

// NewModelRepository creates a new ModelRepository.
func NewModelRepository(db *gorm.DB, m *datastore.Metrics) ModelRepository {
	return &modelRepository{db: db, metrics: m}
}

// GetOrCreate retrieves an existing model or creates a new one.
func (r *modelRepository) GetOrCreate(ctx context.Context, spec *ModelSpec) (*entities.Model, error) {
	if spec == nil || strings.TrimSpace(spec.Name) == "" {
		return nil, invalidInput("name", "required")
	}
	name := strings.TrimSpace(spec.Name)

	model, err := r.GetByName(ctx, name)
	if err == nil {
		return model, nil
	}
	if !errors.Is(err, ErrModelNotFound) {
		return nil, err
	}

	created := entities.Model{
		Name:           name,
		Provider:       spec.Provider,
		APIModelID:     spec.APIModelID,
		RequiresAPIKey: spec.RequiresAPIKey,
		IsLocal:        spec.IsLocal,
	}

	createErr := datastore.RunTransaction(ctx, r.db, r.metrics, func(tx *gorm.DB) error {
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		if len(spec.Types) == 0 {
			return nil
		}
		var types []entities.ModelType
		if err := tx.Where("name IN ?", spec.Types).Find(&types).Error; err != nil {
			return err
		}
		if len(types) != len(uniqueStrings(spec.Types)) {
			return invalidInput("types", "unknown model type in "+strings.Join(spec.Types, ","))
		}
		return tx.Model(&created).Association("Types").Append(types)
	})
	if createErr != nil {
		r.metrics.RecordDbOperation(metrics.OpModelUpsert, tableModels, metrics.StatusError)
		if errors.Is(createErr, ErrInvalidInput) {
			return nil, createErr
		}
		// Handle race condition
		if datastore.IsConstraintViolation(createErr) {
			if existing, findErr := r.GetByName(ctx, name); findErr == nil {
				return existing, nil
			}
		}
		return nil, dbError(createErr, "create_model")
	}

	r.metrics.RecordDbOperation(metrics.OpModelUpsert, tableModels, metrics.StatusSuccess)
	return r.GetByID(ctx, created.ID)
}

// GetByID retrieves a model by its ID.
func (r *modelRepository) GetByID(ctx context.Context, id uint) (*entities.Model, error) {
	var model entities.Model
	err := r.db.WithContext(ctx).Preload("Types").First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, dbError(err, "get_model")
	}
	return &model, nil
}

// GetByName retrieves a model by name.
func (r *modelRepository) GetByName(ctx context.Context, name string) (*entities.Model, error) {
	var model entities.Model
	err := r.db.WithContext(ctx).Preload("Types").
		Where("name = ?", name).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, dbError(err, "get_model_by_name")
	}
	return &model, nil
}

// GetByType lists models with the capability.
func (r *modelRepository) GetByType(ctx context.Context, modelType string) ([]*entities.Model, error) {
	var models []*entities.Model
	err := r.db.WithContext(ctx).Preload("Types").
		Where("id IN (?)", r.db.Table("model_function_associations mfa").
			Select("mfa.model_id").
			Joins("JOIN model_types mt ON mt.id = mfa.model_type_id").
			Where("mt.name = ?", modelType)).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, dbError(err, "get_models_by_type")
	}
	return models, nil
}

// GetAll retrieves all registered models.
func (r *modelRepository) GetAll(ctx context.Context) ([]*entities.Model, error) {
	var models []*entities.Model
	err := r.db.WithContext(ctx).Preload("Types").
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, dbError(err, "get_models")
	}
	return models, nil
}

// SetDiscontinued sets or clears discontinued_at.
func (r *modelRepository) SetDiscontinued(ctx context.Context, id uint, at *int64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Model(&entities.Model{}).
		Where("id = ?", id).
		Update("discontinued_at", at).Error
	if err != nil {
		return dbError(err, "set_discontinued")
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
