package repository

import (
	"context"

	"github.com/tphakala/imagecurator/internal/datastore/entities"
)

// ModelSpec describes a model for GetOrCreate.
type ModelSpec struct {
	Name           string
	Provider       string
	APIModelID     string
	RequiresAPIKey bool
	IsLocal        bool
	Types          []string
}

// ModelRepository provides access to the models catalog.
type ModelRepository interface {
	// GetOrCreate retrieves a model by name or creates it with spec.
	// Existing models are returned unchanged.
	GetOrCreate(ctx context.Context, spec *ModelSpec) (*entities.Model, error)

	// GetByID retrieves a model by its ID.
	// Returns ErrModelNotFound if not found.
	GetByID(ctx context.Context, id uint) (*entities.Model, error)

	// GetByName retrieves a model by name.
	// Returns ErrModelNotFound if not found.
	GetByName(ctx context.Context, name string) (*entities.Model, error)

	// GetByType lists models carrying the capability, ordered by name.
	GetByType(ctx context.Context, modelType string) ([]*entities.Model, error)

	// GetAll retrieves all registered models with their types.
	GetAll(ctx context.Context) ([]*entities.Model, error)

	// SetDiscontinued marks a model unavailable at the given unix time,
	// or available again when at is nil.
	SetDiscontinued(ctx context.Context, id uint, at *int64) error
}
