// Package repository stores original and processed images, merges
// annotations from models and manual edits, and runs filtered searches over
// the catalog.
package repository

import (
	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrImageNotFound indicates the referenced image does not exist.
	ErrImageNotFound = errors.NewStd("image not found")

	// ErrModelNotFound indicates the referenced model does not exist.
	ErrModelNotFound = errors.NewStd("model not found")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidRating indicates a rating outside the vocabulary.
	ErrInvalidRating = rating.ErrInvalidRating
)

// invalidInput wraps ErrInvalidInput with the offending field.
func invalidInput(field, reason string) error {
	return errors.New(errors.Join(ErrInvalidInput, errors.NewStd(field+": "+reason))).
		Component("repository").
		Category(errors.CategoryValidation).
		Context("field", field).
		Build()
}

// notFound wraps a not-found sentinel with the looked up id.
func notFound(sentinel error, id uint) error {
	return errors.New(sentinel).
		Component("repository").
		Category(errors.CategoryNotFound).
		Context("id", id).
		Build()
}

// dbError wraps a storage failure.
func dbError(err error, operation string) error {
	return errors.New(err).
		Component("repository").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}
