// Package datastore provides error handling helpers for database operations
package datastore

import (
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/errors"
)

// dbError creates a properly categorized database error with context
func dbError(err error, operation string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("error_type", CategorizeError(err))

	// Add context pairs
	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// CategorizeError maps a driver error to a coarse label used in metrics and
// error context.
func CategorizeError(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "constraint_violation"
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return "foreign_key_violation"
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "duplicate entry"):
		return "constraint_violation"
	case strings.Contains(errStr, "deadlock"):
		return "deadlock"
	case strings.Contains(errStr, "foreign key"):
		return "foreign_key_violation"
	case strings.Contains(errStr, "not null"):
		return "null_violation"
	case strings.Contains(errStr, "database is locked"):
		return "database_locked"
	case strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "deadline exceeded"):
		return "canceled"
	case strings.Contains(errStr, "connection"):
		return "connection_error"
	case strings.Contains(errStr, "syntax"):
		return "syntax_error"
	case strings.Contains(errStr, "malformed") || strings.Contains(errStr, "file is not a database"):
		return "corruption"
	case strings.Contains(errStr, "disk full") || strings.Contains(errStr, "no space"):
		return "disk_full"
	default:
		return "other"
	}
}

// IsConstraintViolation reports whether err is a unique constraint failure
func IsConstraintViolation(err error) bool {
	return CategorizeError(err) == "constraint_violation"
}
