package conf

import (
	"fmt"
	"strings"

	"github.com/tphakala/imagecurator/internal/datastore/rating"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and normalizes values
// that have a canonical form, such as the NSFW threshold.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateDatabaseSettings(&settings.Database)...)
	ve.Errors = append(ve.Errors, validateSearchSettings(&settings.Search)...)
	ve.Errors = append(ve.Errors, validateProcessingSettings(&settings.Processing)...)

	if settings.TagDictionary.CacheTTL < 0 {
		ve.Errors = append(ve.Errors, "tagdictionary.cachettl must not be negative")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(settings *DatabaseSettings) []string {
	var errs []string

	switch strings.ToLower(settings.Type) {
	case DatabaseSQLite:
		if settings.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path is required for the sqlite backend")
		}
	case DatabaseMySQL:
		if settings.MySQL.Host == "" {
			errs = append(errs, "database.mysql.host is required for the mysql backend")
		}
		if settings.MySQL.Port <= 0 || settings.MySQL.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.mysql.port %d is out of range", settings.MySQL.Port))
		}
		if settings.MySQL.Database == "" {
			errs = append(errs, "database.mysql.database is required for the mysql backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, settings.Type))
	}
	settings.Type = strings.ToLower(settings.Type)

	if settings.SlowQueryThreshold < 0 {
		errs = append(errs, "database.slowquerythreshold must not be negative")
	}
	return errs
}

func validateSearchSettings(settings *SearchSettings) []string {
	var errs []string

	threshold, err := rating.Normalize(settings.NSFWThreshold)
	if err != nil || threshold == rating.Unrated {
		errs = append(errs, fmt.Sprintf("search.nsfwthreshold %q is not a content rating", settings.NSFWThreshold))
	} else {
		settings.NSFWThreshold = string(threshold)
	}

	if settings.DefaultPageSize <= 0 {
		errs = append(errs, "search.defaultpagesize must be positive")
	}
	if settings.MaxPageSize < settings.DefaultPageSize {
		errs = append(errs, "search.maxpagesize must be at least search.defaultpagesize")
	}
	return errs
}

func validateProcessingSettings(settings *ProcessingSettings) []string {
	var errs []string

	for _, res := range settings.TargetResolutions {
		if res <= 0 {
			errs = append(errs, fmt.Sprintf("processing.targetresolutions contains invalid size %d", res))
		}
	}

	switch strings.ToLower(settings.Format) {
	case "png", "jpeg", "jpg":
		settings.Format = strings.ToLower(settings.Format)
	default:
		errs = append(errs, fmt.Sprintf("processing.format %q is not supported", settings.Format))
	}

	if settings.JPEGQuality < 1 || settings.JPEGQuality > 100 {
		errs = append(errs, "processing.jpegquality must be between 1 and 100")
	}
	return errs
}
