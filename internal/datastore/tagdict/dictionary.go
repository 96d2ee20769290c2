// Package tagdict resolves tag text to the stable identifier assigned by an
// external, read-only canonical tag dictionary.
package tagdict

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/tphakala/imagecurator/internal/errors"
)

// ErrTagNotFound is returned by dictionaries when the text has no canonical entry
var ErrTagNotFound = errors.NewStd("tag not found in dictionary")

// Dictionary looks up canonical tag identifiers
type Dictionary interface {
	LookupTagID(ctx context.Context, text string) (int64, error)
}

// dictionaryTag mirrors the dictionary's tags table
type dictionaryTag struct {
	TagID int64  `gorm:"column:tag_id;primaryKey"`
	Tag   string `gorm:"column:tag"`
}

// SQLiteDictionary reads a tags(tag_id, tag) table from a SQLite file opened
// read-only.
type SQLiteDictionary struct {
	db    *gorm.DB
	table string
}

// OpenSQLiteDictionary opens the dictionary at path without write access.
func OpenSQLiteDictionary(path string) (*SQLiteDictionary, error) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=ro", path)), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open tag dictionary: %w", err)).
			Component("tagdict").
			Category(errors.CategoryTagDictionary).
			Context("path", path).
			Build()
	}
	return NewSQLiteDictionary(db), nil
}

// NewSQLiteDictionary wraps an open connection that holds a tags table.
func NewSQLiteDictionary(db *gorm.DB) *SQLiteDictionary {
	return &SQLiteDictionary{db: db, table: "tags"}
}

// LookupTagID returns the tag_id for text, matching case-insensitively.
// Spaces also match the underscore spelling used by booru-style dictionaries.
func (d *SQLiteDictionary) LookupTagID(ctx context.Context, text string) (int64, error) {
	lower := strings.ToLower(text)
	candidates := []string{lower}
	if underscored := strings.ReplaceAll(lower, " ", "_"); underscored != lower {
		candidates = append(candidates, underscored)
	}

	var row dictionaryTag
	err := d.db.WithContext(ctx).
		Table(d.table).
		Where("LOWER(tag) IN ?", candidates).
		Order("tag_id ASC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrTagNotFound
	}
	if err != nil {
		return 0, errors.New(fmt.Errorf("tag dictionary lookup failed: %w", err)).
			Component("tagdict").
			Category(errors.CategoryTagDictionary).
			Build()
	}
	return row.TagID, nil
}

// Close releases the underlying connection
func (d *SQLiteDictionary) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MapDictionary is an in-memory dictionary keyed by normalized tag text
// (see Normalize).
// A nil or empty map resolves nothing.
type MapDictionary map[string]int64

// LookupTagID implements Dictionary
func (m MapDictionary) LookupTagID(_ context.Context, text string) (int64, error) {
	if id, ok := m[text]; ok {
		return id, nil
	}
	return 0, ErrTagNotFound
}
