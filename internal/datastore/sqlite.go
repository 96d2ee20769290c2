package datastore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/logger"
)

// SQLiteConfig configures the embedded SQLite store.
type SQLiteConfig struct {
	// Path is the database file. Parent directories are created on connect.
	Path          string
	SlowThreshold time.Duration
	Debug         bool
}

// SQLiteManager handles the catalog stored in a single SQLite file.
type SQLiteManager struct {
	*gormManager
	path string
}

// NewSQLiteManager creates a manager for the file at cfg.Path. Nothing is
// opened until Connect.
func NewSQLiteManager(cfg SQLiteConfig, log logger.Logger, m *Metrics) *SQLiteManager {
	g := newGormManager(DialectSQLite, cfg.Path, log, m)
	g.slowThreshold = cfg.SlowThreshold
	g.debug = cfg.Debug

	sm := &SQLiteManager{gormManager: g, path: cfg.Path}
	g.open = sm.dialector
	g.configurePool = func(db *sql.DB) {
		// One writer at a time; SQLite serializes writes anyway.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	return sm
}

// dialector builds the DSN with the pragmas the store depends on.
func (m *SQLiteManager) dialector() gorm.Dialector {
	if dir := filepath.Dir(m.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			m.log.Warn("failed to create database directory",
				logger.String("dir", dir),
				logger.Error(err))
		}
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", m.path)
	return sqlite.Open(dsn)
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.path
}

// Exists checks if the database file exists.
func (m *SQLiteManager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
