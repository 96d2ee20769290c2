// Package datastore opens the image catalog database, creates its schema and
// runs statements and transactions against it.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/conf"
	"github.com/tphakala/imagecurator/internal/datastore/entities"
	"github.com/tphakala/imagecurator/internal/errors"
	"github.com/tphakala/imagecurator/internal/logger"
	"github.com/tphakala/imagecurator/internal/observability/metrics"
)

// Dialect names as reported by Manager.Dialect
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// Manager defines the connection and transaction contract of the store.
type Manager interface {
	// Connect opens the database on first use and returns the shared handle.
	Connect(ctx context.Context) (*gorm.DB, error)
	// CreateSchema creates missing tables and seeds the model catalog.
	// It is safe to call on every start.
	CreateSchema(ctx context.Context) error
	// Execute runs a single parameterized statement.
	Execute(ctx context.Context, stmt string, args ...any) (Result, error)
	// FetchOne returns the first row of q, or nil when there is none.
	FetchOne(ctx context.Context, q string, args ...any) (Record, error)
	// FetchAll returns every row of q.
	FetchAll(ctx context.Context, q string, args ...any) ([]Record, error)
	// Transaction runs fn in one transaction; any error rolls back the whole unit.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	// Dialect returns the gorm dialector name.
	Dialect() string
	// Location describes where the data lives, for logs and status output.
	Location() string
	// Close releases the connection. A closed manager reconnects on demand.
	Close() error
}

// Result reports the outcome of Execute
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// NewManager returns the manager for the configured database type.
func NewManager(settings *conf.DatabaseSettings, log logger.Logger, m *Metrics) (Manager, error) {
	if settings == nil {
		return nil, errors.ValidationError("database settings are required")
	}
	switch settings.Type {
	case "", conf.DatabaseSQLite:
		return NewSQLiteManager(SQLiteConfig{
			Path:          settings.SQLite.Path,
			SlowThreshold: settings.SlowQueryThreshold,
			Debug:         settings.Debug,
		}, log, m), nil
	case conf.DatabaseMySQL:
		return NewMySQLManager(MySQLConfigFromSettings(settings), log, m), nil
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// gormManager carries the connection handling shared by all dialects.
type gormManager struct {
	mu            sync.Mutex
	db            *gorm.DB
	dialect       string
	location      string
	slowThreshold time.Duration
	debug         bool
	open          func() gorm.Dialector
	configurePool func(*sql.DB)
	log           logger.Logger
	metrics       *Metrics
}

func newGormManager(dialect, location string, log logger.Logger, m *Metrics) *gormManager {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &gormManager{
		dialect:  dialect,
		location: location,
		log:      log.With(logger.String("dialect", dialect)),
		metrics:  m,
	}
}

// Connect opens the database once and reuses the handle afterwards.
func (g *gormManager) Connect(ctx context.Context) (*gorm.DB, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db != nil {
		return g.db, nil
	}

	gormLog := logger.NewGormLoggerAdapter(g.log, g.slowThreshold)
	if g.debug {
		g.log.Debug("sql statement logging enabled", logger.Duration("slow_threshold", g.slowThreshold))
	}

	db, err := gorm.Open(g.open(), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, dbError(err, "connect", "location", g.location)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, dbError(err, "connect", "location", g.location)
	}
	if g.configurePool != nil {
		g.configurePool(sqlDB)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, dbError(err, "ping", "location", g.location)
	}

	g.log.Info("database connected", logger.String("location", g.location))
	g.db = db
	return db, nil
}

// CreateSchema migrates every entity and seeds the model catalog.
func (g *gormManager) CreateSchema(ctx context.Context) error {
	start := time.Now()
	db, err := g.Connect(ctx)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).AutoMigrate(entities.All()...); err != nil {
		g.metrics.RecordDbOperation(metrics.OpSchema, "all", metrics.StatusError)
		return dbError(err, "create_schema")
	}

	created, err := seedModels(ctx, db, DefaultModels())
	if err != nil {
		g.metrics.RecordDbOperation(metrics.OpSchema, "models", metrics.StatusError)
		return dbError(err, "seed_models")
	}

	folded, err := g.backfillFolded(ctx)
	if err != nil {
		g.metrics.RecordDbOperation(metrics.OpSchema, "folded", metrics.StatusError)
		return err
	}
	if folded > 0 {
		g.log.Info("search columns backfilled", logger.Int64("rows", folded))
	}

	g.metrics.RecordDbOperation(metrics.OpSchema, "all", metrics.StatusSuccess)
	g.metrics.RecordDbOperationDuration(metrics.OpSchema, "all", time.Since(start).Seconds())
	g.log.Info("schema ready",
		logger.Int("models_seeded", created),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// foldedColumns pairs each searchable text column with its folded copy.
var foldedColumns = []struct{ table, source, folded string }{
	{"tags", "tag", "tag_folded"},
	{"captions", "caption", "caption_folded"},
}

// backfillFolded fills folded search columns left empty by catalogs created
// before they existed. Rows already folded are skipped, so reruns are no-ops.
func (g *gormManager) backfillFolded(ctx context.Context) (int64, error) {
	var total int64
	for _, c := range foldedColumns {
		rows, err := g.FetchAll(ctx, fmt.Sprintf(
			"SELECT id, %s FROM %s WHERE %s <> '' AND (%s IS NULL OR %s = '')",
			c.source, c.table, c.source, c.folded, c.folded))
		if err != nil {
			return total, err
		}
		for _, row := range rows {
			res, err := g.Execute(ctx,
				fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?", c.table, c.folded),
				entities.FoldText(row.String(c.source)), row.Int64("id"))
			if err != nil {
				return total, err
			}
			total += res.RowsAffected
		}
	}
	return total, nil
}

// Execute runs stmt and reports the insert id and affected rows.
func (g *gormManager) Execute(ctx context.Context, stmt string, args ...any) (Result, error) {
	db, err := g.Connect(ctx)
	if err != nil {
		return Result{}, err
	}

	res, err := db.WithContext(ctx).ConnPool.ExecContext(ctx, stmt, args...)
	if err != nil {
		return Result{}, dbError(err, "execute", "statement", stmt)
	}

	var out Result
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	g.log.Trace("statement executed",
		logger.String("statement", stmt),
		logger.Int64("rows_affected", out.RowsAffected))
	return out, nil
}

// FetchOne returns the first row of q as a Record, nil when q yields nothing.
func (g *gormManager) FetchOne(ctx context.Context, q string, args ...any) (Record, error) {
	records, err := g.fetch(ctx, "fetch_one", 1, q, args...)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// FetchAll returns every row of q as Records.
func (g *gormManager) FetchAll(ctx context.Context, q string, args ...any) ([]Record, error) {
	return g.fetch(ctx, "fetch_all", 0, q, args...)
}

func (g *gormManager) fetch(ctx context.Context, operation string, limit int, q string, args ...any) ([]Record, error) {
	db, err := g.Connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.WithContext(ctx).Raw(q, args...).Rows()
	if err != nil {
		return nil, dbError(err, operation, "query", q)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		row := map[string]any{}
		if err := db.ScanRows(rows, &row); err != nil {
			return nil, dbError(err, operation, "query", q)
		}
		records = append(records, Record(row))
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, operation, "query", q)
	}
	return records, nil
}

// Transaction runs fn inside a transaction. Errors from fn are returned as is.
func (g *gormManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := g.Connect(ctx)
	if err != nil {
		return err
	}

	if err := RunTransaction(ctx, db, g.metrics, fn); err != nil {
		g.log.Debug("transaction rolled back", logger.Error(err))
		return err
	}
	return nil
}

// RunTransaction runs fn in a transaction on db and records its outcome and
// duration. Repositories holding a bare handle use it so their units of work
// are counted like Manager.Transaction. A nil m records nothing.
func RunTransaction(ctx context.Context, db *gorm.DB, m *Metrics, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	err := db.WithContext(ctx).Transaction(fn)
	status := metrics.StatusCommitted
	if err != nil {
		status = metrics.StatusRollback
	}
	m.RecordTransaction(status, time.Since(start).Seconds())
	return err
}

// Dialect returns the dialect name
func (g *gormManager) Dialect() string {
	return g.dialect
}

// Location returns where the data lives
func (g *gormManager) Location() string {
	return g.location
}

// Close closes the database connection.
func (g *gormManager) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return dbError(err, "close")
	}
	g.db = nil
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	g.log.Debug("database connection closed", logger.String("location", g.location))
	return nil
}
