package repository

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tphakala/imagecurator/internal/datastore"
)

// testClock is a settable clock for created_at and updated_at.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// setupTestDB creates a schema-initialized SQLite database in a temp dir.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	mgr := datastore.NewSQLiteManager(datastore.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "catalog.db"),
	}, nil, nil)
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, mgr.CreateSchema(t.Context()))
	db, err := mgr.Connect(t.Context())
	require.NoError(t, err)
	return db
}

// fixture bundles a repository with its database and clock.
type fixture struct {
	db     *gorm.DB
	repo   ImageRepository
	models ModelRepository
	clock  *testClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db := setupTestDB(t)
	clock := newTestClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &fixture{
		db:     db,
		repo:   NewImageRepository(db, opts...),
		models: NewModelRepository(db, nil),
		clock:  clock,
	}
}

// addImage stores an image with a hash derived from name.
func (f *fixture) addImage(t *testing.T, name string, width, height int) uint {
	t.Helper()

	id, created, err := f.repo.AddOriginalImage(t.Context(), &ImageMetadata{
		StoredImagePath: "/data/" + name + ".png",
		Width:           width,
		Height:          height,
		Format:          "PNG",
		Mode:            "RGB",
		Filename:        name + ".png",
		Extension:       ".png",
		PHash:           fmt.Sprintf("%016x", hashOf(name)),
	})
	require.NoError(t, err)
	require.True(t, created, "image %s should be new", name)
	return id
}

// modelID returns the id of a seeded model.
func (f *fixture) modelID(t *testing.T, name string) *uint {
	t.Helper()

	m, err := f.models.GetByName(t.Context(), name)
	require.NoError(t, err)
	return &m.ID
}

// annotate saves a payload and fails the test on error.
func (f *fixture) annotate(t *testing.T, imageID uint, payload *Annotations) SaveResult {
	t.Helper()

	res, err := f.repo.SaveAnnotations(t.Context(), imageID, payload)
	require.NoError(t, err)
	return res
}

func hashOf(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func ptr[T any](v T) *T {
	return &v
}
