package tagdict

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/tphakala/imagecurator/internal/errors"
)

// countingDictionary records how often the backing store is consulted
type countingDictionary struct {
	inner Dictionary
	calls atomic.Int32
	fail  error
}

func (c *countingDictionary) LookupTagID(ctx context.Context, text string) (int64, error) {
	c.calls.Add(1)
	if c.fail != nil {
		return 0, c.fail
	}
	return c.inner.LookupTagID(ctx, text)
}

// setupDictionaryFile writes a dictionary database and returns its path
func setupDictionaryFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tags.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE tags (tag_id INTEGER PRIMARY KEY, tag TEXT NOT NULL)").Error)
	require.NoError(t, db.Exec("INSERT INTO tags (tag_id, tag) VALUES (1, 'cat'), (2, 'long_hair'), (3, 'Sky')").Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return path
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "long hair", Normalize("  Long_Hair "))
	assert.Equal(t, "blue sky", Normalize("blue   sky"))
	assert.Empty(t, Normalize("  "))
	assert.Equal(t, "long hair", Normalize("Ｌｏｎｇ＿Ｈａｉｒ"), "full-width forms fold to ASCII")
	assert.Equal(t, "café au lait", Normalize("CAFÉ_AU_LAIT"))
}

func TestSQLiteDictionaryLookup(t *testing.T) {
	t.Parallel()

	dict, err := OpenSQLiteDictionary(setupDictionaryFile(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dict.Close() })

	ctx := context.Background()

	id, err := dict.LookupTagID(ctx, "cat")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = dict.LookupTagID(ctx, "long hair")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	id, err = dict.LookupTagID(ctx, "sky")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	_, err = dict.LookupTagID(ctx, "dog")
	require.ErrorIs(t, err, ErrTagNotFound)
}

func TestSQLiteDictionaryIsReadOnly(t *testing.T) {
	t.Parallel()

	dict, err := OpenSQLiteDictionary(setupDictionaryFile(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dict.Close() })

	err = dict.db.Exec("INSERT INTO tags (tag_id, tag) VALUES (9, 'dog')").Error
	require.Error(t, err)
}

func TestResolverCachesHitsAndMisses(t *testing.T) {
	t.Parallel()

	dict := &countingDictionary{inner: MapDictionary{"cat": 7}}
	r := NewResolver(dict, time.Minute, nil)
	ctx := context.Background()

	assert.Equal(t, TagID(7), r.Resolve(ctx, "Cat"))
	assert.Equal(t, TagID(7), r.Resolve(ctx, " cat "))
	assert.Equal(t, Unresolved, r.Resolve(ctx, "dog"))
	assert.Equal(t, Unresolved, r.Resolve(ctx, "dog"))
	assert.Equal(t, int32(2), dict.calls.Load())

	r.ClearCache()
	r.Resolve(ctx, "cat")
	assert.Equal(t, int32(3), dict.calls.Load())
}

func TestResolverDegradesOnFailure(t *testing.T) {
	t.Parallel()

	dict := &countingDictionary{fail: errors.NewStd("database is locked")}
	r := NewResolver(dict, time.Minute, nil)
	ctx := context.Background()

	assert.Equal(t, Unresolved, r.Resolve(ctx, "cat"))
	assert.Equal(t, Unresolved, r.Resolve(ctx, "cat"))
	assert.Equal(t, int32(2), dict.calls.Load(), "failures are not cached")
}

func TestResolverWithoutDictionary(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, 0, nil)
	assert.Equal(t, Unresolved, r.Resolve(context.Background(), "cat"))
	assert.False(t, Unresolved.Resolved())
	assert.Nil(t, Unresolved.Ptr())

	id := TagID(5)
	require.NotNil(t, id.Ptr())
	assert.Equal(t, int64(5), *id.Ptr())
}

func TestResolveAll(t *testing.T) {
	t.Parallel()

	r := NewResolver(MapDictionary{"cat": 1, "long hair": 2}, time.Minute, nil)
	got := r.ResolveAll(context.Background(), []string{"cat", "long_hair", "dog", "cat"})

	assert.Equal(t, map[string]TagID{"cat": 1, "long_hair": 2, "dog": Unresolved}, got)
}
