package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/imagecurator/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := Default()
	assert.Equal(t, DatabaseSQLite, s.Database.Type)
	assert.Equal(t, "imagecurator.db", s.Database.SQLite.Path)
	assert.Equal(t, 200*time.Millisecond, s.Database.SlowQueryThreshold)
	assert.Equal(t, "R", s.Search.NSFWThreshold)
	assert.Equal(t, 100, s.Search.DefaultPageSize)
	assert.Equal(t, 1000, s.Search.MaxPageSize)
	assert.Equal(t, []int{512, 768, 1024}, s.Processing.TargetResolutions)
	assert.Equal(t, 10*time.Minute, s.TagDictionary.CacheTTL)
	require.NotNil(t, s.Logging.Console)
	assert.True(t, s.Logging.Console.Enabled)
	require.NoError(t, ValidateSettings(s))
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
database:
  type: SQLite
  sqlite:
    path: /tmp/curator-test.db
  slowquerythreshold: 1s
search:
  nsfwthreshold: explicit
  defaultpagesize: 25
processing:
  format: JPEG
  targetresolutions: [256]
logging:
  default_level: debug
  module_levels:
    datastore: trace
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DatabaseSQLite, s.Database.Type)
	assert.Equal(t, "/tmp/curator-test.db", s.Database.SQLite.Path)
	assert.Equal(t, time.Second, s.Database.SlowQueryThreshold)
	assert.Equal(t, "X", s.Search.NSFWThreshold, "aliases normalize to the canonical rating")
	assert.Equal(t, 25, s.Search.DefaultPageSize)
	assert.Equal(t, 1000, s.Search.MaxPageSize)
	assert.Equal(t, "jpeg", s.Processing.Format)
	assert.Equal(t, []int{256}, s.Processing.TargetResolutions)
	assert.Equal(t, "debug", s.Logging.DefaultLevel)
	assert.Equal(t, "trace", s.Logging.ModuleLevels["datastore"])
}

func TestLoadEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, "database:\n  sqlite:\n    path: from-file.db\n")
	t.Setenv("IMAGECURATOR_DATABASE_SQLITE_PATH", "from-env.db")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", s.Database.SQLite.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
database:
  type: postgres
search:
  nsfwthreshold: spicy
  defaultpagesize: 0
processing:
  format: gif
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 4)
}

func TestValidateMySQLSettings(t *testing.T) {
	t.Parallel()

	s := Default()
	s.Database.Type = DatabaseMySQL
	s.Database.MySQL.Port = 0
	s.Database.MySQL.Host = ""

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	s := Default()
	s.Search.DefaultPageSize = 42
	require.NoError(t, s.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, loaded.Search.DefaultPageSize)
	assert.Equal(t, s.Database.SQLite.Path, loaded.Database.SQLite.Path)
}
