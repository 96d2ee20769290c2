package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeAndFinish(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
database:
  sqlite:
    path: `+filepath.Join(dir, "catalog.db")+`
processing:
  outputdir: `+filepath.Join(dir, "processed")+`
logging:
  console:
    enabled: false
`), 0o600))

	e := &Env{ConfigPath: configPath, MetricsFile: filepath.Join(dir, "metrics.prom"), Debug: true}
	require.NoError(t, e.Initialize())
	assert.True(t, e.Settings.Debug)
	assert.Equal(t, "debug", e.Settings.Logging.DefaultLevel)

	c, err := e.Curator(t.Context())
	require.NoError(t, err)
	n, err := c.GetTotalImageCount(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, c.Close())

	require.NoError(t, e.Finish())
	require.NoError(t, e.Finish())

	data, err := os.ReadFile(e.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "imagecurator_")
}

func TestInitializeReportsMissingConfig(t *testing.T) {
	e := &Env{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")}
	require.Error(t, e.Initialize())
}

func TestCuratorRequiresSettings(t *testing.T) {
	_, err := (&Env{}).Curator(t.Context())
	require.Error(t, err)
}
