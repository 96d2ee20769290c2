package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlogLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     LogLevel
		emit      func(Logger)
		wantEmpty bool
	}{
		{"info at info", LogLevelInfo, func(l Logger) { l.Info("hello") }, false},
		{"debug at info", LogLevelInfo, func(l Logger) { l.Debug("hello") }, true},
		{"trace at trace", LogLevelTrace, func(l Logger) { l.Trace("hello") }, false},
		{"trace at debug", LogLevelDebug, func(l Logger) { l.Trace("hello") }, true},
		{"warn at error", LogLevelError, func(l Logger) { l.Warn("hello") }, true},
		{"explicit error", LogLevelWarn, func(l Logger) { l.Log(LogLevelError, "hello") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.emit(NewSlogLogger(&buf, tt.level, time.UTC))
			if tt.wantEmpty {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
			}
		})
	}
}

func TestTraceLevelName(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewSlogLogger(&buf, LogLevelTrace, time.UTC).Trace("deep")
	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestModuleAndFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelDebug, time.UTC).
		Module("datastore").
		Module("repository").
		With(String("phash", "abcd"))

	log.Info("image registered", Uint("image_id", 7), Float64("score", 0.123456), Bool("manual", true))

	out := buf.String()
	assert.Contains(t, out, "module=datastore.repository")
	assert.Contains(t, out, "phash=abcd")
	assert.Contains(t, out, "image_id=7")
	assert.Contains(t, out, "score=0.123")
	assert.Contains(t, out, "manual=true")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	parent := NewSlogLogger(&buf, LogLevelInfo, time.UTC)
	_ = parent.With(String("child_only", "x"))
	parent.Info("parent")

	assert.NotContains(t, buf.String(), "child_only")
}

func TestWithContextTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewSlogLogger(&buf, LogLevelInfo, time.UTC)
	log.WithContext(WithTraceID(context.Background(), "req-42")).Info("search")
	log.WithContext(context.Background()).Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "trace_id=req-42")
	assert.NotContains(t, lines[1], "trace_id")
}

func TestErrorField(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Error(nil).Value)

	f := Error(gorm.ErrInvalidData)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, gorm.ErrInvalidData.Error(), f.Value)
}

func TestCentralLoggerModuleLevels(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "curator.log")
	cl, err := NewCentralLogger(&LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &ConsoleOutput{Enabled: false},
		FileOutput:   &FileOutput{Enabled: true, Path: path, Level: "trace"},
		ModuleLevels: map[string]string{"datastore": "trace"},
	})
	require.NoError(t, err)

	cl.Module("datastore").Module("repository").Trace("inherited trace")
	cl.Module("curator").Debug("suppressed")
	cl.Module("curator").Info("kept", Int("count", 3))
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "TRACE", first["level"])
	assert.Equal(t, "datastore.repository", first["module"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "kept", second["msg"])
	assert.InDelta(t, 3, second["count"], 0)
}

func TestCentralLoggerRejectsBadTimezone(t *testing.T) {
	t.Parallel()

	_, err := NewCentralLogger(&LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)

	_, err = NewCentralLogger(nil)
	require.Error(t, err)
}

func TestGormAdapterTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := NewGormLoggerAdapter(NewSlogLogger(&buf, LogLevelTrace, time.UTC), 50*time.Millisecond)
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	adapter.Trace(ctx, time.Now(), fc, nil)
	assert.Contains(t, buf.String(), "level=TRACE")
	buf.Reset()

	adapter.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Contains(t, buf.String(), "level=TRACE")
	buf.Reset()

	adapter.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow statement")
	buf.Reset()

	adapter.Trace(ctx, time.Now(), fc, gorm.ErrInvalidData)
	assert.Contains(t, buf.String(), "statement failed")
	assert.Contains(t, buf.String(), "level=WARN")
}
