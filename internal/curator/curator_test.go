package curator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/imagecurator/internal/datastore"
	"github.com/tphakala/imagecurator/internal/imagefs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// the tag cache janitor lives until its cache is garbage collected
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

// fakeFS serves canned image properties and records resize calls.
type fakeFS struct {
	mu        sync.Mutex
	images    map[string]imagefs.Info
	resized   []string
	resizeErr error
	onInspect func(path string)
}

func newFakeFS() *fakeFS {
	return &fakeFS{images: make(map[string]imagefs.Info)}
}

func (f *fakeFS) add(path string, width, height int, phash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[path] = imagefs.Info{
		Path:       path,
		Width:      width,
		Height:     height,
		Format:     "PNG",
		Mode:       "RGB",
		Filename:   filepath.Base(path),
		Extension:  strings.ToLower(filepath.Ext(path)),
		ColorSpace: "sRGB",
		PHash:      phash,
	}
}

func (f *fakeFS) Inspect(_ context.Context, path string) (*imagefs.Info, error) {
	if f.onInspect != nil {
		f.onInspect(path)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.images[path]
	if !ok {
		return nil, fmt.Errorf("inspect %s: %w", path, os.ErrNotExist)
	}
	return &info, nil
}

func (f *fakeFS) Resize(_ context.Context, path, key string, resolution int) (*imagefs.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resizeErr != nil {
		return nil, f.resizeErr
	}
	src, ok := f.images[path]
	if !ok {
		return nil, fmt.Errorf("resize %s: %w", path, os.ErrNotExist)
	}
	f.resized = append(f.resized, fmt.Sprintf("%s@%d", path, resolution))

	w, h := src.Width, src.Height
	if long := max(w, h); long > resolution {
		w = w * resolution / long
		h = h * resolution / long
	}
	stem := strings.TrimSuffix(src.Filename, src.Extension)
	out := fmt.Sprintf("/renditions/%s/%s_%d.png", key, stem, resolution)
	return &imagefs.Info{
		Path:      out,
		Width:     w,
		Height:    h,
		Format:    "PNG",
		Mode:      "RGB",
		Filename:  filepath.Base(out),
		Extension: ".png",
	}, nil
}

func (f *fakeFS) resizeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resized...)
}

func ptr[T any](v T) *T {
	return &v
}

// newTestCurator opens a curator over a fresh SQLite database.
func newTestCurator(t *testing.T, fs FileSystem, opts ...Option) *Curator {
	t.Helper()

	mgr := datastore.NewSQLiteManager(datastore.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "curator.db"),
	}, nil, nil)

	c, err := New(t.Context(), mgr, fs, opts...)
	if err != nil {
		_ = mgr.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })
	return c
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := New(t.Context(), nil, newFakeFS())
	require.Error(t, err)

	mgr := datastore.NewSQLiteManager(datastore.SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db")}, nil, nil)
	_, err = New(t.Context(), mgr, nil)
	require.Error(t, err)
}

func TestResolutionsAreNormalized(t *testing.T) {
	t.Parallel()
	c := newTestCurator(t, newFakeFS(), WithResolutions(1024, 512, 0, 512, -3))

	assert.Equal(t, []int{512, 1024}, c.Resolutions())
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	c := newTestCurator(t, newFakeFS())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
