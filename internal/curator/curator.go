// Package curator is the public surface of the image catalog. It registers
// original images and their processed renditions through a FileSystem
// collaborator, merges annotation payloads, and answers searches.
package curator

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tphakala/imagecurator/internal/conf"
	"github.com/tphakala/imagecurator/internal/datastore"
	"github.com/tphakala/imagecurator/internal/datastore/query"
	"github.com/tphakala/imagecurator/internal/datastore/rating"
	"github.com/tphakala/imagecurator/internal/datastore/repository"
	"github.com/tphakala/imagecurator/internal/datastore/tagdict"
	"github.com/tphakala/imagecurator/internal/errors"
	"github.com/tphakala/imagecurator/internal/imagefs"
	"github.com/tphakala/imagecurator/internal/logger"
)

// FileSystem reads image files and writes resized renditions.
type FileSystem interface {
	// Inspect reports the stored properties and perceptual hash of path.
	Inspect(ctx context.Context, path string) (*imagefs.Info, error)
	// Resize writes a rendition whose long edge is at most resolution. Key
	// names the per-image subdirectory the rendition is written to.
	Resize(ctx context.Context, path, key string, resolution int) (*imagefs.Info, error)
}

// Curator orchestrates the repositories and the file-system collaborator.
// It is safe for concurrent use to the extent the underlying store is.
type Curator struct {
	manager     datastore.Manager
	images      repository.ImageRepository
	models      repository.ModelRepository
	fs          FileSystem
	resolver    *tagdict.Resolver
	resolutions []int
	log         logger.Logger
	metrics     *datastore.Metrics

	closeOnce sync.Once
	closers   []func() error
}

// Option configures a Curator.
type Option func(*options)

type options struct {
	log         logger.Logger
	metrics     *datastore.Metrics
	resolver    *tagdict.Resolver
	search      *query.Options
	resolutions []int
	repoOpts    []repository.Option
	closers     []func() error
}

// WithLogger sets the logger; the curator logs under its own module.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics enables datastore, search and tag cache metrics.
func WithMetrics(m *datastore.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTagResolver sets the tag dictionary resolver.
func WithTagResolver(r *tagdict.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithSearchOptions sets the NSFW threshold and page size limits.
func WithSearchOptions(s query.Options) Option {
	return func(o *options) { o.search = &s }
}

// WithResolutions sets the rendition sizes produced by RegisterBatch.
func WithResolutions(res ...int) Option {
	return func(o *options) { o.resolutions = res }
}

// WithRepositoryOptions passes extra options to the image repository.
func WithRepositoryOptions(opts ...repository.Option) Option {
	return func(o *options) { o.repoOpts = append(o.repoOpts, opts...) }
}

// withCloser registers a resource released by Close.
func withCloser(fn func() error) Option {
	return func(o *options) { o.closers = append(o.closers, fn) }
}

// New connects mgr, ensures the schema exists and wires the repositories.
// The manager is closed by Close. On error the caller still owns mgr.
func New(ctx context.Context, mgr datastore.Manager, fs FileSystem, opts ...Option) (*Curator, error) {
	if mgr == nil || fs == nil {
		return nil, errors.Newf("curator requires a manager and a file system").
			Component("curator").
			Category(errors.CategoryConfiguration).
			Build()
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	log := o.log.Module("curator")

	if err := mgr.CreateSchema(ctx); err != nil {
		return nil, err
	}
	db, err := mgr.Connect(ctx)
	if err != nil {
		return nil, err
	}

	resolver := o.resolver
	if resolver == nil {
		resolver = tagdict.NewResolver(nil, 0, log.Module("tagdict"))
	}
	resolver.SetMetrics(o.metrics)

	repoOpts := []repository.Option{
		repository.WithTagResolver(resolver),
		repository.WithLogger(log.Module("repository")),
		repository.WithMetrics(o.metrics),
	}
	if o.search != nil {
		repoOpts = append(repoOpts, repository.WithSearchOptions(*o.search))
	}
	repoOpts = append(repoOpts, o.repoOpts...)

	c := &Curator{
		manager:     mgr,
		images:      repository.NewImageRepository(db, repoOpts...),
		models:      repository.NewModelRepository(db, o.metrics),
		fs:          fs,
		resolver:    resolver,
		resolutions: normalizeResolutions(o.resolutions),
		log:         log,
		metrics:     o.metrics,
		closers:     o.closers,
	}

	log.Info("curator ready",
		logger.String("dialect", mgr.Dialect()),
		logger.String("location", mgr.Location()),
		logger.Any("resolutions", c.resolutions))
	return c, nil
}

// Open builds a Curator from settings: database manager, tag dictionary,
// search defaults and the local file-system collaborator.
func Open(ctx context.Context, settings *conf.Settings, opts ...Option) (*Curator, error) {
	if settings == nil {
		return nil, errors.ValidationError("settings are required")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}

	mgr, err := datastore.NewManager(&settings.Database, log.Module("datastore"), o.metrics)
	if err != nil {
		return nil, err
	}

	fs, err := imagefs.NewLocal(imagefs.Config{
		OutputDir:   settings.Processing.OutputDir,
		Format:      settings.Processing.Format,
		JPEGQuality: settings.Processing.JPEGQuality,
	}, log.Module("imagefs"))
	if err != nil {
		_ = mgr.Close()
		return nil, err
	}

	threshold, err := rating.Normalize(settings.Search.NSFWThreshold)
	if err != nil || !threshold.Valid() {
		threshold = rating.DefaultNSFWThreshold
	}

	extra := []Option{
		WithSearchOptions(query.Options{
			NSFWThreshold:   threshold,
			DefaultPageSize: settings.Search.DefaultPageSize,
			MaxPageSize:     settings.Search.MaxPageSize,
		}),
		WithResolutions(settings.Processing.TargetResolutions...),
	}

	var dict *tagdict.SQLiteDictionary
	if path := settings.TagDictionary.Path; path != "" && o.resolver == nil {
		dict, err = tagdict.OpenSQLiteDictionary(path)
		if err != nil {
			_ = mgr.Close()
			return nil, err
		}
		extra = append(extra,
			WithTagResolver(tagdict.NewResolver(dict, settings.TagDictionary.CacheTTL, log.Module("tagdict"))),
			withCloser(dict.Close))
	}

	// Caller options win over settings.
	c, err := New(ctx, mgr, fs, append(extra, opts...)...)
	if err != nil {
		if dict != nil {
			_ = dict.Close()
		}
		_ = mgr.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the tag dictionary and the database connection.
func (c *Curator) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		for _, closeFn := range c.closers {
			if err := closeFn(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := c.manager.Close(); err != nil {
			errs = append(errs, err)
		}
		c.resolver.ClearCache()
	})
	if len(errs) > 0 {
		return fmt.Errorf("close curator: %w", errors.Join(errs...))
	}
	return nil
}

// Resolutions returns the rendition sizes produced during registration
func (c *Curator) Resolutions() []int {
	return slices.Clone(c.resolutions)
}

// normalizeResolutions drops non-positive and repeated sizes and sorts the rest.
func normalizeResolutions(in []int) []int {
	out := make([]int, 0, len(in))
	for _, r := range in {
		if r > 0 {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
