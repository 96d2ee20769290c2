package tagdict

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/tphakala/imagecurator/internal/errors"
	"github.com/tphakala/imagecurator/internal/logger"
	"github.com/tphakala/imagecurator/internal/observability/metrics"
)

// TagID is a canonical tag identifier or Unresolved
type TagID int64

// Unresolved marks tag text without a canonical dictionary entry
const Unresolved TagID = -1

// Resolved reports whether id refers to a dictionary entry
func (id TagID) Resolved() bool {
	return id != Unresolved
}

// Ptr returns the id as a nullable column value
func (id TagID) Ptr() *int64 {
	if !id.Resolved() {
		return nil
	}
	v := int64(id)
	return &v
}

// DefaultCacheTTL applies when the resolver is created with a zero TTL
const DefaultCacheTTL = 10 * time.Minute

// Resolver looks tags up in a Dictionary and caches both hits and misses.
// Lookup failures degrade to Unresolved and never reach the caller.
type Resolver struct {
	dict    Dictionary
	cache   *cache.Cache
	log     logger.Logger
	metrics *metrics.DatastoreMetrics
}

// NewResolver creates a resolver. A nil dictionary resolves nothing.
func NewResolver(dict Dictionary, ttl time.Duration, log logger.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Resolver{
		dict:  dict,
		cache: cache.New(ttl, ttl*2),
		log:   log,
	}
}

// SetMetrics enables cache hit/miss accounting
func (r *Resolver) SetMetrics(m *metrics.DatastoreMetrics) {
	r.metrics = m
}

// Normalize canonicalizes tag text for lookup: NFKC folded, trimmed,
// lower-case, with underscores read as spaces ("long_hair" and "Long Hair"
// are the same tag).
func Normalize(text string) string {
	text = strings.ReplaceAll(norm.NFKC.String(text), "_", " ")
	return cases.Lower(language.Und).String(strings.Join(strings.Fields(text), " "))
}

// Resolve returns the canonical id for text or Unresolved.
func (r *Resolver) Resolve(ctx context.Context, text string) TagID {
	key := Normalize(text)
	if key == "" || r.dict == nil {
		return Unresolved
	}

	if cached, ok := r.cache.Get(key); ok {
		if id, ok := cached.(TagID); ok {
			r.metrics.RecordCacheOperation(metrics.CacheTagDictionary, metrics.CacheHit)
			return id
		}
	}
	r.metrics.RecordCacheOperation(metrics.CacheTagDictionary, metrics.CacheMiss)

	id, err := r.dict.LookupTagID(ctx, key)
	switch {
	case err == nil:
		r.cache.Set(key, TagID(id), cache.DefaultExpiration)
		return TagID(id)
	case errors.Is(err, ErrTagNotFound):
		r.cache.Set(key, Unresolved, cache.DefaultExpiration)
		return Unresolved
	default:
		// Transient failures are not cached so a later call can succeed.
		r.log.Warn("tag dictionary lookup failed, tag left unresolved",
			logger.String("tag", key),
			logger.Error(err))
		return Unresolved
	}
}

// ResolveAll resolves a batch of tag texts. Keys are the inputs as given.
func (r *Resolver) ResolveAll(ctx context.Context, texts []string) map[string]TagID {
	out := make(map[string]TagID, len(texts))
	for _, t := range texts {
		if _, done := out[t]; done {
			continue
		}
		out[t] = r.Resolve(ctx, t)
	}
	return out
}

// ClearCache drops all cached lookups
func (r *Resolver) ClearCache() {
	r.cache.Flush()
}
