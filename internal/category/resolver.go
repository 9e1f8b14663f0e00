// Package category resolves raw category references (record IDs,
// percent-encoded forms, or display names) to canonical display names
// through a TTL-cached copy of the category table.
package category

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yumetolab/yumeji/internal/models"
)

// Uncategorized is the display label for the "no category" sentinel.
const Uncategorized = "未分類"

// sentinel value the routing layer uses for contents without a category.
const noCategorySentinel = "uncategorized"

// DefaultTTL is the cache staleness window when none is configured.
const DefaultTTL = time.Hour

// FetchFunc loads the full category list from the backing store.
type FetchFunc func(ctx context.Context) ([]models.Category, error)

// Resolver caches the category list for a TTL window and resolves
// references against it. The cache is replaced wholesale after a
// successful fetch; readers observe either the fully-old or the
// fully-new list, never a mix.
type Resolver struct {
	fetch  FetchFunc
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	cached    []models.Category
	fallback  []models.Category
	fetchedAt time.Time
	loaded    bool
	fetching  bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock injects a clock for deterministic TTL tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithFallback sets the category list served when the first fetch fails
// and nothing has ever been cached.
func WithFallback(cats []models.Category) Option {
	return func(r *Resolver) { r.fallback = cats }
}

// NewResolver creates a resolver around fetch with the given TTL.
func NewResolver(fetch FetchFunc, ttl time.Duration, opts ...Option) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Resolver{
		fetch:  fetch,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Categories returns the cached category list, reloading it when the
// TTL window has lapsed. While a reload is in flight concurrent callers
// keep getting the previous list. A failed reload keeps serving the
// stale list rather than nothing.
func (r *Resolver) Categories(ctx context.Context) []models.Category {
	r.mu.Lock()
	if r.loaded && r.now().Sub(r.fetchedAt) < r.ttl {
		cached := r.cached
		r.mu.Unlock()
		return cached
	}
	if r.fetching && r.loaded {
		cached := r.cached
		r.mu.Unlock()
		return cached
	}
	r.fetching = true
	r.mu.Unlock()

	cats, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetching = false
	if err != nil {
		r.logger.Warn("category: fetch failed, serving stale cache",
			slog.String("error", err.Error()))
		if !r.loaded && len(r.cached) == 0 {
			return r.fallback
		}
		return r.cached
	}
	r.cached = cats
	r.fetchedAt = r.now()
	r.loaded = true
	return r.cached
}

// Invalidate drops the cache so the next lookup reloads.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.loaded = false
	r.mu.Unlock()
}

// ResolveName maps a category reference to its display name. The input
// may be a record ID, a percent-encoded form of either, or already a
// display name. Unknown references come back (decoded but otherwise)
// unchanged; the no-category sentinel short-circuits to Uncategorized
// without touching the cache.
func (r *Resolver) ResolveName(ctx context.Context, ref string) string {
	if ref == "" || ref == noCategorySentinel {
		return Uncategorized
	}

	decoded := ref
	if strings.Contains(ref, "%") {
		if d, err := url.PathUnescape(ref); err == nil {
			decoded = d
		}
	}

	for _, c := range r.Categories(ctx) {
		if c.ID == decoded || c.Name == decoded || c.Slug == decoded ||
			c.ID == ref || c.Name == ref {
			return c.Name
		}
	}
	return decoded
}

// ResolveContents rewrites every item's category references to display
// names in place, sharing a single cache load across the batch.
func (r *Resolver) ResolveContents(ctx context.Context, items []*models.Content) {
	if len(items) == 0 {
		return
	}
	byID := make(map[string]string)
	for _, c := range r.Categories(ctx) {
		byID[c.ID] = c.Name
	}
	for _, item := range items {
		for i, ref := range item.Category {
			if name, ok := byID[ref]; ok {
				item.Category[i] = name
			}
		}
	}
}
