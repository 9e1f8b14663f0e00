// Package viewcache caches composed page payloads keyed by route. A
// revalidation webhook invalidates a single content page plus the
// aggregates that embed it, or everything at once.
package viewcache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Aggregate cache keys that embed content listings and therefore go
// stale whenever any content changes.
const (
	KeyHome    = "page:home"
	KeyList    = "page:contents"
	KeySitemap = "page:sitemap"
)

// ContentKey builds the cache key for one content page.
func ContentKey(slug string) string {
	return "page:content:" + slug
}

// GuideKey builds the cache key for one guide page.
func GuideKey(slug string) string {
	return "page:guide:" + slug
}

// Cache stores serialized page payloads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Invalidate drops one content page and the aggregates embedding it.
	Invalidate(ctx context.Context, slug string)
	// InvalidateAll drops every cached payload.
	InvalidateAll(ctx context.Context)
}

// aggregates cleared on any slug-level invalidation.
var aggregates = []string{KeyHome, KeyList, KeySitemap}

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is the default in-process cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

func (m *Memory) Invalidate(_ context.Context, slug string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, ContentKey(slug))
	delete(m.entries, GuideKey(slug))
	for _, key := range aggregates {
		delete(m.entries, key)
	}
	// Category listing keys embed the category name, not the slug, so
	// they are dropped wholesale.
	for key := range m.entries {
		if strings.HasPrefix(key, "page:category:") {
			delete(m.entries, key)
		}
	}
}

func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

var _ Cache = (*Memory)(nil)
