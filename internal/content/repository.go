// Package content reads dream-dictionary entries from the external
// record store, with a snapshot-then-fixtures fallback chain so reads
// keep working when the store is down or not configured.
package content

import (
	"context"
	"log/slog"

	"github.com/yumetolab/yumeji/internal/airtable"
	"github.com/yumetolab/yumeji/internal/apperr"
	"github.com/yumetolab/yumeji/internal/category"
	"github.com/yumetolab/yumeji/internal/fixtures"
	"github.com/yumetolab/yumeji/internal/models"
	"github.com/yumetolab/yumeji/internal/snapshot"
)

// DefaultTable is the store table holding dictionary entries.
const DefaultTable = "Keywords"

// Repository lists and looks up published contents. Every returned item
// has its category references resolved to display names.
type Repository struct {
	client   *airtable.Client
	resolver *category.Resolver
	snap     *snapshot.Store
	fallback *fixtures.Set
	table    string
	logger   *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithTable overrides the store table name.
func WithTable(table string) Option {
	return func(r *Repository) { r.table = table }
}

// WithSnapshot attaches a local snapshot store. After each successful
// full listing the snapshot is refreshed; on upstream failure it is
// served before the built-in fixtures.
func WithSnapshot(s *snapshot.Store) Option {
	return func(r *Repository) { r.snap = s }
}

// WithLogger sets the logger for fallback events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository wires a content repository.
func NewRepository(client *airtable.Client, resolver *category.Resolver, fallback *fixtures.Set, opts ...Option) *Repository {
	r := &Repository{
		client:   client,
		resolver: resolver,
		fallback: fallback,
		table:    DefaultTable,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func publishedOnly() string {
	return airtable.Eq(fieldStatus, models.StatusPublished)
}

// ListAll returns every published content.
func (r *Repository) ListAll(ctx context.Context) ([]*models.Content, error) {
	if !r.client.Configured() {
		return r.resolved(ctx, r.fallbackList()), nil
	}
	records, err := r.client.List(ctx, r.table, airtable.ListOptions{
		FilterByFormula: publishedOnly(),
	})
	if err != nil {
		r.logger.Warn("content: list failed, serving fallback", slog.String("error", err.Error()))
		return r.resolved(ctx, r.fallbackList()), nil
	}
	items := mapRecords(records)
	r.resolver.ResolveContents(ctx, items)
	r.refreshSnapshot(items)
	return items, nil
}

// GetBySlug returns the published content with the given slug.
// A confirmed miss is apperr.ErrNotFound; upstream trouble degrades to
// the fallback chain instead of an error.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Content, error) {
	if !r.client.Configured() {
		return r.fallbackBySlug(ctx, slug)
	}
	records, err := r.client.List(ctx, r.table, airtable.ListOptions{
		FilterByFormula: airtable.And(airtable.Eq(fieldSlug, slug), publishedOnly()),
		MaxRecords:      1,
	})
	if err != nil {
		r.logger.Warn("content: get failed, serving fallback",
			slog.String("slug", slug), slog.String("error", err.Error()))
		return r.fallbackBySlug(ctx, slug)
	}
	if len(records) == 0 {
		return nil, apperr.ErrNotFound
	}
	item := fromRecord(records[0])
	r.resolver.ResolveContents(ctx, []*models.Content{item})
	return item, nil
}

// ListByCategory returns published contents belonging to the category
// identified by ref (an ID, display name, or percent-encoded form of
// either). The reference is resolved to a display name first because
// the store's linked-record predicate matches display names, not IDs.
func (r *Repository) ListByCategory(ctx context.Context, ref string) ([]*models.Content, error) {
	name := r.resolver.ResolveName(ctx, ref)
	if !r.client.Configured() {
		return r.resolved(ctx, r.fallback.ContentsByCategory(name)), nil
	}
	records, err := r.client.List(ctx, r.table, airtable.ListOptions{
		FilterByFormula: airtable.And(airtable.Find(name, fieldCategory), publishedOnly()),
	})
	if err != nil {
		r.logger.Warn("content: category list failed, serving fallback",
			slog.String("category", name), slog.String("error", err.Error()))
		if r.snap != nil {
			if items, serr := r.snap.ByCategory(name); serr == nil && len(items) > 0 {
				return items, nil
			}
		}
		return r.resolved(ctx, r.fallback.ContentsByCategory(name)), nil
	}
	items := mapRecords(records)
	r.resolver.ResolveContents(ctx, items)
	return items, nil
}

// Search returns published contents whose keyword, tags, or reading
// contain the query as a substring. No normalization is applied; the
// query matches exactly what the records carry.
func (r *Repository) Search(ctx context.Context, query string) ([]*models.Content, error) {
	if !r.client.Configured() {
		return r.resolved(ctx, r.fallback.SearchContents(query)), nil
	}
	records, err := r.client.List(ctx, r.table, airtable.ListOptions{
		FilterByFormula: airtable.And(
			airtable.Or(
				airtable.Contains(query, fieldKeyword),
				airtable.Contains(query, fieldTags),
				airtable.Contains(query, fieldReading),
			),
			publishedOnly(),
		),
	})
	if err != nil {
		r.logger.Warn("content: search failed, serving fallback",
			slog.String("query", query), slog.String("error", err.Error()))
		if r.snap != nil {
			if items, serr := r.snap.Search(query); serr == nil && len(items) > 0 {
				return items, nil
			}
		}
		return r.resolved(ctx, r.fallback.SearchContents(query)), nil
	}
	items := mapRecords(records)
	r.resolver.ResolveContents(ctx, items)
	return items, nil
}

// ListPopular returns up to limit published contents in store-native
// order. There is no popularity signal upstream yet, so native order
// stands in for it.
func (r *Repository) ListPopular(ctx context.Context, limit int) ([]*models.Content, error) {
	if limit <= 0 {
		limit = 8
	}
	if !r.client.Configured() {
		return r.resolved(ctx, capList(r.fallbackList(), limit)), nil
	}
	records, err := r.client.List(ctx, r.table, airtable.ListOptions{
		FilterByFormula: publishedOnly(),
		MaxRecords:      limit,
	})
	if err != nil {
		r.logger.Warn("content: popular list failed, serving fallback", slog.String("error", err.Error()))
		return r.resolved(ctx, capList(r.fallbackList(), limit)), nil
	}
	items := mapRecords(records)
	if len(items) > limit {
		items = items[:limit]
	}
	r.resolver.ResolveContents(ctx, items)
	return items, nil
}

func mapRecords(records []airtable.Record) []*models.Content {
	items := make([]*models.Content, 0, len(records))
	for _, rec := range records {
		items = append(items, fromRecord(rec))
	}
	return items
}

// fallbackList prefers a non-empty snapshot over the built-in fixtures.
func (r *Repository) fallbackList() []*models.Content {
	if r.snap != nil {
		if items, err := r.snap.List(); err == nil && len(items) > 0 {
			return items
		}
	}
	return r.fallback.Contents()
}

func (r *Repository) fallbackBySlug(ctx context.Context, slug string) (*models.Content, error) {
	if r.snap != nil {
		if item, err := r.snap.GetBySlug(slug); err == nil && item != nil {
			return item, nil
		}
	}
	if item := r.fallback.ContentBySlug(slug); item != nil {
		r.resolver.ResolveContents(ctx, []*models.Content{item})
		return item, nil
	}
	return nil, apperr.ErrNotFound
}

func (r *Repository) resolved(ctx context.Context, items []*models.Content) []*models.Content {
	r.resolver.ResolveContents(ctx, items)
	return items
}

func (r *Repository) refreshSnapshot(items []*models.Content) {
	if r.snap == nil {
		return
	}
	if err := r.snap.Replace(items); err != nil {
		r.logger.Warn("content: snapshot refresh failed", slog.String("error", err.Error()))
	}
}

func capList(items []*models.Content, limit int) []*models.Content {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
