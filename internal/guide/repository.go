// Package guide reads long-form editorial articles from the external
// record store, falling back to the built-in fixture guides when the
// store is unreachable. Guide categories are plain display labels, so
// no category resolution happens here.
package guide

import (
	"context"
	"log/slog"

	"github.com/yumetolab/yumeji/internal/airtable"
	"github.com/yumetolab/yumeji/internal/apperr"
	"github.com/yumetolab/yumeji/internal/fixtures"
	"github.com/yumetolab/yumeji/internal/models"
)

// DefaultTable is the store table holding guide articles.
const DefaultTable = "Guides"

const (
	fieldStatus          = "status"
	fieldSlug            = "slug"
	fieldTitle           = "title"
	fieldFullTitle       = "fullTitle"
	fieldDescription     = "description"
	fieldArticle         = "article"
	fieldImage           = "image"
	fieldCategory        = "category"
	fieldMetaTitle       = "metaTitle"
	fieldMetaDescription = "metaDescription"
	fieldPublishedDate   = "publishedDate"
)

// Repository lists and looks up published guides.
type Repository struct {
	client   *airtable.Client
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

// WithLogger sets the logger for fallback events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// NewRepository wires a guide repository.
func NewRepository(client *airtable.Client, fallback *fixtures.Set, opts ...Option) *Repository {
	r := &Repository{
		client:   client,
		fallback: fallback,
		table:    DefaultTable,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListAll returns every published guide.
func (r *Repository) ListAll(ctx context.Context) ([]*models.Guide, error) {
	if !r.client.Configured() {
		return r.fallback.Guides(), nil
	}
	records, err := r.client.List(ctx, r.table, airtable.ListOptions{
		FilterByFormula: airtable.Eq(fieldStatus, models.StatusPublished),
	})
	if err != nil {
		r.logger.Warn("guide: list failed, serving fallback", slog.String("error", err.Error()))
		return r.fallback.Guides(), nil
	}
	items := make([]*models.Guide, 0, len(records))
	for _, rec := range records {
		items = append(items, fromRecord(rec))
	}
	return items, nil
}

// GetBySlug returns the published guide with the given slug, or
// apperr.ErrNotFound. The guide table is small, so this lists and
// scans rather than issuing a second predicate shape.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	items, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range items {
		if g.Slug == slug {
			return g, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func fromRecord(r airtable.Record) *models.Guide {
	return &models.Guide{
		ID:              r.ID,
		Slug:            r.Str(fieldSlug),
		Title:           r.Str(fieldTitle),
		FullTitle:       r.Str(fieldFullTitle),
		Description:     r.Str(fieldDescription),
		Content:         r.Str(fieldArticle),
		Image:           r.Str(fieldImage),
		Category:        r.Str(fieldCategory),
		MetaTitle:       r.Str(fieldMetaTitle),
		MetaDescription: r.Str(fieldMetaDescription),
		PublishedDate:   r.Str(fieldPublishedDate),
		Status:          r.Str(fieldStatus),
	}
}
