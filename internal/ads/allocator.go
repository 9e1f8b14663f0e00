// Package ads allocates affiliate advertisements to page slots. Each
// allocation call fetches the published ad pool once and distributes it
// across the requested slots without repeating a creative on the page.
package ads

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/yumetolab/yumeji/internal/airtable"
	"github.com/yumetolab/yumeji/internal/models"
)

// DefaultTable is the store table holding affiliate creatives.
const DefaultTable = "Affiliate"

const (
	fieldStatus     = "Status"
	fieldName       = "Name"
	fieldBannerHTML = "BannerHtml"
	fieldBannerType = "BannerType"
	fieldTargetTag  = "TargetTag"
	fieldIsDefault  = "IsDefault"
)

// Allocator assigns ads to slot requests.
type Allocator struct {
	client *airtable.Client
	table  string
	logger *slog.Logger
	intn   func(n int) int
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithTable overrides the store table name.
func WithTable(table string) Option {
	return func(a *Allocator) { a.table = table }
}

// WithLogger sets the logger for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) { a.logger = logger }
}

// WithRand injects the random source used to pick among equally ranked
// candidates. Tests pass a fixed function.
func WithRand(intn func(n int) int) Option {
	return func(a *Allocator) { a.intn = intn }
}

// NewAllocator wires an ad allocator. The default tie-breaker is the
// top-level rand.Intn, which is safe under the concurrent Allocate
// calls a shared Allocator sees; an unguarded *rand.Rand would not be.
func NewAllocator(client *airtable.Client, opts ...Option) *Allocator {
	a := &Allocator{
		client: client,
		table:  DefaultTable,
		logger: slog.Default(),
		intn:   rand.Intn,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate picks one ad per slot request. The result has the same
// length and order as slots; nil means the slot stays empty. Within one
// call no creative is assigned twice.
//
// Candidate ranking per slot: shape-matching unused ads, narrowed to
// tag matches when any exist, else to defaults when any exist, else the
// whole shape pool. Ties break by uniform random pick, which is
// deterministic when a single candidate remains.
//
// Any fetch failure yields all-nil slots; ads never block a page.
func (a *Allocator) Allocate(ctx context.Context, slots []models.SlotRequest, tags []string) []*models.Ad {
	results := make([]*models.Ad, len(slots))
	if len(slots) == 0 {
		return results
	}
	pool, err := a.fetchPublished(ctx)
	if err != nil {
		a.logger.Warn("ads: fetch failed, leaving slots empty", slog.String("error", err.Error()))
		return results
	}

	used := make(map[string]bool)
	for i, slot := range slots {
		shape := models.NormalizeShape(string(slot.Shape))

		var candidates []*models.Ad
		for _, ad := range pool {
			if ad.BannerType == shape && !used[ad.ID] {
				candidates = append(candidates, ad)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		picked := a.pick(filterByTag(candidates, tags))
		if picked == nil {
			picked = a.pick(filterDefaults(candidates))
		}
		if picked == nil {
			picked = a.pick(candidates)
		}
		results[i] = picked
		used[picked.ID] = true
	}
	return results
}

// TextAds returns the published text-shape creatives for an article,
// tag matches ranked before the rest. The caller feeds the result to
// the markdown text-ad injector, which cycles through it per render.
func (a *Allocator) TextAds(ctx context.Context, tags []string) []*models.Ad {
	pool, err := a.fetchPublished(ctx)
	if err != nil {
		a.logger.Warn("ads: text fetch failed", slog.String("error", err.Error()))
		return nil
	}
	var matched, rest []*models.Ad
	for _, ad := range pool {
		if ad.BannerType != models.ShapeText {
			continue
		}
		if ad.TargetTag != "" && containsTag(tags, ad.TargetTag) {
			matched = append(matched, ad)
		} else {
			rest = append(rest, ad)
		}
	}
	return append(matched, rest...)
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (a *Allocator) fetchPublished(ctx context.Context) ([]*models.Ad, error) {
	if !a.client.Configured() {
		return nil, nil
	}
	records, err := a.client.List(ctx, a.table, airtable.ListOptions{
		FilterByFormula: airtable.Eq(fieldStatus, models.StatusPublished),
	})
	if err != nil {
		return nil, err
	}
	pool := make([]*models.Ad, 0, len(records))
	for _, rec := range records {
		pool = append(pool, fromRecord(rec))
	}
	return pool, nil
}

func (a *Allocator) pick(candidates []*models.Ad) *models.Ad {
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	default:
		return candidates[a.intn(len(candidates))]
	}
}

func filterByTag(candidates []*models.Ad, tags []string) []*models.Ad {
	if len(tags) == 0 {
		return nil
	}
	var out []*models.Ad
	for _, ad := range candidates {
		if ad.TargetTag == "" {
			continue
		}
		for _, tag := range tags {
			if ad.TargetTag == tag {
				out = append(out, ad)
				break
			}
		}
	}
	return out
}

func filterDefaults(candidates []*models.Ad) []*models.Ad {
	var out []*models.Ad
	for _, ad := range candidates {
		if ad.IsDefault {
			out = append(out, ad)
		}
	}
	return out
}

// fromRecord maps a raw creative row, normalizing the shape label from
// the store's localized vocabulary.
func fromRecord(r airtable.Record) *models.Ad {
	return &models.Ad{
		ID:         r.ID,
		Name:       r.Str(fieldName),
		BannerHTML: r.Str(fieldBannerHTML),
		BannerType: models.NormalizeShape(r.Str(fieldBannerType)),
		TargetTag:  r.Str(fieldTargetTag),
		Status:     r.Str(fieldStatus),
		IsDefault:  r.Bool(fieldIsDefault),
	}
}
