// Package api serves the composed page data over a JSON REST surface,
// plus the crawler endpoints and the revalidation webhook.
package api

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yumetolab/yumeji/internal/ads"
	"github.com/yumetolab/yumeji/internal/category"
	"github.com/yumetolab/yumeji/internal/content"
	"github.com/yumetolab/yumeji/internal/guide"
	"github.com/yumetolab/yumeji/internal/markdown"
	"github.com/yumetolab/yumeji/internal/models"
	"github.com/yumetolab/yumeji/internal/site"
	"github.com/yumetolab/yumeji/internal/viewcache"
)

// symbolismHeading opens the synthetic first section prepended to every
// article body.
const symbolismHeading = "## 夢が象徴する意味"

// relatedLimit caps the related-content strip on article pages.
const relatedLimit = 6

// articleSlots is the banner layout of an article page: in-article
// square, in-article horizontal, and two sidebar squares.
var articleSlots = []models.SlotRequest{
	{Shape: models.ShapeSquare, ID: "article-square"},
	{Shape: models.ShapeHorizontal, ID: "article-horizontal"},
	{Shape: models.ShapeSquare, ID: "sidebar-1"},
	{Shape: models.ShapeSquare, ID: "sidebar-2"},
}

// Service composes page payloads from the repositories.
type Service struct {
	contents     *content.Repository
	guides       *guide.Repository
	ads          *ads.Allocator
	resolver     *category.Resolver
	renderer     *markdown.Renderer
	routes       *site.Routes
	cache        viewcache.Cache
	cacheTTL     time.Duration
	popularLimit int
	logger       *slog.Logger
	now          func() time.Time
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Contents     *content.Repository
	Guides       *guide.Repository
	Ads          *ads.Allocator
	Resolver     *category.Resolver
	Routes       *site.Routes
	Cache        viewcache.Cache
	CacheTTL     time.Duration
	PopularLimit int
	Logger       *slog.Logger
}

// NewService creates the page composition service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		contents:     cfg.Contents,
		guides:       cfg.Guides,
		ads:          cfg.Ads,
		resolver:     cfg.Resolver,
		renderer:     markdown.NewRenderer(),
		routes:       cfg.Routes,
		cache:        cfg.Cache,
		cacheTTL:     cfg.CacheTTL,
		popularLimit: cfg.PopularLimit,
		logger:       cfg.Logger,
	}
	if s.cache == nil {
		s.cache = viewcache.NewMemory()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = time.Hour
	}
	if s.popularLimit <= 0 {
		s.popularLimit = 8
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Home assembles the portal landing payload. The three upstream reads
// are independent, so they run in parallel.
func (s *Service) Home(ctx context.Context) (*HomePage, error) {
	var (
		popular    []*models.Content
		guides     []*models.Guide
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		popular, err = s.contents.ListPopular(gctx, s.popularLimit)
		return err
	})
	g.Go(func() error {
		var err error
		guides, err = s.guides.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		categories = s.resolver.Categories(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &HomePage{
		Popular:    toContentSummaries(popular, s.routes),
		Guides:     toGuideSummaries(guides, s.routes),
		Categories: categories,
	}, nil
}

// ContentPage assembles one article page: the entry itself, a related
// strip from its primary category, allocated banner ads, and the
// rendered article HTML with ad placeholders filled in.
func (s *Service) ContentPage(ctx context.Context, slug string) (*ContentPage, error) {
	item, err := s.contents.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	var related []*models.Content
	if cat := item.PrimaryCategory(); cat != "" {
		all, err := s.contents.ListByCategory(ctx, cat)
		if err == nil {
			for _, c := range all {
				if c.Slug == slug {
					continue
				}
				related = append(related, c)
				if len(related) == relatedLimit {
					break
				}
			}
		}
	}

	banners := s.ads.Allocate(ctx, articleSlots, item.Tags)
	textAds := s.ads.TextAds(ctx, item.Tags)

	body := symbolismHeading + "\n\n" + markdown.Unescape(item.Symbolism) +
		"\n\n" + markdown.Unescape(item.Article)
	var cur markdown.Cursor
	body = markdown.Prepare(body, len(textAds), &cur)

	renderAds := markdown.Ads{TextAds: make([]string, len(textAds))}
	if banners[0] != nil {
		renderAds.BannerHTML = banners[0].BannerHTML
	}
	for i, ad := range textAds {
		renderAds.TextAds[i] = ad.BannerHTML
	}
	rendered, err := s.renderer.Render([]byte(body), renderAds)
	if err != nil {
		s.logger.Warn("api: article render failed", slog.String("slug", slug), slog.String("error", err.Error()))
		rendered = markdown.Result{}
	}

	return &ContentPage{
		Content:  item,
		URL:      s.routes.Content(item),
		HTML:     rendered.HTML,
		Headings: rendered.Headings,
		Related:  toContentSummaries(related, s.routes),
		Banners:  toAdSlots(articleSlots, banners),
	}, nil
}

// GuidePage assembles one guide article page.
func (s *Service) GuidePage(ctx context.Context, slug string) (*GuidePage, error) {
	item, err := s.guides.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	textAds := s.ads.TextAds(ctx, nil)
	body := markdown.Unescape(item.Content)
	var cur markdown.Cursor
	body = markdown.Prepare(body, len(textAds), &cur)

	renderAds := markdown.Ads{TextAds: make([]string, len(textAds))}
	banners := s.ads.Allocate(ctx, []models.SlotRequest{
		{Shape: models.ShapeHorizontal, ID: "guide-horizontal"},
		{Shape: models.ShapeSquare, ID: "guide-square"},
	}, nil)
	if banners[0] != nil {
		renderAds.BannerHTML = banners[0].BannerHTML
	}
	for i, ad := range textAds {
		renderAds.TextAds[i] = ad.BannerHTML
	}
	rendered, err := s.renderer.Render([]byte(body), renderAds)
	if err != nil {
		s.logger.Warn("api: guide render failed", slog.String("slug", slug), slog.String("error", err.Error()))
		rendered = markdown.Result{}
	}

	return &GuidePage{
		Guide:    item,
		URL:      s.routes.Guide(item),
		HTML:     rendered.HTML,
		Headings: rendered.Headings,
	}, nil
}

// Sitemap renders the full sitemap.xml body.
func (s *Service) Sitemap(ctx context.Context) ([]byte, error) {
	contents, err := s.contents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	guides, err := s.guides.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.routes.Sitemap(contents, guides, s.resolver.Categories(ctx), s.now())
}

// Robots renders robots.txt.
func (s *Service) Robots() []byte {
	return s.routes.Robots()
}
