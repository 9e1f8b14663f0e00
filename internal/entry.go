// Package internal provides the main application initialization and
// runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yumetolab/yumeji/internal/ads"
	"github.com/yumetolab/yumeji/internal/airtable"
	"github.com/yumetolab/yumeji/internal/api"
	"github.com/yumetolab/yumeji/internal/category"
	"github.com/yumetolab/yumeji/internal/content"
	"github.com/yumetolab/yumeji/internal/fixtures"
	"github.com/yumetolab/yumeji/internal/guide"
	"github.com/yumetolab/yumeji/internal/logging"
	"github.com/yumetolab/yumeji/internal/mcpserver"
	"github.com/yumetolab/yumeji/internal/models"
	"github.com/yumetolab/yumeji/internal/site"
	"github.com/yumetolab/yumeji/internal/snapshot"
	"github.com/yumetolab/yumeji/internal/viewcache"
)

// defaultCategoriesTable is the store table holding category records.
const defaultCategoriesTable = "Categories"

// categoryNameField is the primary display field of a category record.
const categoryNameField = "Name"

// components are the wired building blocks shared by the serve, probe,
// and mcp entrypoints.
type components struct {
	client   *airtable.Client
	resolver *category.Resolver
	contents *content.Repository
	guides   *guide.Repository
	ads      *ads.Allocator
	fixtures *fixtures.Set
	snap     *snapshot.Store
	cache    viewcache.Cache
	routes   *site.Routes

	closers []func()
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func tableOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

func buildComponents(cfg *Config, logger *slog.Logger) (*components, error) {
	c := &components{}

	c.client = airtable.NewClient(airtable.Config{
		BaseURL: cfg.Airtable.BaseURL,
		BaseID:  cfg.Airtable.BaseID,
		APIKey:  cfg.Airtable.APIKey,
		Timeout: cfg.Airtable.Timeout(),
	})

	c.fixtures = fixtures.Builtin()
	if cfg.Fixtures.Path != "" {
		if err := c.fixtures.LoadFile(cfg.Fixtures.Path); err != nil {
			logger.Warn("fixtures: override load failed, using embedded data",
				slog.String("path", cfg.Fixtures.Path), slog.String("error", err.Error()))
		}
	}

	if cfg.Snapshot.Path != "" {
		snap, err := snapshot.Open(cfg.Snapshot.Path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		c.snap = snap
		c.closers = append(c.closers, func() { _ = snap.Close() })
	}

	categoriesTable := tableOr(cfg.Airtable.Tables.Categories, defaultCategoriesTable)
	fetchCategories := func(ctx context.Context) ([]models.Category, error) {
		if !c.client.Configured() {
			return c.fixtures.Categories(), nil
		}
		records, err := c.client.List(ctx, categoriesTable, airtable.ListOptions{})
		if err != nil {
			return nil, err
		}
		cats := make([]models.Category, 0, len(records))
		for _, r := range records {
			name := r.Str(categoryNameField)
			// The display name doubles as the routing slug.
			cats = append(cats, models.Category{ID: r.ID, Name: name, Slug: name})
		}
		return cats, nil
	}
	c.resolver = category.NewResolver(fetchCategories, cfg.Cache.CategoryTTL(),
		category.WithLogger(logger),
		category.WithFallback(c.fixtures.Categories()),
	)

	contentOpts := []content.Option{
		content.WithTable(tableOr(cfg.Airtable.Tables.Keywords, content.DefaultTable)),
		content.WithLogger(logger),
	}
	if c.snap != nil {
		contentOpts = append(contentOpts, content.WithSnapshot(c.snap))
	}
	c.contents = content.NewRepository(c.client, c.resolver, c.fixtures, contentOpts...)

	c.guides = guide.NewRepository(c.client, c.fixtures,
		guide.WithTable(tableOr(cfg.Airtable.Tables.Guides, guide.DefaultTable)),
		guide.WithLogger(logger),
	)

	c.ads = ads.NewAllocator(c.client,
		ads.WithTable(tableOr(cfg.Airtable.Tables.Affiliate, ads.DefaultTable)),
		ads.WithLogger(logger),
	)

	if cfg.Valkey.Address != "" {
		vk, err := viewcache.NewValkey(cfg.Valkey.Address, cfg.Valkey.Password, logger)
		if err != nil {
			return nil, fmt.Errorf("connect valkey: %w", err)
		}
		c.cache = vk
		c.closers = append(c.closers, vk.Close)
		logger.Info("view cache: valkey", slog.String("address", cfg.Valkey.Address))
	} else {
		c.cache = viewcache.NewMemory()
	}

	c.routes = site.NewRoutes(cfg.Site.BaseURL)
	return c, nil
}

// Run starts the HTTP server with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Bool("store_configured", cfg.Airtable.BaseID != ""),
		slog.String("snapshot_path", cfg.Snapshot.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	comps, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.close()

	svc := api.NewService(api.ServiceConfig{
		Contents:     comps.contents,
		Guides:       comps.guides,
		Ads:          comps.ads,
		Resolver:     comps.resolver,
		Routes:       comps.routes,
		Cache:        comps.cache,
		CacheTTL:     cfg.Cache.PageTTL(),
		PopularLimit: cfg.Site.PopularLimit,
		Logger:       logger,
	})
	router := api.NewRouter(svc, cfg.Revalidate.Token, logger)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Fixtures.Path != "" {
		g.Go(func() error {
			return comps.fixtures.Watch(gCtx, cfg.Fixtures.Path, logger)
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Probe checks store connectivity and prints per-table record counts.
// Used by the probe CLI subcommand.
func Probe(ctx context.Context, cfg *Config) error {
	logger := logging.New(cfg.App.LogLevel, logging.FormatConsole)

	comps, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.close()

	if !comps.client.Configured() {
		fmt.Println("store: not configured (fixture mode)")
		fmt.Printf("fixtures: %d contents, %d guides, %d categories\n",
			len(comps.fixtures.Contents()), len(comps.fixtures.Guides()), len(comps.fixtures.Categories()))
		return nil
	}

	tables := []string{
		tableOr(cfg.Airtable.Tables.Keywords, content.DefaultTable),
		tableOr(cfg.Airtable.Tables.Categories, defaultCategoriesTable),
		tableOr(cfg.Airtable.Tables.Guides, guide.DefaultTable),
		tableOr(cfg.Airtable.Tables.Affiliate, ads.DefaultTable),
	}
	for _, table := range tables {
		records, err := comps.client.List(ctx, table, airtable.ListOptions{})
		if err != nil {
			return fmt.Errorf("probe %s: %w", table, err)
		}
		fmt.Printf("%s: %d records\n", table, len(records))
	}
	return nil
}

// ServeMCP runs the MCP stdio server until the client disconnects.
func ServeMCP(cfg *Config) error {
	// Stdout carries the MCP protocol, so logs go to stderr via the
	// default slog handler only at error level.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	comps, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer comps.close()

	return mcpserver.New(comps.contents, comps.guides, comps.resolver).ServeStdio()
}
