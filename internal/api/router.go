package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the full HTTP surface: the JSON API under /api, the
// crawler endpoints at the root, and the health probes.
func NewRouter(svc *Service, revalidateToken string, logger *slog.Logger) chi.Router {
	h := NewHandler(svc, revalidateToken, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/home", h.Home)
		r.Get("/contents", h.ListContents)
		r.Get("/contents/{slug}", h.GetContent)
		r.Get("/categories/{category}/contents", h.ListByCategory)
		r.Get("/search", h.Search)
		r.Get("/popular", h.Popular)
		r.Get("/guides", h.ListGuides)
		r.Get("/guides/{slug}", h.GetGuide)
		r.Post("/ads/allocate", h.AllocateAds)
		r.Get("/revalidate", h.Revalidate)
	})

	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/robots.txt", h.Robots)
	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	return r
}
