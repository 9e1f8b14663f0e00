package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yumetolab/yumeji/internal/apperr"
	"github.com/yumetolab/yumeji/internal/viewcache"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *Service
	token  string
	logger *slog.Logger
}

// NewHandler creates a Handler. token guards the revalidation webhook;
// empty disables the check (development mode).
func NewHandler(svc *Service, token string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, token: token, logger: logger}
}

// urlParam extracts a chi route parameter, percent-decoded. Japanese
// category names arrive encoded.
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// serveCachedJSON serves the cached payload under key, or builds,
// caches, and serves it.
func (h *Handler) serveCachedJSON(w http.ResponseWriter, r *http.Request, key string, build func() (any, error)) {
	ctx := r.Context()
	if body, ok := h.svc.cache.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	v, err := build()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		h.logger.Error("api: page build failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("api: page marshal failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	body = append(body, '\n')
	h.svc.cache.Set(ctx, key, body, h.svc.cacheTTL)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Home handles GET /api/home.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.serveCachedJSON(w, r, viewcache.KeyHome, func() (any, error) {
		return h.svc.Home(r.Context())
	})
}

// ListContents handles GET /api/contents.
func (h *Handler) ListContents(w http.ResponseWriter, r *http.Request) {
	h.serveCachedJSON(w, r, viewcache.KeyList, func() (any, error) {
		items, err := h.svc.contents.ListAll(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"contents": toContentSummaries(items, h.svc.routes),
			"total":    len(items),
		}, nil
	})
}

// GetContent handles GET /api/contents/{slug}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	slug := urlParam(r, "slug")
	h.serveCachedJSON(w, r, viewcache.ContentKey(slug), func() (any, error) {
		return h.svc.ContentPage(r.Context(), slug)
	})
}

// ListByCategory handles GET /api/categories/{category}/contents. The
// segment may be a record ID, a display name, or a percent-encoded
// form of either.
func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	ref := urlParam(r, "category")
	name := h.svc.resolver.ResolveName(r.Context(), ref)
	h.serveCachedJSON(w, r, "page:category:"+name, func() (any, error) {
		items, err := h.svc.contents.ListByCategory(r.Context(), ref)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"category": name,
			"url":      h.svc.routes.Category(name),
			"contents": toContentSummaries(items, h.svc.routes),
			"total":    len(items),
		}, nil
	})
}

// Search handles GET /api/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing query parameter q"))
		return
	}
	items, err := h.svc.contents.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("api: search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":    query,
		"contents": toContentSummaries(items, h.svc.routes),
		"total":    len(items),
	})
}

// Popular handles GET /api/popular?limit=.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.svc.contents.ListPopular(r.Context(), limit)
	if err != nil {
		h.logger.Error("api: popular failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contents": toContentSummaries(items, h.svc.routes),
		"total":    len(items),
	})
}

// ListGuides handles GET /api/guides.
func (h *Handler) ListGuides(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.guides.ListAll(r.Context())
	if err != nil {
		h.logger.Error("api: guides failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"guides": toGuideSummaries(items, h.svc.routes),
		"total":  len(items),
	})
}

// GetGuide handles GET /api/guides/{slug}.
func (h *Handler) GetGuide(w http.ResponseWriter, r *http.Request) {
	slug := urlParam(r, "slug")
	h.serveCachedJSON(w, r, viewcache.GuideKey(slug), func() (any, error) {
		return h.svc.GuidePage(r.Context(), slug)
	})
}

// AllocateAds handles POST /api/ads/allocate.
func (h *Handler) AllocateAds(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if len(req.Slots) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("slots must not be empty"))
		return
	}
	picked := h.svc.ads.Allocate(r.Context(), req.Slots, req.Tags)
	writeJSON(w, http.StatusOK, AllocateResponse{Ads: picked})
}

// Revalidate handles GET /api/revalidate?secret=…&slug=…. With a slug
// it drops that page plus the aggregates embedding it; without, it
// drops everything. Either way the category cache reloads on next use.
func (h *Handler) Revalidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.token != "" && q.Get("secret") != h.token {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid token"))
		return
	}

	slug := q.Get("slug")
	if slug != "" {
		h.svc.cache.Invalidate(r.Context(), slug)
	} else {
		h.svc.cache.InvalidateAll(r.Context())
	}
	h.svc.resolver.Invalidate()

	scope := slug
	if scope == "" {
		scope = "all"
	}
	h.logger.Info("api: revalidated", slog.String("slug", scope))
	writeJSON(w, http.StatusOK, map[string]any{
		"revalidated": true,
		"now":         time.Now().UnixMilli(),
		"slug":        scope,
	})
}

// Sitemap handles GET /sitemap.xml.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if body, ok := h.svc.cache.Get(ctx, viewcache.KeySitemap); ok {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	body, err := h.svc.Sitemap(ctx)
	if err != nil {
		h.logger.Error("api: sitemap failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.svc.cache.Set(ctx, viewcache.KeySitemap, body, h.svc.cacheTTL)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Robots handles GET /robots.txt.
func (h *Handler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.svc.Robots())
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /health/ready. The service is ready as soon as it
// serves; fallback data keeps reads working without the upstream store.
func (h *Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
