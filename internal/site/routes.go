// Package site builds public-facing URLs and the crawler surfaces
// (sitemap.xml, robots.txt). Category display names double as routing
// slugs, so they are percent-encoded verbatim; there is no separate
// slugification step.
package site

import (
	"net/url"
	"strings"

	"github.com/yumetolab/yumeji/internal/models"
)

// DefaultBaseURL is the production origin used when no base URL is
// configured.
const DefaultBaseURL = "https://yumetouranai.jp"

// uncategorizedSlug is the route segment used when a content carries no
// category.
const uncategorizedSlug = "uncategorized"

// Routes builds absolute URLs rooted at one origin.
type Routes struct {
	base string
}

// NewRoutes creates a route builder. Trailing slashes on base are
// stripped.
func NewRoutes(base string) *Routes {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Routes{base: strings.TrimRight(base, "/")}
}

// BaseURL returns the configured origin.
func (r *Routes) BaseURL() string { return r.base }

// Home returns the portal root.
func (r *Routes) Home() string { return r.base + "/" }

// ContentsIndex returns the dictionary index page.
func (r *Routes) ContentsIndex() string { return r.base + "/contents" }

// KeywordsIndex returns the syllabary index page.
func (r *Routes) KeywordsIndex() string { return r.base + "/keywords" }

// GuidesIndex returns the guide listing page.
func (r *Routes) GuidesIndex() string { return r.base + "/guide" }

// Category returns the listing page for one category display name.
func (r *Routes) Category(name string) string {
	if name == "" {
		name = uncategorizedSlug
	}
	return r.base + "/contents/" + url.PathEscape(name)
}

// Content returns the article page for one content. The category
// segment is the primary category display name, percent-encoded.
func (r *Routes) Content(c *models.Content) string {
	cat := c.PrimaryCategory()
	if cat == "" {
		cat = uncategorizedSlug
	}
	return r.base + "/contents/" + url.PathEscape(cat) + "/" + url.PathEscape(c.Slug)
}

// Guide returns the article page for one guide.
func (r *Routes) Guide(g *models.Guide) string {
	return r.base + "/guide/" + url.PathEscape(g.Slug)
}
