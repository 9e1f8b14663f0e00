package site

import (
	"encoding/xml"
	"time"

	"github.com/yumetolab/yumeji/internal/models"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	NS      string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap renders sitemap.xml for the full site: static pages, guides,
// category listings, and every content page.
func (r *Routes) Sitemap(contents []*models.Content, guides []*models.Guide, categories []models.Category, now time.Time) ([]byte, error) {
	today := now.Format("2006-01-02")

	set := urlSet{NS: sitemapNS}
	add := func(loc, lastmod, freq, prio string) {
		if lastmod == "" {
			lastmod = today
		}
		set.URLs = append(set.URLs, urlEntry{Loc: loc, LastMod: lastmod, ChangeFreq: freq, Priority: prio})
	}

	add(r.Home(), "", "daily", "1.0")
	add(r.ContentsIndex(), "", "daily", "1.0")
	add(r.KeywordsIndex(), "", "daily", "1.0")
	add(r.GuidesIndex(), "", "weekly", "0.9")

	for _, g := range guides {
		add(r.Guide(g), g.PublishedDate, "monthly", "0.7")
	}
	for _, c := range categories {
		add(r.Category(c.Name), "", "weekly", "0.8")
	}
	for _, c := range contents {
		if c.Slug == "" {
			continue
		}
		add(r.Content(c), c.UpdatedAt, "monthly", "0.8")
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Robots renders robots.txt: crawl everything public, keep crawlers out
// of the API, and point them at the sitemap.
func (r *Routes) Robots() []byte {
	return []byte("User-agent: *\n" +
		"Allow: /\n" +
		"Disallow: /api/\n" +
		"Disallow: /admin/\n" +
		"\n" +
		"Sitemap: " + r.base + "/sitemap.xml\n")
}
