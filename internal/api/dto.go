package api

import (
	"github.com/yumetolab/yumeji/internal/markdown"
	"github.com/yumetolab/yumeji/internal/models"
	"github.com/yumetolab/yumeji/internal/site"
)

// ContentSummary is the card form of a content used in listings.
type ContentSummary struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Category    []string `json:"category"`
	Tags        []string `json:"tags"`
	Reading     string   `json:"reading"`
	Initial     string   `json:"initial"`
	KanaIndex   string   `json:"kana_index,omitempty"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
}

// GuideSummary is the card form of a guide used in listings.
type GuideSummary struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	FullTitle     string `json:"full_title,omitempty"`
	Description   string `json:"description,omitempty"`
	Image         string `json:"image,omitempty"`
	Category      string `json:"category,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	URL           string `json:"url"`
}

// HomePage is the landing-page payload.
type HomePage struct {
	Popular    []ContentSummary  `json:"popular"`
	Guides     []GuideSummary    `json:"guides"`
	Categories []models.Category `json:"categories"`
}

// AdSlot pairs a slot request with its allocated creative, nil when the
// slot stays empty.
type AdSlot struct {
	ID    string             `json:"id"`
	Shape models.BannerShape `json:"shape"`
	Ad    *models.Ad         `json:"ad"`
}

// ContentPage is the full article-page payload.
type ContentPage struct {
	Content  *models.Content    `json:"content"`
	URL      string             `json:"url"`
	HTML     string             `json:"html"`
	Headings []markdown.Heading `json:"headings"`
	Related  []ContentSummary   `json:"related"`
	Banners  []AdSlot           `json:"banners"`
}

// GuidePage is the full guide-page payload.
type GuidePage struct {
	Guide    *models.Guide      `json:"guide"`
	URL      string             `json:"url"`
	HTML     string             `json:"html"`
	Headings []markdown.Heading `json:"headings"`
}

// AllocateRequest is the body of POST /api/ads/allocate.
type AllocateRequest struct {
	Slots []models.SlotRequest `json:"slots"`
	Tags  []string             `json:"tags,omitempty"`
}

// AllocateResponse mirrors the request slot order.
type AllocateResponse struct {
	Ads []*models.Ad `json:"ads"`
}

func toContentSummaries(items []*models.Content, routes *site.Routes) []ContentSummary {
	out := make([]ContentSummary, 0, len(items))
	for _, c := range items {
		out = append(out, ContentSummary{
			Slug:        c.Slug,
			Title:       c.Title,
			Category:    c.Category,
			Tags:        c.Tags,
			Reading:     c.Reading,
			Initial:     c.Initial,
			KanaIndex:   c.KanaIndex,
			Description: c.Description,
			URL:         routes.Content(c),
		})
	}
	return out
}

func toGuideSummaries(items []*models.Guide, routes *site.Routes) []GuideSummary {
	out := make([]GuideSummary, 0, len(items))
	for _, g := range items {
		out = append(out, GuideSummary{
			Slug:          g.Slug,
			Title:         g.Title,
			FullTitle:     g.FullTitle,
			Description:   g.Description,
			Image:         g.Image,
			Category:      g.Category,
			PublishedDate: g.PublishedDate,
			URL:           routes.Guide(g),
		})
	}
	return out
}

func toAdSlots(slots []models.SlotRequest, picked []*models.Ad) []AdSlot {
	out := make([]AdSlot, len(slots))
	for i, slot := range slots {
		out[i] = AdSlot{ID: slot.ID, Shape: slot.Shape, Ad: picked[i]}
	}
	return out
}
