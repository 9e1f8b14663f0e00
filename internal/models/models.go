// Package models defines the domain types for Yumeji.
package models

// StatusPublished is the visibility gate: only records carrying this
// status are ever returned to a consumer.
const StatusPublished = "Published"

// Situation is one "when you dream of X in situation Y" sub-entry of a
// dictionary article.
type Situation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Content is a single dream-dictionary entry keyed by a dream-symbol
// keyword.
//
// Category holds raw record IDs straight after mapping; once the entry
// has passed through the category resolver it holds display names only.
type Content struct {
	ID              string      `json:"id"`
	Slug            string      `json:"slug"`
	Title           string      `json:"title"`
	Keywords        string      `json:"keywords,omitempty"`
	Tags            []string    `json:"tags"`
	Category        []string    `json:"category"`
	Reading         string      `json:"reading"`
	Initial         string      `json:"initial"`
	KanaIndex       string      `json:"kana_index,omitempty"`
	Status          string      `json:"-"`
	Description     string      `json:"description,omitempty"`
	Symbolism       string      `json:"symbolism,omitempty"`
	Article         string      `json:"article,omitempty"`
	MetaTitle       string      `json:"meta_title,omitempty"`
	MetaDescription string      `json:"meta_description,omitempty"`
	Situations      []Situation `json:"situations,omitempty"`
	RelatedKeywords []string    `json:"related_keywords,omitempty"`
	CreatedAt       string      `json:"created_at,omitempty"`
	UpdatedAt       string      `json:"updated_at,omitempty"`
}

// PrimaryCategory returns the first category label, or empty string.
func (c *Content) PrimaryCategory() string {
	if len(c.Category) == 0 {
		return ""
	}
	return c.Category[0]
}

// Guide is a long-form editorial article, independent of the keyword
// dictionary. Its category is a plain display label, never a record
// reference.
type Guide struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	FullTitle       string `json:"full_title,omitempty"`
	Description     string `json:"description,omitempty"`
	Content         string `json:"content,omitempty"`
	Image           string `json:"image,omitempty"`
	Category        string `json:"category,omitempty"`
	MetaTitle       string `json:"meta_title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	PublishedDate   string `json:"published_date,omitempty"`
	Status          string `json:"-"`
}

// Category is a grouping label for contents. The externally assigned
// display name doubles as the routing slug; there is deliberately no
// separate slugification step (see DESIGN.md).
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BannerShape is the canonical advertisement shape vocabulary. Upstream
// records may carry localized labels instead; NormalizeShape maps both
// vocabularies onto these values.
type BannerShape string

const (
	ShapeSquare     BannerShape = "Square"
	ShapeHorizontal BannerShape = "Horizontal"
	ShapeVertical   BannerShape = "Vertical"
	ShapeText       BannerShape = "Text"
)

// NormalizeShape maps a raw shape label (localized or canonical) to the
// canonical enum. Unknown labels pass through unchanged so that a new
// upstream vocabulary degrades to "never matches" rather than a panic.
func NormalizeShape(raw string) BannerShape {
	switch raw {
	case "正方形", string(ShapeSquare):
		return ShapeSquare
	case "横長", string(ShapeHorizontal):
		return ShapeHorizontal
	case "縦長", string(ShapeVertical):
		return ShapeVertical
	case "テキスト", string(ShapeText):
		return ShapeText
	}
	return BannerShape(raw)
}

// Ad is one affiliate advertisement creative.
type Ad struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	BannerHTML string      `json:"banner_html"`
	BannerType BannerShape `json:"banner_type"`
	TargetTag  string      `json:"target_tag,omitempty"`
	Status     string      `json:"-"`
	IsDefault  bool        `json:"is_default"`
}

// SlotRequest asks for one advertisement of a given shape at a page
// position. ID is an optional caller-side label carried through for
// debugging; it does not influence selection.
type SlotRequest struct {
	Shape BannerShape `json:"shape"`
	ID    string      `json:"id,omitempty"`
}
