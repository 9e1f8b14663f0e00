package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Heading is one extracted document heading, used for tables of
// contents.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Ads carries the creative markup substituted into the placeholder
// blocks of one render.
type Ads struct {
	// BannerHTML fills every banner placeholder. Empty leaves the
	// placeholders blank.
	BannerHTML string
	// TextAds is indexed by the pool position recorded in each textad
	// placeholder.
	TextAds []string
}

// Renderer turns preprocessed article markdown into HTML. It is safe
// for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer with GFM tables, auto heading IDs, and
// raw HTML passthrough. Creative markup arrives as raw HTML, so unsafe
// rendering is required here.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Result is one rendered article.
type Result struct {
	HTML     string    `json:"html"`
	Headings []Heading `json:"headings"`
}

var (
	bannerBlockRe = regexp.MustCompile(`(?s)<pre><code class="language-banner">.*?</code></pre>`)
	textAdBlockRe = regexp.MustCompile(`(?s)<pre><code class="language-textad">\s*(\d+)\s*</code></pre>`)
)

// Render parses src, extracts level-2 and level-3 headings, renders
// HTML, and substitutes the ad placeholder blocks.
func (r *Renderer) Render(src []byte, ads Ads) (Result, error) {
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext()))

	var heads []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level < 2 || h.Level > 3 {
			return ast.WalkContinue, nil
		}
		var idStr string
		if id, ok := h.AttributeString("id"); ok {
			switch v := id.(type) {
			case string:
				idStr = v
			case []byte:
				idStr = string(v)
			}
		}
		var textBuf bytes.Buffer
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if seg, ok := c.(*ast.Text); ok {
				textBuf.Write(seg.Segment.Value(src))
			}
		}
		heads = append(heads, Heading{Level: h.Level, ID: idStr, Text: textBuf.String()})
		return ast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return Result{}, fmt.Errorf("markdown: render: %w", err)
	}

	out := buf.String()
	out = bannerBlockRe.ReplaceAllStringFunc(out, func(string) string {
		return bannerMarkup(ads.BannerHTML)
	})
	out = textAdBlockRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := textAdBlockRe.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(ads.TextAds) {
			return ""
		}
		return textAdMarkup(ads.TextAds[idx])
	})

	return Result{HTML: out, Headings: heads}, nil
}

func bannerMarkup(bannerHTML string) string {
	if bannerHTML == "" {
		return ""
	}
	return `<div class="ad-banner">` + bannerHTML + `</div>`
}

func textAdMarkup(adHTML string) string {
	if adHTML == "" {
		return ""
	}
	return `<div class="ad-text">` + adHTML + `</div>`
}
