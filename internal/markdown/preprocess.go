// Package markdown prepares article bodies for rendering: it repairs
// escaped newlines, injects advertisement placeholders at section
// boundaries, and works around a parser conflict between strong
// emphasis and Japanese brackets. Every step is total; the worst case
// for any input is a no-op.
package markdown

import (
	"strconv"
	"strings"
)

// Placeholder fence languages. The renderer replaces fenced code
// blocks carrying these info strings with ad markup.
const (
	BannerLang = "banner"
	TextAdLang = "textad"
)

// bannerPoints are the level-2 heading ordinals after which a banner
// placeholder is inserted. Fewer headings simply means fewer banners.
var bannerPoints = map[int]bool{3: true, 5: true}

// Unescape converts literal backslash-n sequences to real newlines.
// Long-text columns in the record store arrive escaped this way.
func Unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// InjectBanners inserts a banner placeholder block immediately after
// the 3rd and 5th level-2 heading. Running it again on its own output
// changes nothing: a placeholder already sitting after an injection
// point is detected and kept as-is.
func InjectBanners(body string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines)+6)
	h2 := 0
	for i, line := range lines {
		out = append(out, line)
		if !strings.HasPrefix(line, "## ") {
			continue
		}
		h2++
		if !bannerPoints[h2] {
			continue
		}
		if hasPlaceholderAhead(lines[i+1:], "```banner") {
			continue
		}
		out = append(out, "", "```banner", "```", "")
	}
	return strings.Join(out, "\n")
}

// hasPlaceholderAhead reports whether a placeholder fence opens within
// the blank-line run following a heading.
func hasPlaceholderAhead(rest []string, fence string) bool {
	for _, line := range rest {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return strings.HasPrefix(line, fence)
	}
	return false
}

// Cursor tracks round-robin position in the text-ad pool for one
// render. Callers create one per render; nothing here is shared across
// requests.
type Cursor struct {
	pos int
}

// Next returns the next pool index for a pool of size n, advancing the
// cursor. n <= 0 returns -1.
func (c *Cursor) Next(n int) int {
	if n <= 0 {
		return -1
	}
	i := c.pos % n
	c.pos++
	return i
}

// InjectTextAds appends a text-ad placeholder after every level-2
// section (including the final one at end of document) when the pool is
// non-empty. A section starts at a level-2 heading; text before the
// first heading belongs to no section, so a body without any level-2
// heading receives no placeholders at all. Article bodies always open
// with the synthetic symbolism heading, so in practice every article
// has at least one section. Each placeholder records the pool index it
// consumes, so the renderer needs no state of its own. The cursor
// cycles within the render; adjacent sections never show the same ad
// unless the pool has one entry.
func InjectTextAds(body string, poolSize int, cur *Cursor) string {
	if poolSize <= 0 {
		return body
	}
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines)+8)
	inSection := false
	emit := func() {
		i := cur.Next(poolSize)
		out = append(out, "", "```textad", strconv.Itoa(i), "```", "")
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			if inSection {
				emit()
			}
			inSection = true
		}
		out = append(out, line)
	}
	if inSection {
		emit()
	}
	return strings.Join(out, "\n")
}

// EscapeEmphasis inserts a zero-width space between strong-emphasis
// markers and adjacent Japanese brackets. Without it CommonMark refuses
// to close the emphasis run, and the literal asterisks leak into the
// page.
func EscapeEmphasis(s string) string {
	const zw = "\u200B"
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		// ** followed by an opening bracket
		if r == '*' && i+2 < len(runes) && runes[i+1] == '*' && isOpenBracket(runes[i+2]) {
			b.WriteString("**")
			b.WriteString(zw)
			i++
			continue
		}
		// closing bracket followed by **
		if isCloseBracket(r) && i+2 < len(runes) && runes[i+1] == '*' && runes[i+2] == '*' {
			b.WriteRune(r)
			b.WriteString(zw)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isOpenBracket(r rune) bool {
	return r == '「' || r == '『'
}

func isCloseBracket(r rune) bool {
	return r == '」' || r == '』'
}

// Prepare runs the full preprocessing pipeline for an article body:
// unescape, banner injection, text-ad injection, emphasis escape, in
// that order. textAdPool is the number of text ads available; cur may
// be nil when textAdPool is zero.
func Prepare(body string, textAdPool int, cur *Cursor) string {
	body = Unescape(body)
	body = InjectBanners(body)
	if textAdPool > 0 && cur != nil {
		body = InjectTextAds(body, textAdPool, cur)
	}
	return EscapeEmphasis(body)
}
