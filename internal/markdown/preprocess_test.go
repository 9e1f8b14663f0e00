package markdown

import (
	"strings"
	"testing"
)

const sixSections = `## 一
a
## 二
b
## 三
c
## 四
d
## 五
e
## 六
f`

func TestInjectBannersAfterThirdAndFifthHeading(t *testing.T) {
	got := InjectBanners(sixSections)

	if n := strings.Count(got, "```banner"); n != 2 {
		t.Fatalf("%d banner placeholders, want 2", n)
	}
	lines := strings.Split(got, "\n")
	for i, line := range lines {
		if line == "## 三" || line == "## 五" {
			if lines[i+1] != "" || lines[i+2] != "```banner" {
				t.Errorf("no placeholder after %s", line)
			}
		}
		if line == "## 二" && strings.HasPrefix(lines[i+2], "```banner") {
			t.Error("placeholder after the 2nd heading")
		}
	}
}

func TestInjectBannersIdempotent(t *testing.T) {
	once := InjectBanners(sixSections)
	twice := InjectBanners(once)
	if once != twice {
		t.Error("re-running the injector changed the document")
	}
}

func TestInjectBannersFewHeadings(t *testing.T) {
	body := "## 一\na\n## 二\nb"
	got := InjectBanners(body)
	if strings.Contains(got, "```banner") {
		t.Error("placeholder injected with fewer than 3 headings")
	}
	if got != body {
		t.Error("document without injection points was modified")
	}
}

func TestInjectTextAdsCyclesPool(t *testing.T) {
	var cur Cursor
	got := InjectTextAds(sixSections, 2, &cur)

	if n := strings.Count(got, "```textad"); n != 6 {
		t.Fatalf("%d text-ad placeholders, want 6 (one per section)", n)
	}
	// Pool of 2 across 6 sections: indexes cycle 0,1,0,1,0,1.
	var indexes []string
	lines := strings.Split(got, "\n")
	for i, line := range lines {
		if line == "```textad" {
			indexes = append(indexes, lines[i+1])
		}
	}
	want := []string{"0", "1", "0", "1", "0", "1"}
	for i := range want {
		if indexes[i] != want[i] {
			t.Fatalf("placeholder indexes = %v, want %v", indexes, want)
		}
	}
}

func TestInjectTextAdsEmptyPool(t *testing.T) {
	var cur Cursor
	if got := InjectTextAds(sixSections, 0, &cur); got != sixSections {
		t.Error("empty pool must be a no-op")
	}
}

func TestInjectTextAdsNeedsAHeading(t *testing.T) {
	var cur Cursor
	// A body without level-2 headings has no sections, so no
	// placeholder fires, not even at end of document.
	body := "前置きの段落です。\n\n### 小見出し\n\n本文。"
	if got := InjectTextAds(body, 2, &cur); got != body {
		t.Errorf("heading-less body changed:\n%s", got)
	}
	if cur.Next(2) != 0 {
		t.Error("cursor advanced without emitting a placeholder")
	}
}

func TestCursorIsPerRender(t *testing.T) {
	var a, b Cursor
	if a.Next(3) != 0 || a.Next(3) != 1 {
		t.Error("cursor a did not advance")
	}
	if b.Next(3) != 0 {
		t.Error("fresh cursor b was affected by cursor a")
	}
}

func TestUnescape(t *testing.T) {
	if got := Unescape(`一行目\n二行目`); got != "一行目\n二行目" {
		t.Errorf("Unescape = %q", got)
	}
}

func TestEscapeEmphasis(t *testing.T) {
	const zw = "\u200B"
	cases := []struct{ in, want string }{
		{"**「白い蛇」**", "**" + zw + "「白い蛇」" + zw + "**"},
		{"**『夢』**", "**" + zw + "『夢』" + zw + "**"},
		{"**太字**", "**太字**"},
		{"「普通の括弧」", "「普通の括弧」"},
	}
	for _, tc := range cases {
		if got := EscapeEmphasis(tc.in); got != tc.want {
			t.Errorf("EscapeEmphasis(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPreparePipeline(t *testing.T) {
	body := `## 一\na\n## 二\nb\n## 三\nc`
	var cur Cursor
	got := Prepare(body, 1, &cur)

	if strings.Contains(got, `\n`) {
		t.Error("escaped newlines survived")
	}
	if !strings.Contains(got, "```banner") {
		t.Error("banner placeholder missing after the 3rd heading")
	}
	if !strings.Contains(got, "```textad") {
		t.Error("text-ad placeholders missing")
	}
}
