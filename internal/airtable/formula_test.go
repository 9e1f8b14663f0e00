package airtable

import "testing"

func TestEq(t *testing.T) {
	got := Eq("status", "Published")
	want := `{status} = "Published"`
	if got != want {
		t.Errorf("Eq = %q, want %q", got, want)
	}
}

func TestEqEscapesQuotes(t *testing.T) {
	got := Eq("title", `say "hi"`)
	want := `{title} = "say \"hi\""`
	if got != want {
		t.Errorf("Eq = %q, want %q", got, want)
	}
}

func TestFindAndContains(t *testing.T) {
	if got, want := Find("動物", "カテゴリ"), `FIND("動物", {カテゴリ}) > 0`; got != want {
		t.Errorf("Find = %q, want %q", got, want)
	}
	if got, want := Contains("蛇", "keyword"), `SEARCH("蛇", {keyword})`; got != want {
		t.Errorf("Contains = %q, want %q", got, want)
	}
}

func TestAndOrComposition(t *testing.T) {
	got := And(Or(Contains("蛇", "keyword"), Contains("蛇", "tag")), Eq("status", "Published"))
	want := `AND(OR(SEARCH("蛇", {keyword}), SEARCH("蛇", {tag})), {status} = "Published")`
	if got != want {
		t.Errorf("composed formula = %q, want %q", got, want)
	}
}
