package fixtures

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinDataset(t *testing.T) {
	s := Builtin()

	contents := s.Contents()
	if len(contents) != 3 {
		t.Fatalf("%d contents, want 3", len(contents))
	}
	slugs := map[string]bool{}
	for _, c := range contents {
		slugs[c.Slug] = true
		if c.Initial == "" {
			t.Errorf("%s has no initial", c.Slug)
		}
	}
	for _, want := range []string{"snake", "falling", "flying"} {
		if !slugs[want] {
			t.Errorf("missing fixture %s", want)
		}
	}

	if guides := s.Guides(); len(guides) != 2 {
		t.Errorf("%d guides, want 2", len(guides))
	}
	if cats := s.Categories(); len(cats) != 2 || cats[0].Slug != cats[0].Name {
		t.Errorf("categories = %+v", cats)
	}
}

func TestContentBySlug(t *testing.T) {
	s := Builtin()
	if c := s.ContentBySlug("snake"); c == nil || c.Reading != "へび" {
		t.Errorf("snake = %+v", c)
	}
	if c := s.ContentBySlug("no-such"); c != nil {
		t.Errorf("miss = %+v", c)
	}
}

func TestContentsByCategory(t *testing.T) {
	s := Builtin()
	animals := s.ContentsByCategory("動物")
	if len(animals) != 1 || animals[0].Slug != "snake" {
		t.Errorf("動物 = %+v", animals)
	}
	if none := s.ContentsByCategory("植物"); len(none) != 0 {
		t.Errorf("unknown category matched %d items", len(none))
	}
}

func TestSearchContents(t *testing.T) {
	s := Builtin()

	// Tag match.
	if got := s.SearchContents("金運"); len(got) != 1 || got[0].Slug != "snake" {
		t.Errorf("金運 = %+v", got)
	}
	// Reading substring match.
	if got := s.SearchContents("そら"); len(got) != 1 || got[0].Slug != "flying" {
		t.Errorf("そら = %+v", got)
	}
	if got := s.SearchContents("該当なし"); len(got) != 0 {
		t.Errorf("no-hit query returned %d items", len(got))
	}
}

func TestContentsReturnsCopies(t *testing.T) {
	s := Builtin()
	first := s.Contents()
	first[0].Category[0] = "mutated"
	first[0].Title = "mutated"

	again := s.ContentBySlug(first[0].Slug)
	if again.Title == "mutated" || again.Category[0] == "mutated" {
		t.Error("caller mutation leaked into the fixture set")
	}
}

func TestLoadFileOverride(t *testing.T) {
	s := Builtin()
	path := filepath.Join(t.TempDir(), "override.yaml")
	doc := `contents:
  - id: x1
    slug: spider
    title: 蜘蛛の夢
    reading: くも
    status: Published
  - id: x2
    slug: hidden
    title: 下書き
    status: Draft
categories:
  - id: c9
    name: 虫
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	contents := s.Contents()
	if len(contents) != 1 || contents[0].Slug != "spider" {
		t.Fatalf("override contents = %+v", contents)
	}
	if contents[0].Initial != "く" {
		t.Errorf("initial = %q", contents[0].Initial)
	}
	if guides := s.Guides(); len(guides) != 0 {
		t.Errorf("override kept %d guides", len(guides))
	}
}

func TestLoadFileKeepsPreviousOnError(t *testing.T) {
	s := Builtin()
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("contents: [:::"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.LoadFile(path); err == nil {
		t.Fatal("broken file accepted")
	}
	if err := s.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
	if contents := s.Contents(); len(contents) != 3 {
		t.Errorf("previous dataset lost, %d contents", len(contents))
	}
}
