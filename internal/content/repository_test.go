package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yumetolab/yumeji/internal/airtable"
	"github.com/yumetolab/yumeji/internal/apperr"
	"github.com/yumetolab/yumeji/internal/category"
	"github.com/yumetolab/yumeji/internal/fixtures"
	"github.com/yumetolab/yumeji/internal/models"
	"github.com/yumetolab/yumeji/internal/testutil"
)

func storeRecords() []testutil.Record {
	return []testutil.Record{
		{ID: "recA", Fields: map[string]any{
			"slug": "snake", "keyword": "蛇", "status": "Published",
			"tag": []any{"動物", "金運"}, "カテゴリ": []any{"recCat1"},
			"ひらがな": "へび", "kana_index": "は",
			"situationsJson": `[{"title":"白い蛇を見る","description":"大吉"}]`,
		}},
		{ID: "recB", Fields: map[string]any{
			"slug": "snake-bite", "keyword": "蛇に噛まれる", "status": "Draft",
			"tag": []any{"動物"}, "カテゴリ": []any{"recCat1"}, "ひらがな": "へびにかまれる",
		}},
		{ID: "recC", Fields: map[string]any{
			"slug": "flying", "keyword": "空を飛ぶ", "status": "Published",
			"tag": []any{"動作"}, "カテゴリ": []any{"recCat2"}, "ひらがな": "そらをとぶ",
		}},
	}
}

func newTestRepo(t *testing.T, fake *testutil.FakeStore) *Repository {
	t.Helper()
	fake.SetTable("Categories", []testutil.Record{
		{ID: "recCat1", Fields: map[string]any{"Name": "動物"}},
		{ID: "recCat2", Fields: map[string]any{"Name": "動作"}},
	})
	client := airtable.NewClient(airtable.Config{
		BaseURL: fake.BaseURL(), BaseID: "base", APIKey: "key",
	})
	resolver := category.NewResolver(func(ctx context.Context) ([]models.Category, error) {
		records, err := client.List(ctx, "Categories", airtable.ListOptions{})
		if err != nil {
			return nil, err
		}
		cats := make([]models.Category, 0, len(records))
		for _, r := range records {
			name := r.Str("Name")
			cats = append(cats, models.Category{ID: r.ID, Name: name, Slug: name})
		}
		return cats, nil
	}, time.Hour)
	return NewRepository(client, resolver, fixtures.Builtin())
}

func TestListAllPublishedOnlyAndResolved(t *testing.T) {
	fake := testutil.NewFakeStore(t)
	fake.SetTable("Keywords", storeRecords())
	repo := newTestRepo(t, fake)

	items, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 published", len(items))
	}
	for _, c := range items {
		if c.Slug == "snake-bite" {
			t.Error("draft entry leaked through the published filter")
		}
		for _, cat := range c.Category {
			if cat == "recCat1" || cat == "recCat2" {
				t.Errorf("unresolved category ID %q on %s", cat, c.Slug)
			}
		}
	}
}

func TestGetBySlug(t *testing.T) {
	fake := testutil.NewFakeStore(t)
	fake.SetTable("Keywords", storeRecords())
	repo := newTestRepo(t, fake)
	ctx := context.Background()

	item, err := repo.GetBySlug(ctx, "snake")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if item.Title != "蛇" || item.Initial != "へ" {
		t.Errorf("mapped entry = %+v", item)
	}
	if len(item.Situations) != 1 || item.Situations[0].Title != "白い蛇を見る" {
		t.Errorf("situations = %+v", item.Situations)
	}
	if item.PrimaryCategory() != "動物" {
		t.Errorf("category = %v, want resolved display name", item.Category)
	}

	// Unpublished entry sharing the slug prefix must not match.
	if _, err := repo.GetBySlug(ctx, "snake-bite"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("draft lookup error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetBySlug(ctx, "no-such"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing lookup error = %v, want ErrNotFound", err)
	}
}

func TestListByCategoryResolvesReferenceFirst(t *testing.T) {
	fake := testutil.NewFakeStore(t)
	records := storeRecords()
	// The linked-record column matches display names server side.
	records[0].Fields["カテゴリ"] = []any{"動物"}
	records[2].Fields["カテゴリ"] = []any{"動作"}
	fake.SetTable("Keywords", records)
	repo := newTestRepo(t, fake)

	// Query by record ID; the repository must translate it to the name.
	items, err := repo.ListByCategory(context.Background(), "recCat1")
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if len(items) != 1 || items[0].Slug != "snake" {
		t.Fatalf("got %v, want just snake", slugs(items))
	}
}

func TestSearchMatchesKeywordTagsAndReading(t *testing.T) {
	fake := testutil.NewFakeStore(t)
	fake.SetTable("Keywords", storeRecords())
	repo := newTestRepo(t, fake)
	ctx := context.Background()

	for query, want := range map[string]string{
		"蛇":  "snake",  // keyword substring
		"動作": "flying", // tag
		"そら": "flying", // reading
	} {
		items, err := repo.Search(ctx, query)
		if err != nil {
			t.Fatalf("Search(%q): %v", query, err)
		}
		if len(items) != 1 || items[0].Slug != want {
			t.Errorf("Search(%q) = %v, want [%s]", query, slugs(items), want)
		}
	}
}

func TestListPopularHonorsLimit(t *testing.T) {
	fake := testutil.NewFakeStore(t)
	fake.SetTable("Keywords", storeRecords())
	repo := newTestRepo(t, fake)

	items, err := repo.ListPopular(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListPopular: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
}

func TestStoreFailureFallsBackToFixtures(t *testing.T) {
	fake := testutil.NewFakeStore(t)
	fake.SetTable("Keywords", storeRecords())
	fake.SetFail(true)
	repo := newTestRepo(t, fake)

	items, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll with store down: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want exactly the 3 fixture entries", len(items))
	}
	got := map[string]bool{}
	for _, c := range items {
		got[c.Slug] = true
	}
	for _, slug := range []string{"snake", "falling", "flying"} {
		if !got[slug] {
			t.Errorf("fixture entry %s missing from fallback", slug)
		}
	}
}

func TestUnconfiguredClientServesFixtures(t *testing.T) {
	client := airtable.NewClient(airtable.Config{})
	fx := fixtures.Builtin()
	resolver := category.NewResolver(func(context.Context) ([]models.Category, error) {
		return fx.Categories(), nil
	}, time.Hour)
	repo := NewRepository(client, resolver, fx)

	item, err := repo.GetBySlug(context.Background(), "snake")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if item.Title == "" {
		t.Error("fixture entry has no title")
	}
}

func slugs(items []*models.Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Slug
	}
	return out
}
