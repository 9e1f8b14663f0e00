package category

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yumetolab/yumeji/internal/models"
	"github.com/yumetolab/yumeji/internal/testutil"
)

var testCats = []models.Category{
	{ID: "rec1", Name: "動物", Slug: "動物"},
	{ID: "rec2", Name: "動作", Slug: "動作"},
}

func countingFetch(calls *int, err *error) FetchFunc {
	return func(context.Context) ([]models.Category, error) {
		*calls++
		if *err != nil {
			return nil, *err
		}
		return testCats, nil
	}
}

func TestTTLBoundary(t *testing.T) {
	clock := testutil.NewClock(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	calls := 0
	var fetchErr error
	r := NewResolver(countingFetch(&calls, &fetchErr), time.Hour, WithClock(clock.Now))

	ctx := context.Background()
	r.Categories(ctx)
	if calls != 1 {
		t.Fatalf("initial load: %d fetches, want 1", calls)
	}

	// One second inside the window: still cached.
	clock.Advance(3599 * time.Second)
	r.Categories(ctx)
	if calls != 1 {
		t.Errorf("at 3599s: %d fetches, want 1 (cache hit)", calls)
	}

	// Past the window: one reload.
	clock.Advance(2 * time.Second)
	r.Categories(ctx)
	if calls != 2 {
		t.Errorf("at 3601s: %d fetches, want 2 (one reload)", calls)
	}
}

func TestStaleServedOnFetchFailure(t *testing.T) {
	clock := testutil.NewClock(time.Now())
	calls := 0
	var fetchErr error
	r := NewResolver(countingFetch(&calls, &fetchErr), time.Hour, WithClock(clock.Now))

	ctx := context.Background()
	if got := r.Categories(ctx); len(got) != 2 {
		t.Fatalf("initial load returned %d categories", len(got))
	}

	fetchErr = errors.New("store down")
	clock.Advance(2 * time.Hour)
	if got := r.Categories(ctx); len(got) != 2 {
		t.Errorf("failed reload returned %d categories, want stale 2", len(got))
	}
}

func TestFallbackWhenNeverLoaded(t *testing.T) {
	fetchErr := errors.New("store down")
	calls := 0
	r := NewResolver(countingFetch(&calls, &fetchErr), time.Hour,
		WithFallback([]models.Category{{ID: "c1", Name: "動物", Slug: "動物"}}))

	got := r.Categories(context.Background())
	if len(got) != 1 || got[0].Name != "動物" {
		t.Errorf("got %v, want the fallback category", got)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	calls := 0
	var fetchErr error
	r := NewResolver(countingFetch(&calls, &fetchErr), time.Hour)

	ctx := context.Background()
	r.Categories(ctx)
	r.Categories(ctx)
	if calls != 1 {
		t.Fatalf("%d fetches before invalidate, want 1", calls)
	}
	r.Invalidate()
	r.Categories(ctx)
	if calls != 2 {
		t.Errorf("%d fetches after invalidate, want 2", calls)
	}
}

func TestResolveName(t *testing.T) {
	calls := 0
	var fetchErr error
	r := NewResolver(countingFetch(&calls, &fetchErr), time.Hour)
	ctx := context.Background()

	cases := []struct {
		in, want string
	}{
		{"rec1", "動物"},                       // record ID
		{"動物", "動物"},                         // already a display name
		{"%E5%8B%95%E7%89%A9", "動物"},         // percent-encoded name
		{"uncategorized", Uncategorized},     // sentinel
		{"", Uncategorized},                  // empty
		{"未知のカテゴリ", "未知のカテゴリ"},               // unknown passes through
		{"%E6%9C%AA%E7%9F%A5", "未知"},         // unknown but encoded: decoded form
		{"100%confidence", "100%confidence"}, // bad escape: raw input kept
	}
	for _, tc := range cases {
		if got := r.ResolveName(ctx, tc.in); got != tc.want {
			t.Errorf("ResolveName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveContentsRewritesInPlace(t *testing.T) {
	calls := 0
	var fetchErr error
	r := NewResolver(countingFetch(&calls, &fetchErr), time.Hour)

	items := []*models.Content{
		{ID: "a", Category: []string{"rec1"}},
		{ID: "b", Category: []string{"rec2", "rec1"}},
		{ID: "c", Category: []string{"動物"}}, // already resolved
	}
	r.ResolveContents(context.Background(), items)

	if items[0].Category[0] != "動物" {
		t.Errorf("item a category = %v", items[0].Category)
	}
	if items[1].Category[0] != "動作" || items[1].Category[1] != "動物" {
		t.Errorf("item b category = %v", items[1].Category)
	}
	if items[2].Category[0] != "動物" {
		t.Errorf("item c category = %v", items[2].Category)
	}
	if calls != 1 {
		t.Errorf("%d fetches for the batch, want 1 shared load", calls)
	}
}
