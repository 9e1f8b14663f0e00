package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yumetolab/yumeji/internal/apperr"
)

func TestListFollowsPagination(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"records": []Record{{ID: "rec1"}, {ID: "rec2"}},
				"offset":  "page2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []Record{{ID: "rec3"}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BaseID: "base", APIKey: "key"})
	records, err := c.List(context.Background(), "Keywords", ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 across two pages", len(records))
	}
	if gotAuth != "Bearer key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestListMaxRecordsStopsAfterFirstPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []Record{{ID: "rec1"}},
			"offset":  "more",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BaseID: "base", APIKey: "key"})
	if _, err := c.List(context.Background(), "Keywords", ListOptions{MaxRecords: 1}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1 when MaxRecords is set", calls)
	}
}

func TestListErrorsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BaseID: "base", APIKey: "bad"})
	_, err := c.List(context.Background(), "Keywords", ListOptions{})
	if err == nil {
		t.Fatal("expected error on 401 response")
	}
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("err = %v, want it tagged as upstream failure", err)
	}
}

func TestListTagsMalformedBodyAsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, BaseID: "base", APIKey: "key"})
	_, err := c.List(context.Background(), "Keywords", ListOptions{})
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("err = %v, want it tagged as upstream failure", err)
	}
}

func TestUnconfiguredClientNeverDials(t *testing.T) {
	c := NewClient(Config{})
	if c.Configured() {
		t.Fatal("zero-credential client reports configured")
	}
	if _, err := c.List(context.Background(), "Keywords", ListOptions{}); err == nil {
		t.Fatal("expected error from unconfigured client")
	}
}
