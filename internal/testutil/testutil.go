// Package testutil provides shared test helpers: a fake record-store
// server speaking the Airtable list protocol and a controllable clock.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Record mirrors the wire shape of one store row.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// FakeStore is an in-memory record store behind an httptest server. It
// evaluates the filterByFormula subset the repositories emit, so tests
// exercise the same predicates production sends.
type FakeStore struct {
	Server *httptest.Server

	mu     sync.Mutex
	tables map[string][]Record
	fail   bool
	calls  int
}

// NewFakeStore starts a fake store. The server is shut down with the
// test.
func NewFakeStore(t *testing.T) *FakeStore {
	t.Helper()
	f := &FakeStore{tables: make(map[string][]Record)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL returns the value for the client's BaseURL setting.
func (f *FakeStore) BaseURL() string { return f.Server.URL }

// SetTable replaces the records of one table.
func (f *FakeStore) SetTable(table string, records []Record) {
	f.mu.Lock()
	f.tables[table] = records
	f.mu.Unlock()
}

// SetFail makes every subsequent request return HTTP 500.
func (f *FakeStore) SetFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

// Calls returns the number of list requests served so far.
func (f *FakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeStore) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.fail {
		http.Error(w, "upstream down", http.StatusInternalServerError)
		return
	}

	// Path shape: /{baseID}/{table}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	table := parts[len(parts)-1]
	records := f.tables[table]

	formula := r.URL.Query().Get("filterByFormula")
	out := []Record{}
	for _, rec := range records {
		if formula == "" || evalFormula(formula, rec.Fields) {
			out = append(out, rec)
		}
	}

	if maxStr := r.URL.Query().Get("maxRecords"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil && len(out) > max {
			out = out[:max]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"records": out})
}

// evalFormula evaluates the predicate subset the formula helpers build:
// equality, FIND, SEARCH, AND, OR.
func evalFormula(expr string, fields map[string]any) bool {
	expr = strings.TrimSpace(expr)

	switch {
	case strings.HasPrefix(expr, "AND(") && strings.HasSuffix(expr, ")"):
		for _, sub := range splitArgs(expr[4 : len(expr)-1]) {
			if !evalFormula(sub, fields) {
				return false
			}
		}
		return true

	case strings.HasPrefix(expr, "OR(") && strings.HasSuffix(expr, ")"):
		for _, sub := range splitArgs(expr[3 : len(expr)-1]) {
			if evalFormula(sub, fields) {
				return true
			}
		}
		return false

	case strings.HasPrefix(expr, "FIND("):
		needle, field, ok := parseNeedleField(expr[len("FIND("):])
		return ok && strings.Contains(fieldText(fields, field), needle)

	case strings.HasPrefix(expr, "SEARCH("):
		needle, field, ok := parseNeedleField(expr[len("SEARCH("):])
		return ok && strings.Contains(fieldText(fields, field), needle)
	}

	// {field} = "value"
	if strings.HasPrefix(expr, "{") {
		if end := strings.Index(expr, "}"); end > 0 {
			field := expr[1:end]
			rest := strings.TrimSpace(expr[end+1:])
			if strings.HasPrefix(rest, "=") {
				want := strings.Trim(strings.TrimSpace(rest[1:]), `"`)
				return fieldText(fields, field) == want
			}
		}
	}
	return false
}

// parseNeedleField parses `"needle", {field}) …` after a function name.
func parseNeedleField(rest string) (needle, field string, ok bool) {
	rest = strings.TrimPrefix(strings.TrimSpace(rest), `"`)
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", "", false
	}
	needle = rest[:end]
	rest = rest[end+1:]
	open := strings.Index(rest, "{")
	closing := strings.Index(rest, "}")
	if open < 0 || closing < open {
		return "", "", false
	}
	return needle, rest[open+1 : closing], true
}

// fieldText flattens a field value for substring matching, joining list
// values the way the store's formula engine does.
func fieldText(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// splitArgs splits a comma-separated argument list at the top nesting
// level, respecting parentheses and quoted strings.
func splitArgs(s string) []string {
	var out []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inString = !inString
		case '(':
			if !inString {
				depth++
			}
		case ')':
			if !inString {
				depth--
			}
		case ',':
			if !inString && depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

// Clock is a controllable time source for TTL tests.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{t: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
