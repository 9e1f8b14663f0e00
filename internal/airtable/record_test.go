package airtable

import (
	"reflect"
	"testing"
)

func TestStrCoercions(t *testing.T) {
	r := Record{ID: "rec1", Fields: map[string]any{
		"plain":  "hello",
		"lookup": []any{"first", "second"},
		"num":    float64(42),
		"flag":   true,
		"empty":  []any{},
	}}

	if got := r.Str("plain"); got != "hello" {
		t.Errorf("Str(plain) = %q", got)
	}
	// Single-select lookups arrive wrapped in one-element lists.
	if got := r.Str("lookup"); got != "first" {
		t.Errorf("Str(lookup) = %q, want first element", got)
	}
	if got := r.Str("num"); got != "42" {
		t.Errorf("Str(num) = %q", got)
	}
	if got := r.Str("flag"); got != "true" {
		t.Errorf("Str(flag) = %q", got)
	}
	if got := r.Str("empty"); got != "" {
		t.Errorf("Str(empty) = %q, want empty", got)
	}
	if got := r.Str("absent"); got != "" {
		t.Errorf("Str(absent) = %q, want empty", got)
	}
}

func TestStrList(t *testing.T) {
	r := Record{Fields: map[string]any{
		"tags":   []any{"動物", "金運"},
		"scalar": "one",
	}}

	if got := r.StrList("tags"); !reflect.DeepEqual(got, []string{"動物", "金運"}) {
		t.Errorf("StrList(tags) = %v", got)
	}
	if got := r.StrList("scalar"); !reflect.DeepEqual(got, []string{"one"}) {
		t.Errorf("StrList(scalar) = %v", got)
	}
	if got := r.StrList("absent"); got != nil {
		t.Errorf("StrList(absent) = %v, want nil", got)
	}
}

func TestBoolOnlyLiteralTrue(t *testing.T) {
	r := Record{Fields: map[string]any{
		"checked": true,
		"text":    "true",
	}}
	if !r.Bool("checked") {
		t.Error("Bool(checked) = false")
	}
	// Checkbox columns omit the field when unchecked; strings never count.
	if r.Bool("text") || r.Bool("absent") {
		t.Error("Bool should only accept literal true")
	}
}
