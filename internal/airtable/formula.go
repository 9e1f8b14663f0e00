package airtable

import (
	"fmt"
	"strings"
)

// Formula helpers build the store's filter expression language. The
// exact textual syntax is confined to this file; repositories combine
// the helpers instead of concatenating strings.

func escape(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

// Eq builds a field-equality predicate: {field} = "value".
func Eq(field, value string) string {
	return fmt.Sprintf(`{%s} = "%s"`, field, escape(value))
}

// Find builds a substring-containment predicate against a linked-record
// field. The store matches against the linked record's primary display
// field, so the needle must be a display name, not an ID.
func Find(needle, field string) string {
	return fmt.Sprintf(`FIND("%s", {%s}) > 0`, escape(needle), field)
}

// Contains builds a substring predicate that is truthy when needle
// occurs anywhere in the field.
func Contains(needle, field string) string {
	return fmt.Sprintf(`SEARCH("%s", {%s})`, escape(needle), field)
}

// And combines predicates conjunctively.
func And(preds ...string) string {
	return "AND(" + strings.Join(preds, ", ") + ")"
}

// Or combines predicates disjunctively.
func Or(preds ...string) string {
	return "OR(" + strings.Join(preds, ", ") + ")"
}
