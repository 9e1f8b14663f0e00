package airtable

import (
	"fmt"
	"strconv"
)

// Record is one raw row from the external store: an opaque stable ID
// plus a loosely typed field bag. Values may be scalar, array, or
// absent depending on how the column is configured upstream.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Str coerces a field value to a string. Absent values become the empty
// string; array values collapse to their first element (the store wraps
// single-select lookups in one-element lists). Never fails.
func Str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		if len(t) == 0 {
			return ""
		}
		return Str(t[0])
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// StrList coerces a field value to a list of strings. Scalars become a
// one-element list, absent values become nil.
func StrList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := Str(e); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return []string{Str(t)}
	}
}

// Bool coerces a field value to a bool. Only a literal true counts;
// checkbox columns omit the field entirely when unchecked.
func Bool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// Str returns the named field coerced to a string.
func (r Record) Str(field string) string { return Str(r.Fields[field]) }

// StrList returns the named field coerced to a string list.
func (r Record) StrList(field string) []string { return StrList(r.Fields[field]) }

// Bool returns the named field coerced to a bool.
func (r Record) Bool(field string) bool { return Bool(r.Fields[field]) }
