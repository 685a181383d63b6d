package query

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Bounds describes an inclusive range constraint on a single column.
// Either bound may be nil, meaning unbounded on that side. Values are
// time.Time or RFC3339 strings for timestamp columns.
type Bounds struct {
	GTE any
	LTE any
}

// Order describes a single sort directive.
type Order struct {
	Column    string
	Ascending bool
}

// Filter is a declarative description of a read query, shared across all
// resource fetchers. Missing fields impose no constraint.
//
// Semantics:
//   - Equals: exact match per column. A nil value means "column IS NULL",
//     not "equals the literal nil".
//   - In: set membership per column. An empty slice imposes no constraint
//     and is skipped entirely (it does NOT mean "match nothing").
//   - ILike: case-insensitive pattern match with % and _ wildcards, used
//     only for free-text columns.
//   - Range: inclusive {GTE, LTE} bounds, used for timestamp columns.
//   - OrderBy: applied left to right.
//   - Limit: zero means unlimited.
type Filter struct {
	Equals  map[string]any
	In      map[string][]any
	ILike   map[string]string
	Range   map[string]Bounds
	OrderBy []Order
	Limit   int
}

// HasEqual reports whether the filter pins an exact value (or explicit NULL)
// for the given column.
func (f Filter) HasEqual(column string) bool {
	_, ok := f.Equals[column]
	return ok
}

// Clone returns a deep copy of the filter. Mutating the copy never affects
// the original.
func (f Filter) Clone() Filter {
	out := Filter{Limit: f.Limit}
	if f.Equals != nil {
		out.Equals = make(map[string]any, len(f.Equals))
		for k, v := range f.Equals {
			out.Equals[k] = v
		}
	}
	if f.In != nil {
		out.In = make(map[string][]any, len(f.In))
		for k, v := range f.In {
			out.In[k] = append([]any(nil), v...)
		}
	}
	if f.ILike != nil {
		out.ILike = make(map[string]string, len(f.ILike))
		for k, v := range f.ILike {
			out.ILike[k] = v
		}
	}
	if f.Range != nil {
		out.Range = make(map[string]Bounds, len(f.Range))
		for k, v := range f.Range {
			out.Range[k] = v
		}
	}
	if f.OrderBy != nil {
		out.OrderBy = append([]Order(nil), f.OrderBy...)
	}
	return out
}

// WithEqual returns a copy of the filter with an additional exact-match
// constraint. Used by resource fetchers to scope queries to the current
// event without mutating the caller's filter.
func (f Filter) WithEqual(column string, value any) Filter {
	out := f.Clone()
	if out.Equals == nil {
		out.Equals = make(map[string]any, 1)
	}
	out.Equals[column] = value
	return out
}

// Key returns a canonical string identifying the filter. Structurally equal
// filters always produce identical keys, so the key is suitable for cache
// lookups and request de-duplication.
func (f Filter) Key() string {
	var b strings.Builder
	writeSection := func(name string, keys []string, write func(k string)) {
		if len(keys) == 0 {
			return
		}
		sort.Strings(keys)
		b.WriteString(name)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			write(k)
		}
		b.WriteByte('}')
	}

	writeSection("eq", mapKeys(f.Equals), func(k string) {
		fmt.Fprintf(&b, "%s=%s", k, formatValue(f.Equals[k]))
	})

	inKeys := make([]string, 0, len(f.In))
	for k, vals := range f.In {
		if len(vals) == 0 {
			continue
		}
		inKeys = append(inKeys, k)
	}
	writeSection("in", inKeys, func(k string) {
		fmt.Fprintf(&b, "%s=[", k)
		for i, v := range f.In[k] {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatValue(v))
		}
		b.WriteByte(']')
	})

	ilikeKeys := make([]string, 0, len(f.ILike))
	for k, pattern := range f.ILike {
		// An empty pattern imposes no constraint, same as an empty In set.
		if pattern == "" {
			continue
		}
		ilikeKeys = append(ilikeKeys, k)
	}
	writeSection("ilike", ilikeKeys, func(k string) {
		fmt.Fprintf(&b, "%s=%s", k, f.ILike[k])
	})

	writeSection("range", mapKeys(f.Range), func(k string) {
		r := f.Range[k]
		fmt.Fprintf(&b, "%s=%s..%s", k, formatValue(r.GTE), formatValue(r.LTE))
	})

	if len(f.OrderBy) > 0 {
		b.WriteString("order{")
		for i, o := range f.OrderBy {
			if i > 0 {
				b.WriteByte(',')
			}
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			fmt.Fprintf(&b, "%s %s", o.Column, dir)
		}
		b.WriteByte('}')
	}

	if f.Limit > 0 {
		fmt.Fprintf(&b, "limit=%d", f.Limit)
	}

	if b.Len() == 0 {
		return "all"
	}
	return b.String()
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "<null>"
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return "<null>"
		}
		return t.UTC().Format(time.RFC3339Nano)
	case *string:
		if t == nil {
			return "<null>"
		}
		return *t
	default:
		return fmt.Sprintf("%v", v)
	}
}
