package query

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Apply evaluates the filter against in-memory rows. Rows are structs whose
// columns are named by `db` struct tags. The evaluation is pure: the input
// slice is never mutated and the result is a fresh slice.
//
// Apply is the reference semantics for the filter language; the SQL
// translation in pkg/postgres must agree with it.
func Apply[T any](rows []T, f Filter) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if matches(row, f) {
			out = append(out, row)
		}
	}

	if len(f.OrderBy) > 0 {
		orderBy := f.OrderBy
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range orderBy {
				a := columnValue(out[i], o.Column)
				b := columnValue(out[j], o.Column)
				c := compareValues(a, b)
				if c == 0 {
					continue
				}
				if o.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func matches(row any, f Filter) bool {
	for column, want := range f.Equals {
		got := columnValue(row, column)
		if want == nil {
			if got != nil {
				return false
			}
			continue
		}
		if got == nil || !equalValues(got, normalize(want)) {
			return false
		}
	}

	for column, vals := range f.In {
		// Empty sets impose no constraint.
		if len(vals) == 0 {
			continue
		}
		got := columnValue(row, column)
		found := false
		for _, v := range vals {
			if got != nil && equalValues(got, normalize(v)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for column, pattern := range f.ILike {
		if pattern == "" {
			continue
		}
		got := columnValue(row, column)
		s, ok := got.(string)
		if !ok || !matchPattern(s, pattern) {
			return false
		}
	}

	for column, bounds := range f.Range {
		got := columnValue(row, column)
		if got == nil {
			return false
		}
		if bounds.GTE != nil && compareValues(got, normalize(bounds.GTE)) < 0 {
			return false
		}
		if bounds.LTE != nil && compareValues(got, normalize(bounds.LTE)) > 0 {
			return false
		}
	}

	return true
}

// columnValue extracts the value of the struct field tagged `db:"column"`.
// Nil pointers come back as untyped nil so NULL semantics work uniformly.
func columnValue(row any, column string) any {
	v := reflect.ValueOf(row)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == "" {
			continue
		}
		if comma := strings.IndexByte(tag, ','); comma >= 0 {
			tag = tag[:comma]
		}
		if tag != column {
			continue
		}
		return normalize(v.Field(i).Interface())
	}
	return nil
}

// normalize dereferences pointers and widens numeric kinds so values from
// different sources compare consistently.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

func equalValues(a, b any) bool {
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			return ta.Equal(tb)
		}
		return false
	}
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			return na == nb
		}
		return false
	}
	return a == b
}

// compareValues orders two normalized column values. Nil sorts after
// everything so incomplete rows land last regardless of direction.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	if ta, ok := toTime(a); ok {
		if tb, ok := toTime(b); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// matchPattern implements case-insensitive SQL LIKE matching with % and _
// wildcards.
func matchPattern(s, pattern string) bool {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
