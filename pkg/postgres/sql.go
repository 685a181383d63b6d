package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kasoa/confirmation-tracker/pkg/query"
)

// buildClauses translates a declarative filter into WHERE/ORDER BY/LIMIT SQL
// with positional args. allowed is the resource's column whitelist; filters
// naming any other column are rejected so dynamic row shapes can't leak in.
//
// The translation mirrors query.Apply exactly, including the empty-in-set
// rule: an empty In slice imposes no constraint.
func buildClauses(f query.Filter, allowed map[string]bool, argOffset int) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", argOffset+len(args))
	}

	for _, column := range sortedKeys(f.Equals) {
		if !allowed[column] {
			return "", nil, fmt.Errorf("unsupported filter column %q", column)
		}
		v := f.Equals[column]
		if v == nil {
			conds = append(conds, column+" IS NULL")
			continue
		}
		conds = append(conds, column+" = "+arg(v))
	}

	for _, column := range sortedKeys(f.In) {
		if !allowed[column] {
			return "", nil, fmt.Errorf("unsupported filter column %q", column)
		}
		vals := f.In[column]
		if len(vals) == 0 {
			continue
		}
		conds = append(conds, column+" = ANY("+arg(arrayArg(vals))+")")
	}

	for _, column := range sortedKeys(f.ILike) {
		if !allowed[column] {
			return "", nil, fmt.Errorf("unsupported filter column %q", column)
		}
		pattern := f.ILike[column]
		if pattern == "" {
			continue
		}
		conds = append(conds, column+" ILIKE "+arg(pattern))
	}

	for _, column := range sortedKeys(f.Range) {
		if !allowed[column] {
			return "", nil, fmt.Errorf("unsupported filter column %q", column)
		}
		bounds := f.Range[column]
		if bounds.GTE != nil {
			conds = append(conds, column+" >= "+arg(bounds.GTE))
		}
		if bounds.LTE != nil {
			conds = append(conds, column+" <= "+arg(bounds.LTE))
		}
	}

	var b strings.Builder
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if len(f.OrderBy) > 0 {
		dirs := make([]string, 0, len(f.OrderBy))
		for _, o := range f.OrderBy {
			if !allowed[o.Column] {
				return "", nil, fmt.Errorf("unsupported order column %q", o.Column)
			}
			dir := "DESC"
			if o.Ascending {
				dir = "ASC"
			}
			dirs = append(dirs, o.Column+" "+dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(dirs, ", "))
	}

	if f.Limit > 0 {
		b.WriteString(fmt.Sprintf(" LIMIT %d", f.Limit))
	}

	return b.String(), args, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic clause order keeps generated SQL stable across runs.
	sort.Strings(keys)
	return keys
}

// arrayArg gives pgx a concretely-typed slice where possible; []any with
// mixed element types will not encode as a Postgres array.
func arrayArg(vals []any) any {
	strs := make([]string, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			return vals
		}
		strs = append(strs, s)
	}
	return strs
}

func columns(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// qualify rewrites every column reference in the filter with a table alias
// prefix so clauses built for joined queries are unambiguous.
func qualify(alias string, f query.Filter) query.Filter {
	out := query.Filter{Limit: f.Limit}
	if len(f.Equals) > 0 {
		out.Equals = make(map[string]any, len(f.Equals))
		for k, v := range f.Equals {
			out.Equals[alias+"."+k] = v
		}
	}
	if len(f.In) > 0 {
		out.In = make(map[string][]any, len(f.In))
		for k, v := range f.In {
			out.In[alias+"."+k] = v
		}
	}
	if len(f.ILike) > 0 {
		out.ILike = make(map[string]string, len(f.ILike))
		for k, v := range f.ILike {
			out.ILike[alias+"."+k] = v
		}
	}
	if len(f.Range) > 0 {
		out.Range = make(map[string]query.Bounds, len(f.Range))
		for k, v := range f.Range {
			out.Range[alias+"."+k] = v
		}
	}
	for _, o := range f.OrderBy {
		out.OrderBy = append(out.OrderBy, query.Order{Column: alias + "." + o.Column, Ascending: o.Ascending})
	}
	return out
}

func qualifyColumns(alias string, allowed map[string]bool) map[string]bool {
	m := make(map[string]bool, len(allowed))
	for k := range allowed {
		m[alias+"."+k] = true
	}
	return m
}
