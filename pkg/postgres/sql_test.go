package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasoa/confirmation-tracker/pkg/query"
)

var contactTestColumns = columns(
	"id", "event_id", "contacted_by_member_id", "first_name", "attended",
	"is_first_time", "confirmed_at", "created_at", "full_name",
)

func TestBuildClauses_EmptyFilter(t *testing.T) {
	sql, args, err := buildClauses(query.Filter{}, contactTestColumns, 0)
	require.NoError(t, err)

	assert.Empty(t, sql)
	assert.Empty(t, args)
}

func TestBuildClauses_EqualsAndOrder(t *testing.T) {
	f := query.Filter{
		Equals:  map[string]any{"event_id": "event-1", "attended": true},
		OrderBy: []query.Order{{Column: "created_at", Ascending: false}},
		Limit:   100,
	}

	sql, args, err := buildClauses(f, contactTestColumns, 0)
	require.NoError(t, err)

	// Equals clauses come out in sorted column order.
	assert.Equal(t, " WHERE attended = $1 AND event_id = $2 ORDER BY created_at DESC LIMIT 100", sql)
	assert.Equal(t, []any{true, "event-1"}, args)
}

func TestBuildClauses_NilEqualsIsNull(t *testing.T) {
	f := query.Filter{Equals: map[string]any{"confirmed_at": nil}}

	sql, args, err := buildClauses(f, contactTestColumns, 0)
	require.NoError(t, err)

	assert.Equal(t, " WHERE confirmed_at IS NULL", sql)
	assert.Empty(t, args)
}

func TestBuildClauses_InUsesAnyWithTypedArray(t *testing.T) {
	f := query.Filter{In: map[string][]any{"contacted_by_member_id": {"member-1", "member-2"}}}

	sql, args, err := buildClauses(f, contactTestColumns, 0)
	require.NoError(t, err)

	assert.Equal(t, " WHERE contacted_by_member_id = ANY($1)", sql)
	require.Len(t, args, 1)
	assert.Equal(t, []string{"member-1", "member-2"}, args[0])
}

func TestBuildClauses_EmptyInSkipped(t *testing.T) {
	f := query.Filter{In: map[string][]any{"contacted_by_member_id": {}}}

	sql, args, err := buildClauses(f, contactTestColumns, 0)
	require.NoError(t, err)

	assert.Empty(t, sql)
	assert.Empty(t, args)
}

func TestBuildClauses_ILike(t *testing.T) {
	f := query.Filter{ILike: map[string]string{"full_name": "%mensah%"}}

	sql, args, err := buildClauses(f, contactTestColumns, 0)
	require.NoError(t, err)

	assert.Equal(t, " WHERE full_name ILIKE $1", sql)
	assert.Equal(t, []any{"%mensah%"}, args)
}

func TestBuildClauses_RangeBounds(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 8, 0, 0, 0, 0, time.UTC)
	f := query.Filter{Range: map[string]query.Bounds{"created_at": {GTE: from, LTE: to}}}

	sql, args, err := buildClauses(f, contactTestColumns, 0)
	require.NoError(t, err)

	assert.Equal(t, " WHERE created_at >= $1 AND created_at <= $2", sql)
	assert.Equal(t, []any{from, to}, args)
}

func TestBuildClauses_ArgOffset(t *testing.T) {
	f := query.Filter{Equals: map[string]any{"event_id": "event-1"}}

	sql, args, err := buildClauses(f, contactTestColumns, 2)
	require.NoError(t, err)

	assert.Equal(t, " WHERE event_id = $3", sql)
	assert.Equal(t, []any{"event-1"}, args)
}

func TestBuildClauses_RejectsUnknownColumn(t *testing.T) {
	cases := []query.Filter{
		{Equals: map[string]any{"password": "x"}},
		{In: map[string][]any{"secret": {"x"}}},
		{ILike: map[string]string{"secret": "%x%"}},
		{Range: map[string]query.Bounds{"secret": {GTE: 1}}},
		{OrderBy: []query.Order{{Column: "secret"}}},
	}
	for _, f := range cases {
		_, _, err := buildClauses(f, contactTestColumns, 0)
		assert.ErrorContains(t, err, "unsupported")
	}
}

func TestBuildClauses_DeterministicAcrossRuns(t *testing.T) {
	f := query.Filter{
		Equals: map[string]any{"event_id": "event-1", "attended": true, "is_first_time": false},
	}

	first, _, err := buildClauses(f, contactTestColumns, 0)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		next, _, err := buildClauses(f, contactTestColumns, 0)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestQualify_PrefixesEveryColumn(t *testing.T) {
	f := query.Filter{
		Equals:  map[string]any{"outcome_id": "outcome-answered"},
		In:      map[string][]any{"caller_member_id": {"member-1"}},
		Range:   map[string]query.Bounds{"call_timestamp": {GTE: time.Now()}},
		OrderBy: []query.Order{{Column: "call_timestamp"}},
		Limit:   50,
	}

	q := qualify("c", f)

	assert.Contains(t, q.Equals, "c.outcome_id")
	assert.Contains(t, q.In, "c.caller_member_id")
	assert.Contains(t, q.Range, "c.call_timestamp")
	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, "c.call_timestamp", q.OrderBy[0].Column)
	assert.Equal(t, 50, q.Limit)
}

func TestQualify_BuildsValidClauses(t *testing.T) {
	f := query.Filter{
		Equals:  map[string]any{"outcome_id": "outcome-answered"},
		OrderBy: []query.Order{{Column: "call_timestamp", Ascending: false}},
	}
	allowed := qualifyColumns("c", columns("outcome_id", "call_timestamp"))

	sql, args, err := buildClauses(qualify("c", f), allowed, 0)
	require.NoError(t, err)

	assert.Equal(t, " WHERE c.outcome_id = $1 ORDER BY c.call_timestamp DESC", sql)
	assert.Equal(t, []any{"outcome-answered"}, args)
}

func TestArrayArg_MixedTypesLeftUntyped(t *testing.T) {
	vals := []any{"a", 1}

	assert.Equal(t, vals, arrayArg(vals))
	assert.Equal(t, []string{"a", "b"}, arrayArg([]any{"a", "b"}))
}
