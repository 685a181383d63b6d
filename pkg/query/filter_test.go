package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey_EmptyFilter(t *testing.T) {
	assert.Equal(t, "all", Filter{}.Key())
}

func TestKey_StructurallyEqualFiltersMatch(t *testing.T) {
	a := Filter{
		Equals:  map[string]any{"event_id": "event-1", "attended": true},
		In:      map[string][]any{"contacted_by_member_id": {"member-1", "member-2"}},
		OrderBy: []Order{{Column: "created_at"}},
		Limit:   100,
	}
	b := Filter{
		Equals:  map[string]any{"attended": true, "event_id": "event-1"},
		In:      map[string][]any{"contacted_by_member_id": {"member-1", "member-2"}},
		OrderBy: []Order{{Column: "created_at"}},
		Limit:   100,
	}

	assert.Equal(t, a.Key(), b.Key())
}

func TestKey_DifferentFiltersDiffer(t *testing.T) {
	base := Filter{Equals: map[string]any{"event_id": "event-1"}}
	keys := map[string]bool{base.Key(): true}

	variants := []Filter{
		{Equals: map[string]any{"event_id": "event-2"}},
		{Equals: map[string]any{"event_id": "event-1", "attended": true}},
		{Equals: map[string]any{"event_id": "event-1"}, Limit: 10},
		{Equals: map[string]any{"event_id": "event-1"}, OrderBy: []Order{{Column: "created_at"}}},
		{Equals: map[string]any{"event_id": "event-1"}, OrderBy: []Order{{Column: "created_at", Ascending: true}}},
	}
	for _, f := range variants {
		k := f.Key()
		assert.False(t, keys[k], "key collision: %s", k)
		keys[k] = true
	}
}

func TestKey_EmptyInSetIgnored(t *testing.T) {
	with := Filter{In: map[string][]any{"outcome_id": {}}}
	without := Filter{}

	assert.Equal(t, without.Key(), with.Key())
}

func TestKey_EmptyILikePatternIgnored(t *testing.T) {
	with := Filter{ILike: map[string]string{"full_name": ""}}
	without := Filter{}

	assert.Equal(t, without.Key(), with.Key())
}

func TestKey_NilEqualsDistinctFromAbsent(t *testing.T) {
	pinned := Filter{Equals: map[string]any{"bacenta_id": nil}}

	assert.NotEqual(t, Filter{}.Key(), pinned.Key())
	assert.Contains(t, pinned.Key(), "<null>")
}

func TestClone_IndependentOfOriginal(t *testing.T) {
	orig := Filter{
		Equals: map[string]any{"event_id": "event-1"},
		In:     map[string][]any{"id": {"a", "b"}},
	}
	clone := orig.Clone()
	clone.Equals["event_id"] = "event-2"
	clone.In["id"][0] = "z"

	assert.Equal(t, "event-1", orig.Equals["event_id"])
	assert.Equal(t, "a", orig.In["id"][0])
}

func TestWithEqual_DoesNotMutateReceiver(t *testing.T) {
	orig := Filter{}
	scoped := orig.WithEqual("event_id", "event-1")

	assert.True(t, scoped.HasEqual("event_id"))
	assert.False(t, orig.HasEqual("event_id"))
}

type applyRow struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	EventID   string     `db:"event_id"`
	Attended  bool       `db:"attended"`
	Number    *string    `db:"contact_number"`
	CreatedAt time.Time  `db:"created_at"`
	DoneAt    *time.Time `db:"confirmed_at"`
}

func applyFixture() []applyRow {
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	num := "0201234567"
	done := base.Add(2 * time.Hour)
	return []applyRow{
		{ID: "1", Name: "Ama Darko", EventID: "event-1", Attended: true, Number: &num, CreatedAt: base, DoneAt: &done},
		{ID: "2", Name: "Kojo Antwi", EventID: "event-1", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Name: "Adwoa Safo", EventID: "event-2", Attended: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "4", Name: "Yaa Asantewaa", EventID: "event-1", CreatedAt: base.Add(3 * time.Hour)},
	}
}

func TestApply_EqualsMatch(t *testing.T) {
	out := Apply(applyFixture(), Filter{Equals: map[string]any{"event_id": "event-1", "attended": true}})

	if assert.Len(t, out, 1) {
		assert.Equal(t, "1", out[0].ID)
	}
}

func TestApply_EqualsNilMeansIsNull(t *testing.T) {
	out := Apply(applyFixture(), Filter{Equals: map[string]any{"contact_number": nil}})

	ids := []string{}
	for _, r := range out {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"2", "3", "4"}, ids)
}

func TestApply_EmptyInImposesNoConstraint(t *testing.T) {
	out := Apply(applyFixture(), Filter{In: map[string][]any{"id": {}}})

	assert.Len(t, out, 4)
}

func TestApply_InMatchesMembership(t *testing.T) {
	out := Apply(applyFixture(), Filter{In: map[string][]any{"id": {"2", "4"}}})

	assert.Len(t, out, 2)
}

func TestApply_ILikeWildcards(t *testing.T) {
	out := Apply(applyFixture(), Filter{ILike: map[string]string{"name": "%antw%"}})

	if assert.Len(t, out, 1) {
		assert.Equal(t, "Kojo Antwi", out[0].Name)
	}
}

func TestApply_ILikeIsCaseInsensitive(t *testing.T) {
	out := Apply(applyFixture(), Filter{ILike: map[string]string{"name": "ADWOA%"}})

	assert.Len(t, out, 1)
}

func TestApply_RangeInclusiveBounds(t *testing.T) {
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	f := Filter{Range: map[string]Bounds{"created_at": {
		GTE: base.Add(time.Hour),
		LTE: base.Add(2 * time.Hour),
	}}}

	out := Apply(applyFixture(), f)

	ids := []string{}
	for _, r := range out {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"2", "3"}, ids)
}

func TestApply_RangeExcludesNullColumn(t *testing.T) {
	f := Filter{Range: map[string]Bounds{"confirmed_at": {
		GTE: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}}

	out := Apply(applyFixture(), f)

	assert.Len(t, out, 1)
}

func TestApply_OrderByDescending(t *testing.T) {
	out := Apply(applyFixture(), Filter{OrderBy: []Order{{Column: "created_at"}}})

	assert.Equal(t, []string{"4", "3", "2", "1"}, rowIDs(out))
}

func TestApply_OrderByMultiColumn(t *testing.T) {
	rows := []applyRow{
		{ID: "b", EventID: "event-1", Name: "Beta"},
		{ID: "a", EventID: "event-2", Name: "Alpha"},
		{ID: "c", EventID: "event-1", Name: "Alpha"},
	}
	f := Filter{OrderBy: []Order{
		{Column: "event_id", Ascending: true},
		{Column: "name", Ascending: true},
	}}

	out := Apply(rows, f)

	assert.Equal(t, []string{"c", "b", "a"}, rowIDs(out))
}

func TestApply_LimitTruncates(t *testing.T) {
	out := Apply(applyFixture(), Filter{
		OrderBy: []Order{{Column: "created_at", Ascending: true}},
		Limit:   2,
	})

	assert.Equal(t, []string{"1", "2"}, rowIDs(out))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	rows := applyFixture()
	Apply(rows, Filter{OrderBy: []Order{{Column: "created_at"}}, Limit: 1})

	assert.Equal(t, []string{"1", "2", "3", "4"}, rowIDs(rows))
}

func rowIDs(rows []applyRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}
