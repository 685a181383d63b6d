package filterstate

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasoa/confirmation-tracker/pkg/query"
)

func TestParseContacts_Defaults(t *testing.T) {
	st := ParseContacts(url.Values{})

	assert.Empty(t, st.MemberIDs)
	assert.Nil(t, st.From)
	assert.Nil(t, st.To)
	assert.Nil(t, st.FirstTimer)
	assert.Nil(t, st.Attended)
	assert.Equal(t, StatusAll, st.Status)
	assert.Equal(t, SortCreatedDesc, st.Sort)
	assert.False(t, st.ShowFilters)
}

func TestParseContacts_FullState(t *testing.T) {
	values, err := ParseQuery("?members=member-1,member-2&from=2025-05-01&to=2025-05-07&first_timer=true&attended=false&status=confirmed&sort=name_asc&filters=1&edit=contact-9")
	require.NoError(t, err)

	st := ParseContacts(values)

	assert.Equal(t, []string{"member-1", "member-2"}, st.MemberIDs)
	require.NotNil(t, st.From)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), *st.From)
	require.NotNil(t, st.FirstTimer)
	assert.True(t, *st.FirstTimer)
	require.NotNil(t, st.Attended)
	assert.False(t, *st.Attended)
	assert.Equal(t, StatusConfirmed, st.Status)
	assert.Equal(t, SortNameAsc, st.Sort)
	assert.True(t, st.ShowFilters)
	assert.Equal(t, "contact-9", st.EditID)
}

func TestParseContacts_MalformedValuesIgnored(t *testing.T) {
	st := ParseContacts(url.Values{
		"from":        {"not-a-date"},
		"first_timer": {"yes"},
		"status":      {"bogus"},
		"sort":        {"bogus"},
	})

	assert.Nil(t, st.From)
	assert.Nil(t, st.FirstTimer)
	assert.Equal(t, StatusAll, st.Status)
	assert.Equal(t, SortCreatedDesc, st.Sort)
}

func TestContactsState_ValuesRoundTrip(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	attended := true
	st := ContactsState{
		MemberIDs: []string{"member-1"},
		From:      &from,
		Attended:  &attended,
		Status:    StatusTransport,
		Sort:      SortNameDesc,
	}

	parsed := ParseContacts(st.Values())

	assert.Equal(t, st, parsed)
}

func TestContactsState_EmptyStateSerializesEmpty(t *testing.T) {
	st := ParseContacts(url.Values{})

	assert.Empty(t, st.Values().Encode())
}

func TestContactsState_FilterDerivation(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)
	firstTimer := true
	st := ContactsState{
		MemberIDs:  []string{"member-1", "member-2"},
		From:       &from,
		To:         &to,
		FirstTimer: &firstTimer,
		Sort:       SortCreatedDesc,
	}

	f := st.Filter()

	assert.Equal(t, []any{"member-1", "member-2"}, f.In["contacted_by_member_id"])
	assert.Equal(t, true, f.Equals["is_first_time"])
	bounds := f.Range["created_at"]
	assert.Equal(t, from, bounds.GTE)
	// The "to" day is included whole.
	assert.Equal(t, to.AddDate(0, 0, 1).Add(-time.Nanosecond), bounds.LTE)
	require.Len(t, f.OrderBy, 1)
	assert.Equal(t, query.Order{Column: "created_at", Ascending: false}, f.OrderBy[0])
}

func TestContactsState_FilterNameSortUsesBothNameColumns(t *testing.T) {
	f := ContactsState{Sort: SortNameAsc}.Filter()

	assert.Equal(t, []query.Order{
		{Column: "first_name", Ascending: true},
		{Column: "last_name", Ascending: true},
	}, f.OrderBy)
}

func TestParseTelepastoring_DateTimeWindow(t *testing.T) {
	values, err := ParseQuery("from_dt=2025-05-01T09:30&to_dt=2025-05-02T18:00&outcome=none")
	require.NoError(t, err)

	st := ParseTelepastoring(values)

	require.NotNil(t, st.FromDT)
	assert.Equal(t, time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC), *st.FromDT)
	require.NotNil(t, st.ToDT)
	assert.Equal(t, "none", st.Outcome)
}

func TestTelepastoringState_ValuesRoundTrip(t *testing.T) {
	fromDT := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	st := TelepastoringState{
		MemberIDs:   []string{"member-1"},
		FromDT:      &fromDT,
		Outcome:     "outcome-answered",
		ShowFilters: true,
	}

	parsed := ParseTelepastoring(st.Values())

	assert.Equal(t, st, parsed)
}

func TestTelepastoringState_CallsFilter(t *testing.T) {
	fromDT := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	st := TelepastoringState{
		MemberIDs: []string{"member-1"},
		FromDT:    &fromDT,
		Outcome:   "outcome-answered",
	}

	f := st.CallsFilter()

	assert.Equal(t, []any{"member-1"}, f.In["caller_member_id"])
	assert.Equal(t, "outcome-answered", f.Equals["outcome_id"])
	assert.Equal(t, fromDT, f.Range["call_timestamp"].GTE)
	assert.Equal(t, 5000, f.Limit)
	assert.Equal(t, []query.Order{{Column: "call_timestamp", Ascending: false}}, f.OrderBy)
}

func TestTelepastoringState_CallsFilterNoneOutcomeNotEncoded(t *testing.T) {
	f := TelepastoringState{Outcome: "none"}.CallsFilter()

	// "none" resolves client-side against contacts with zero matching calls.
	assert.Nil(t, f.Equals)
}

func TestParseMembers_Defaults(t *testing.T) {
	st := ParseMembers(url.Values{})

	assert.Equal(t, SortPctDesc, st.Sort)
	assert.Empty(t, st.MemberIDs)
	assert.Empty(t, st.BacentaIDs)
}

func TestMembersState_ValuesRoundTrip(t *testing.T) {
	st := MembersState{
		MemberIDs:  []string{"member-1", "member-3"},
		BacentaIDs: []string{"bacenta-a"},
		Sort:       SortConfDesc,
	}

	parsed := ParseMembers(st.Values())

	assert.Equal(t, st, parsed)
}

func TestParseQuery_RejectsMalformedEncoding(t *testing.T) {
	_, err := ParseQuery("members=%zz")

	assert.Error(t, err)
}

func TestSplitCSV_TrimsAndDropsEmpties(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a , b ,, "))
	assert.Nil(t, splitCSV(""))
	assert.Nil(t, splitCSV(" , "))
}
