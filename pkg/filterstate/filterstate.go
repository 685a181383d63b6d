// Package filterstate converts between URL-style query strings and typed
// list-view filter state. Every list view shares these codecs, so parsing,
// defaults, and canonical serialization live in one place and a filter
// selection round-trips losslessly (shareable/bookmarkable).
package filterstate

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kasoa/confirmation-tracker/pkg/query"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// Contact status filter values.
const (
	StatusAll         = "all"
	StatusConfirmed   = "confirmed"
	StatusUnconfirmed = "unconfirmed"
	StatusTransport   = "transport"
)

// Sort modes shared by the contacts list.
const (
	SortCreatedDesc = "created_desc"
	SortCreatedAsc  = "created_asc"
	SortNameAsc     = "name_asc"
	SortNameDesc    = "name_desc"
)

// Leaderboard sort modes.
const (
	SortPctDesc  = "pct_desc"
	SortPctAsc   = "pct_asc"
	SortConfDesc = "conf_desc"
	SortConfAsc  = "conf_asc"
)

// ContactsState is the contacts list view state: who contacted, creation
// date window, flag filters, status, sort, plus the modal markers carried in
// the query string.
type ContactsState struct {
	MemberIDs   []string
	From        *time.Time
	To          *time.Time
	FirstTimer  *bool
	Attended    *bool
	Status      string
	Sort        string
	ShowFilters bool
	EditID      string
}

// ParseContacts decodes the contacts list state from query parameters.
// Malformed values are ignored rather than fatal, the same forgiving
// treatment the query string always got.
func ParseContacts(values url.Values) ContactsState {
	st := ContactsState{
		MemberIDs:   splitCSV(values.Get("members")),
		From:        parseDate(values.Get("from")),
		To:          parseDate(values.Get("to")),
		FirstTimer:  parseBool(values.Get("first_timer")),
		Attended:    parseBool(values.Get("attended")),
		Status:      StatusAll,
		Sort:        SortCreatedDesc,
		ShowFilters: values.Get("filters") == "1",
		EditID:      values.Get("edit"),
	}
	switch values.Get("status") {
	case StatusConfirmed, StatusUnconfirmed, StatusTransport:
		st.Status = values.Get("status")
	}
	switch values.Get("sort") {
	case SortCreatedAsc, SortNameAsc, SortNameDesc:
		st.Sort = values.Get("sort")
	}
	return st
}

// Values serializes the state back to its canonical query parameters.
// Defaults are omitted so the canonical form of an empty state is empty.
func (st ContactsState) Values() url.Values {
	values := url.Values{}
	setCSV(values, "members", st.MemberIDs)
	setDate(values, "from", st.From)
	setDate(values, "to", st.To)
	setBool(values, "first_timer", st.FirstTimer)
	setBool(values, "attended", st.Attended)
	if st.Status != "" && st.Status != StatusAll {
		values.Set("status", st.Status)
	}
	if st.Sort != "" && st.Sort != SortCreatedDesc {
		values.Set("sort", st.Sort)
	}
	if st.ShowFilters {
		values.Set("filters", "1")
	}
	if st.EditID != "" {
		values.Set("edit", st.EditID)
	}
	return values
}

// Filter derives the effective backend query from the list state. Status
// filtering on confirmed_at/transport_arranged_at presence happens
// client-side (the columns' null-ness, not a boolean, is the status source
// of truth), so it is not encoded here.
func (st ContactsState) Filter() query.Filter {
	f := query.Filter{}
	if len(st.MemberIDs) > 0 {
		f.In = map[string][]any{"contacted_by_member_id": anySlice(st.MemberIDs)}
	}
	equals := map[string]any{}
	if st.FirstTimer != nil {
		equals["is_first_time"] = *st.FirstTimer
	}
	if st.Attended != nil {
		equals["attended"] = *st.Attended
	}
	if len(equals) > 0 {
		f.Equals = equals
	}
	if st.From != nil || st.To != nil {
		bounds := query.Bounds{}
		if st.From != nil {
			bounds.GTE = *st.From
		}
		if st.To != nil {
			// The "to" date is inclusive of the whole day.
			bounds.LTE = st.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.Range = map[string]query.Bounds{"created_at": bounds}
	}
	switch st.Sort {
	case SortCreatedAsc:
		f.OrderBy = []query.Order{{Column: "created_at", Ascending: true}}
	case SortNameAsc:
		f.OrderBy = []query.Order{
			{Column: "first_name", Ascending: true},
			{Column: "last_name", Ascending: true},
		}
	case SortNameDesc:
		f.OrderBy = []query.Order{
			{Column: "first_name", Ascending: false},
			{Column: "last_name", Ascending: false},
		}
	default:
		f.OrderBy = []query.Order{{Column: "created_at", Ascending: false}}
	}
	return f
}

// TelepastoringState is the telepastoring report view state.
type TelepastoringState struct {
	MemberIDs   []string
	FromDT      *time.Time
	ToDT        *time.Time
	Outcome     string // "" = all, "none" = not called, otherwise an outcome id
	ShowFilters bool
}

// ParseTelepastoring decodes the telepastoring state from query parameters.
func ParseTelepastoring(values url.Values) TelepastoringState {
	return TelepastoringState{
		MemberIDs:   splitCSV(values.Get("members")),
		FromDT:      parseDateTime(values.Get("from_dt")),
		ToDT:        parseDateTime(values.Get("to_dt")),
		Outcome:     values.Get("outcome"),
		ShowFilters: values.Get("filters") == "1",
	}
}

// Values serializes the state back to its canonical query parameters.
func (st TelepastoringState) Values() url.Values {
	values := url.Values{}
	setCSV(values, "members", st.MemberIDs)
	if st.FromDT != nil {
		values.Set("from_dt", st.FromDT.Format(dateTimeLayout))
	}
	if st.ToDT != nil {
		values.Set("to_dt", st.ToDT.Format(dateTimeLayout))
	}
	if st.Outcome != "" {
		values.Set("outcome", st.Outcome)
	}
	if st.ShowFilters {
		values.Set("filters", "1")
	}
	return values
}

// CallsFilter derives the calls query for the report: caller set, outcome
// (unless "none", which is resolved client-side against contacts), and the
// timestamp window.
func (st TelepastoringState) CallsFilter() query.Filter {
	f := query.Filter{
		OrderBy: []query.Order{{Column: "call_timestamp", Ascending: false}},
		Limit:   5000,
	}
	if len(st.MemberIDs) > 0 {
		f.In = map[string][]any{"caller_member_id": anySlice(st.MemberIDs)}
	}
	if st.Outcome != "" && st.Outcome != "none" {
		f.Equals = map[string]any{"outcome_id": st.Outcome}
	}
	if st.FromDT != nil || st.ToDT != nil {
		bounds := query.Bounds{}
		if st.FromDT != nil {
			bounds.GTE = *st.FromDT
		}
		if st.ToDT != nil {
			bounds.LTE = *st.ToDT
		}
		f.Range = map[string]query.Bounds{"call_timestamp": bounds}
	}
	return f
}

// MembersState is the leaderboard view state.
type MembersState struct {
	MemberIDs   []string
	BacentaIDs  []string
	Sort        string
	ShowFilters bool
}

// ParseMembers decodes the leaderboard state from query parameters.
func ParseMembers(values url.Values) MembersState {
	st := MembersState{
		MemberIDs:   splitCSV(values.Get("members")),
		BacentaIDs:  splitCSV(values.Get("bacentas")),
		Sort:        SortPctDesc,
		ShowFilters: values.Get("filters") == "1",
	}
	switch values.Get("sort") {
	case SortPctAsc, SortNameAsc, SortNameDesc, SortConfAsc, SortConfDesc:
		st.Sort = values.Get("sort")
	}
	return st
}

// Values serializes the state back to its canonical query parameters.
func (st MembersState) Values() url.Values {
	values := url.Values{}
	setCSV(values, "members", st.MemberIDs)
	setCSV(values, "bacentas", st.BacentaIDs)
	if st.Sort != "" && st.Sort != SortPctDesc {
		values.Set("sort", st.Sort)
	}
	if st.ShowFilters {
		values.Set("filters", "1")
	}
	return values
}

// ParseQuery decodes a raw query string (with or without a leading '?').
func ParseQuery(raw string) (url.Values, error) {
	raw = strings.TrimPrefix(raw, "?")
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter query: %w", err)
	}
	return values, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func setCSV(values url.Values, key string, ids []string) {
	if len(ids) > 0 {
		values.Set(key, strings.Join(ids, ","))
	}
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

func setDate(values url.Values, key string, t *time.Time) {
	if t != nil {
		values.Set(key, t.Format(dateLayout))
	}
}

func parseDateTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateTimeLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

func parseBool(raw string) *bool {
	switch raw {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func setBool(values url.Values, key string, v *bool) {
	if v != nil {
		values.Set(key, fmt.Sprintf("%t", *v))
	}
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
