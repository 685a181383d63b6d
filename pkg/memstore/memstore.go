// Package memstore is an in-memory implementation of db.Store. It backs
// package tests and doubles as the reference fixture backend for the filter
// semantics: reads evaluate filters with query.Apply, so the SQL translation
// in pkg/postgres and this store must agree.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
)

// Store holds fixture rows. Aggregate views (event counters, member
// targets, cumulative series) are recomputed from the contact rows on every
// read, the way the backend's views are, so tests observe real convergence
// after mutations.
type Store struct {
	mu sync.Mutex

	Members       []db.Member
	Bacentas      []db.Bacenta
	Events        []db.Event
	Contacts      []db.Contact
	Calls         []db.Call
	Outcomes      []db.CallOutcome
	Visits        []db.Visit
	VisitVisitors []db.VisitVisitor
	VisitVisitees []db.VisitVisitee

	// TargetRows carries per-member targets; totals are recomputed on read.
	TargetRows []db.EventMemberTargetWithNames

	reads map[string]int

	// BeforeRead, when set, runs at the start of every read while the
	// store lock is NOT held. Tests use it to stall reads.
	BeforeRead func(table string)

	failures map[string]error
}

// New returns an empty store.
func New() *Store {
	return &Store{reads: make(map[string]int), failures: make(map[string]error)}
}

// ReadCount reports how many reads hit the given table since creation.
func (s *Store) ReadCount(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[table]
}

// FailNext makes the named operation fail once with err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) takeFailure(op string) error {
	err, ok := s.failures[op]
	if ok {
		delete(s.failures, op)
	}
	return err
}

func (s *Store) beginRead(ctx context.Context, table string) error {
	if hook := s.BeforeRead; hook != nil {
		hook(table)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads[table]++
	return s.takeFailure("Get" + table)
}

// GetMembers implements db.MemberStore.
func (s *Store) GetMembers(ctx context.Context, f query.Filter) ([]db.Member, error) {
	if err := s.beginRead(ctx, "members"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.Apply(s.Members, f), nil
}

// GetBacentas implements db.BacentaStore.
func (s *Store) GetBacentas(ctx context.Context, f query.Filter) ([]db.Bacenta, error) {
	if err := s.beginRead(ctx, "bacentas"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.Apply(s.Bacentas, f), nil
}

// GetEvents implements db.EventStore. Confirmation and attendance totals are
// recomputed from the contact rows.
func (s *Store) GetEvents(ctx context.Context, f query.Filter) ([]db.Event, error) {
	if err := s.beginRead(ctx, "events"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]db.Event, len(s.Events))
	copy(events, s.Events)
	for i := range events {
		total, attended := 0, 0
		for _, c := range s.Contacts {
			if c.EventID != events[i].ID {
				continue
			}
			total++
			if c.Attended {
				attended++
			}
		}
		events[i].TotalConfirmations = total
		events[i].TotalAttendees = attended
	}
	return query.Apply(events, f), nil
}

// GetContacts implements db.ContactStore.
func (s *Store) GetContacts(ctx context.Context, f query.Filter) ([]db.Contact, error) {
	if err := s.beginRead(ctx, "contacts"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.Apply(s.Contacts, f), nil
}

// GetContactByID implements db.ContactStore.
func (s *Store) GetContactByID(ctx context.Context, id string) (*db.Contact, error) {
	if err := s.beginRead(ctx, "contacts"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Contacts {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

// InsertContact implements db.ContactStore.
func (s *Store) InsertContact(ctx context.Context, input db.ContactInsert) (*db.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertContact"); err != nil {
		return nil, err
	}
	now := time.Now()
	contact := db.Contact{
		ID:                  uuid.New().String(),
		EventID:             input.EventID,
		ContactedByMemberID: input.ContactedByMemberID,
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		ContactNumber:       input.ContactNumber,
		Notes:               input.Notes,
		Attended:            input.Attended,
		IsFirstTime:         input.IsFirstTime,
		ConfirmedAt:         input.ConfirmedAt,
		TransportArrangedAt: input.TransportArrangedAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.Contacts = append(s.Contacts, contact)
	return &contact, nil
}

// UpdateContact implements db.ContactStore.
func (s *Store) UpdateContact(ctx context.Context, id string, updates db.ContactUpdate) (*db.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateContact"); err != nil {
		return nil, err
	}
	for i := range s.Contacts {
		if s.Contacts[i].ID != id {
			continue
		}
		c := &s.Contacts[i]
		c.FirstName = updates.FirstName
		c.LastName = updates.LastName
		c.ContactNumber = updates.ContactNumber
		c.Notes = updates.Notes
		c.Attended = updates.Attended
		c.IsFirstTime = updates.IsFirstTime
		c.ConfirmedAt = updates.ConfirmedAt
		c.TransportArrangedAt = updates.TransportArrangedAt
		c.UpdatedAt = time.Now()
		out := *c
		return &out, nil
	}
	return nil, db.ErrNotFound
}

// DeleteContact implements db.ContactStore.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteContact"); err != nil {
		return err
	}
	for i := range s.Contacts {
		if s.Contacts[i].ID == id {
			s.Contacts = append(s.Contacts[:i], s.Contacts[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

// GetCalls implements db.CallStore, expanding caller and outcome relations.
func (s *Store) GetCalls(ctx context.Context, f query.Filter) ([]db.CallWithRelations, error) {
	if err := s.beginRead(ctx, "calls"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := query.Apply(s.Calls, f)
	out := make([]db.CallWithRelations, 0, len(calls))
	for _, c := range calls {
		out = append(out, s.expandCall(c))
	}
	return out, nil
}

func (s *Store) expandCall(c db.Call) db.CallWithRelations {
	row := db.CallWithRelations{Call: c}
	for _, m := range s.Members {
		if m.ID == c.CallerMemberID {
			row.Caller = &db.MemberRef{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName, FullName: m.FullName}
			break
		}
	}
	if c.OutcomeID != nil {
		for _, o := range s.Outcomes {
			if o.ID == *c.OutcomeID {
				outcome := o
				row.Outcome = &outcome
				break
			}
		}
	}
	return row
}

// GetCallOutcomes implements db.CallStore.
func (s *Store) GetCallOutcomes(ctx context.Context) ([]db.CallOutcome, error) {
	if err := s.beginRead(ctx, "call_outcomes"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.CallOutcome, len(s.Outcomes))
	copy(out, s.Outcomes)
	return out, nil
}

// InsertCall implements db.CallStore.
func (s *Store) InsertCall(ctx context.Context, input db.CallInsert) (*db.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertCall"); err != nil {
		return nil, err
	}
	now := time.Now()
	call := db.Call{
		ID:              uuid.New().String(),
		CallerMemberID:  input.CallerMemberID,
		CalleeContactID: input.CalleeContactID,
		CallTimestamp:   input.CallTimestamp,
		OutcomeID:       input.OutcomeID,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.Calls = append(s.Calls, call)
	return &call, nil
}

// UpdateCall implements db.CallStore.
func (s *Store) UpdateCall(ctx context.Context, id string, updates db.CallUpdate) (*db.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateCall"); err != nil {
		return nil, err
	}
	for i := range s.Calls {
		if s.Calls[i].ID != id {
			continue
		}
		c := &s.Calls[i]
		c.CallTimestamp = updates.CallTimestamp
		c.OutcomeID = updates.OutcomeID
		c.Notes = updates.Notes
		c.UpdatedAt = time.Now()
		out := *c
		return &out, nil
	}
	return nil, db.ErrNotFound
}

// DeleteCall implements db.CallStore.
func (s *Store) DeleteCall(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteCall"); err != nil {
		return err
	}
	for i := range s.Calls {
		if s.Calls[i].ID == id {
			s.Calls = append(s.Calls[:i], s.Calls[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

// GetVisitsByContact implements db.VisitStore: visits linked to the contact,
// newest first, with visitor/visitee expansions.
func (s *Store) GetVisitsByContact(ctx context.Context, contactID string) ([]db.VisitWithRelations, error) {
	if err := s.beginRead(ctx, "visits"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	visitIDs := make(map[string]bool)
	for _, link := range s.VisitVisitees {
		if link.ContactID == contactID {
			visitIDs[link.VisitID] = true
		}
	}
	out := make([]db.VisitWithRelations, 0, len(visitIDs))
	for _, v := range s.Visits {
		if !visitIDs[v.ID] {
			continue
		}
		out = append(out, s.expandVisit(v))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VisitTimestamp.After(out[j].VisitTimestamp)
	})
	return out, nil
}

func (s *Store) expandVisit(v db.Visit) db.VisitWithRelations {
	row := db.VisitWithRelations{Visit: v}
	for _, link := range s.VisitVisitors {
		if link.VisitID != v.ID {
			continue
		}
		for _, m := range s.Members {
			if m.ID == link.MemberID {
				row.Visitors = append(row.Visitors, db.MemberRef{
					ID: m.ID, FirstName: m.FirstName, LastName: m.LastName, FullName: m.FullName,
				})
				break
			}
		}
	}
	for _, link := range s.VisitVisitees {
		if link.VisitID != v.ID {
			continue
		}
		for _, c := range s.Contacts {
			if c.ID == link.ContactID {
				row.Visitees = append(row.Visitees, db.ContactRef{
					ID: c.ID, FirstName: c.FirstName, LastName: c.LastName,
				})
				break
			}
		}
	}
	return row
}

// InsertVisit implements db.VisitStore.
func (s *Store) InsertVisit(ctx context.Context, input db.VisitInsert) (*db.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("InsertVisit"); err != nil {
		return nil, err
	}
	now := time.Now()
	visit := db.Visit{
		ID:             uuid.New().String(),
		VisitTimestamp: input.VisitTimestamp,
		Location:       input.Location,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.Visits = append(s.Visits, visit)
	return &visit, nil
}

// UpdateVisit implements db.VisitStore.
func (s *Store) UpdateVisit(ctx context.Context, id string, updates db.VisitUpdate) (*db.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpdateVisit"); err != nil {
		return nil, err
	}
	for i := range s.Visits {
		if s.Visits[i].ID != id {
			continue
		}
		v := &s.Visits[i]
		v.VisitTimestamp = updates.VisitTimestamp
		v.Location = updates.Location
		v.Notes = updates.Notes
		v.UpdatedAt = time.Now()
		out := *v
		return &out, nil
	}
	return nil, db.ErrNotFound
}

// DeleteVisit implements db.VisitStore. Link rows go first, as the foreign
// keys require.
func (s *Store) DeleteVisit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("DeleteVisit"); err != nil {
		return err
	}
	s.VisitVisitors = filterVisitorLinks(s.VisitVisitors, id)
	s.VisitVisitees = filterVisiteeLinks(s.VisitVisitees, id)
	for i := range s.Visits {
		if s.Visits[i].ID == id {
			s.Visits = append(s.Visits[:i], s.Visits[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

// ReplaceVisitVisitors implements db.VisitStore.
func (s *Store) ReplaceVisitVisitors(ctx context.Context, visitID string, memberIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("ReplaceVisitVisitors"); err != nil {
		return err
	}
	s.VisitVisitors = filterVisitorLinks(s.VisitVisitors, visitID)
	for _, memberID := range memberIDs {
		s.VisitVisitors = append(s.VisitVisitors, db.VisitVisitor{VisitID: visitID, MemberID: memberID})
	}
	return nil
}

// ReplaceVisitVisitees implements db.VisitStore.
func (s *Store) ReplaceVisitVisitees(ctx context.Context, visitID string, contactIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("ReplaceVisitVisitees"); err != nil {
		return err
	}
	s.VisitVisitees = filterVisiteeLinks(s.VisitVisitees, visitID)
	for _, contactID := range contactIDs {
		s.VisitVisitees = append(s.VisitVisitees, db.VisitVisitee{VisitID: visitID, ContactID: contactID})
	}
	return nil
}

func filterVisitorLinks(links []db.VisitVisitor, visitID string) []db.VisitVisitor {
	out := links[:0:0]
	for _, l := range links {
		if l.VisitID != visitID {
			out = append(out, l)
		}
	}
	return out
}

func filterVisiteeLinks(links []db.VisitVisitee, visitID string) []db.VisitVisitee {
	out := links[:0:0]
	for _, l := range links {
		if l.VisitID != visitID {
			out = append(out, l)
		}
	}
	return out
}

// GetEventMemberTargets implements db.TargetStore. Totals are recomputed
// from the contact rows; the stored rows carry the targets and names.
func (s *Store) GetEventMemberTargets(ctx context.Context, f query.Filter) ([]db.EventMemberTargetWithNames, error) {
	if err := s.beginRead(ctx, "event_member_targets"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	base := make([]db.EventMemberTarget, 0, len(s.TargetRows))
	names := make(map[string]db.EventMemberTargetWithNames, len(s.TargetRows))
	for _, row := range s.TargetRows {
		t := row.EventMemberTarget
		t.TotalConfirmations, t.TotalAttendees = 0, 0
		for _, c := range s.Contacts {
			if c.EventID != t.EventID || c.ContactedByMemberID != t.MemberID {
				continue
			}
			t.TotalConfirmations++
			if c.Attended {
				t.TotalAttendees++
			}
		}
		base = append(base, t)
		names[t.EventID+"/"+t.MemberID] = row
	}
	filtered := query.Apply(base, f)
	out := make([]db.EventMemberTargetWithNames, 0, len(filtered))
	for _, t := range filtered {
		row := names[t.EventID+"/"+t.MemberID]
		row.EventMemberTarget = t
		out = append(out, row)
	}
	return out, nil
}

// GetEventBacentaTargets implements db.TargetStore, aggregating the member
// target rows per bacenta.
func (s *Store) GetEventBacentaTargets(ctx context.Context, f query.Filter) ([]db.EventBacentaTarget, error) {
	rows, err := s.GetEventMemberTargets(ctx, query.Filter{})
	if err != nil {
		return nil, err
	}
	type key struct {
		event   string
		bacenta string
	}
	grouped := make(map[key]*db.EventBacentaTarget)
	order := make([]key, 0)
	for _, row := range rows {
		bid := ""
		if row.BacentaID != nil {
			bid = *row.BacentaID
		}
		k := key{event: row.EventID, bacenta: bid}
		agg, ok := grouped[k]
		if !ok {
			agg = &db.EventBacentaTarget{EventID: row.EventID, BacentaID: row.BacentaID, BacentaName: row.BacentaName}
			grouped[k] = agg
			order = append(order, k)
		}
		agg.ConfirmationsTarget += row.ConfirmationsTarget
		agg.AttendanceTarget += row.AttendanceTarget
		agg.TotalConfirmations += row.TotalConfirmations
		agg.TotalAttendees += row.TotalAttendees
	}
	out := make([]db.EventBacentaTarget, 0, len(grouped))
	for _, k := range order {
		out = append(out, *grouped[k])
	}
	return query.Apply(out, f), nil
}

// GetCumulativeConfirmations implements db.TargetStore, computing the
// per-day running totals from the contact rows.
func (s *Store) GetCumulativeConfirmations(ctx context.Context, f query.Filter) ([]db.CumulativeConfirmation, error) {
	if err := s.beginRead(ctx, "cumulative_confirmations"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	type key struct {
		event string
		day   time.Time
	}
	counts := make(map[key]int)
	for _, c := range s.Contacts {
		day := c.CreatedAt.UTC().Truncate(24 * time.Hour)
		counts[key{event: c.EventID, day: day}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].event != keys[j].event {
			return keys[i].event < keys[j].event
		}
		return keys[i].day.Before(keys[j].day)
	})
	out := make([]db.CumulativeConfirmation, 0, len(keys))
	running := make(map[string]int)
	for _, k := range keys {
		running[k.event] += counts[k]
		out = append(out, db.CumulativeConfirmation{EventID: k.event, Day: k.day, Total: running[k.event]})
	}
	return query.Apply(out, f), nil
}

// Seed fills the store with a small deterministic fixture used by examples
// and tests that do not need bespoke data.
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	bacentaA, bacentaB := "bacenta-a", "bacenta-b"
	s.Bacentas = []db.Bacenta{
		{ID: bacentaA, Name: "Achimota"},
		{ID: bacentaB, Name: "Burma Camp"},
	}
	s.Members = []db.Member{
		{ID: "member-1", FirstName: "Kofi", LastName: "Mensah", FullName: "Kofi Mensah", BacentaID: &bacentaA},
		{ID: "member-2", FirstName: "Esi", LastName: "Owusu", FullName: "Esi Owusu", BacentaID: &bacentaB},
		{ID: "member-3", FirstName: "Yaw", LastName: "Boateng", FullName: "Yaw Boateng"},
	}
	s.Events = []db.Event{
		{ID: "event-1", Name: "Harvest Service", EventTimestamp: base.AddDate(0, 1, 0), TotalConfirmationsTarget: 50, TotalAttendanceTarget: 40},
	}
	s.Outcomes = []db.CallOutcome{
		{ID: "outcome-answered", Description: "Answered", IsSuccessful: true},
		{ID: "outcome-no-answer", Description: "No answer", IsSuccessful: false},
	}
	s.TargetRows = []db.EventMemberTargetWithNames{
		{EventMemberTarget: db.EventMemberTarget{EventID: "event-1", MemberID: "member-1", ConfirmationsTarget: 20, AttendanceTarget: 15}, MemberFullName: "Kofi Mensah", BacentaID: &bacentaA, BacentaName: strPtr("Achimota")},
		{EventMemberTarget: db.EventMemberTarget{EventID: "event-1", MemberID: "member-2", ConfirmationsTarget: 20, AttendanceTarget: 15}, MemberFullName: "Esi Owusu", BacentaID: &bacentaB, BacentaName: strPtr("Burma Camp")},
		{EventMemberTarget: db.EventMemberTarget{EventID: "event-1", MemberID: "member-3", ConfirmationsTarget: 10, AttendanceTarget: 10}, MemberFullName: "Yaw Boateng"},
	}
}

func strPtr(s string) *string { return &s }
