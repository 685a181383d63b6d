package resources

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/cache"
	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/memstore"
	"github.com/kasoa/confirmation-tracker/pkg/query"
	"github.com/kasoa/confirmation-tracker/pkg/session"
)

func newTestHub(t *testing.T) (*Hub, *memstore.Store, *session.Session) {
	t.Helper()
	store := memstore.New()
	store.Seed()

	sess, err := session.Load(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, sess.SetIdentity(
		&db.Member{ID: "member-1", FirstName: "Kofi", LastName: "Mensah", FullName: "Kofi Mensah"},
		&db.Event{ID: "event-1", Name: "Harvest Service"},
	))

	hub := NewHub(store, cache.New(nil), sess, zap.NewNop())
	return hub, store, sess
}

func seedContacts(store *memstore.Store) {
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	store.Contacts = []db.Contact{
		{ID: "contact-1", EventID: "event-1", ContactedByMemberID: "member-1", FirstName: "Ama", CreatedAt: base, UpdatedAt: base},
		{ID: "contact-2", EventID: "event-1", ContactedByMemberID: "member-2", FirstName: "Kojo", CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "contact-3", EventID: "event-2", ContactedByMemberID: "member-1", FirstName: "Adwoa", CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}
}

func TestContacts_ScopedToCurrentEvent(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	out, err := hub.Contacts(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	require.Len(t, out, 2)
	for _, c := range out {
		assert.Equal(t, "event-1", c.EventID)
	}
}

func TestContacts_PinnedEventBypassesScoping(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	f := query.Filter{Equals: map[string]any{"event_id": "event-2"}}
	out, err := hub.Contacts(context.Background(), f, ReadOptions{})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "contact-3", out[0].ID)
}

func TestContacts_NoEventScopeReturnsEverything(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	out, err := hub.Contacts(context.Background(), query.Filter{}, ReadOptions{NoEventScope: true})
	require.NoError(t, err)

	assert.Len(t, out, 3)
}

func TestContacts_NoCurrentEventFailsScopedRead(t *testing.T) {
	hub, store, sess := newTestHub(t)
	seedContacts(store)
	require.NoError(t, sess.Clear())

	_, err := hub.Contacts(context.Background(), query.Filter{}, ReadOptions{})
	assert.ErrorIs(t, err, session.ErrNoCurrentEvent)
}

func TestContacts_RepeatedReadsServedFromCache(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	_, err := hub.Contacts(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	_, err = hub.Contacts(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, store.ReadCount("contacts"))
}

func TestContacts_StructurallyEqualFiltersShareOneEntry(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	a := query.Filter{Equals: map[string]any{"attended": false, "event_id": "event-1"}}
	b := query.Filter{Equals: map[string]any{"event_id": "event-1", "attended": false}}

	_, err := hub.Contacts(context.Background(), a, ReadOptions{})
	require.NoError(t, err)
	_, err = hub.Contacts(context.Background(), b, ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, store.ReadCount("contacts"))
}

func TestContacts_NegativeTTLForcesRefetch(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	_, err := hub.Contacts(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)
	_, err = hub.Contacts(context.Background(), query.Filter{}, ReadOptions{StaleTTL: -1})
	require.NoError(t, err)

	assert.Equal(t, 2, store.ReadCount("contacts"))
}

func TestContactByID_NotFound(t *testing.T) {
	hub, _, _ := newTestHub(t)

	_, err := hub.ContactByID(context.Background(), "missing", ReadOptions{})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCallOutcomes_CachedAcrossReads(t *testing.T) {
	hub, store, _ := newTestHub(t)

	first, err := hub.CallOutcomes(context.Background())
	require.NoError(t, err)
	second, err := hub.CallOutcomes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.ReadCount("call_outcomes"))
}

func TestEvents_CountersRecomputedFromContacts(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)
	store.Contacts[0].Attended = true

	events, err := hub.Events(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].TotalConfirmations)
	assert.Equal(t, 1, events[0].TotalAttendees)
}

func TestCumulativeConfirmations_DefaultsToDayAscending(t *testing.T) {
	hub, store, _ := newTestHub(t)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	store.Contacts = []db.Contact{
		{ID: "c1", EventID: "event-1", ContactedByMemberID: "member-1", FirstName: "A", CreatedAt: base},
		{ID: "c2", EventID: "event-1", ContactedByMemberID: "member-1", FirstName: "B", CreatedAt: base.AddDate(0, 0, 1)},
		{ID: "c3", EventID: "event-1", ContactedByMemberID: "member-2", FirstName: "C", CreatedAt: base.AddDate(0, 0, 1)},
	}

	series, err := hub.CumulativeConfirmations(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.True(t, series[0].Day.Before(series[1].Day))
	assert.Equal(t, 1, series[0].Total)
	assert.Equal(t, 3, series[1].Total)
}

func TestEventMemberTargets_ScopedAndRecomputed(t *testing.T) {
	hub, store, _ := newTestHub(t)
	seedContacts(store)

	targets, err := hub.EventMemberTargets(context.Background(), query.Filter{}, ReadOptions{})
	require.NoError(t, err)

	require.Len(t, targets, 3)
	byMember := map[string]db.EventMemberTargetWithNames{}
	for _, row := range targets {
		byMember[row.MemberID] = row
	}
	assert.Equal(t, 1, byMember["member-1"].TotalConfirmations)
	assert.Equal(t, 1, byMember["member-2"].TotalConfirmations)
	assert.Equal(t, 0, byMember["member-3"].TotalConfirmations)
}
