package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/cache"
	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/memstore"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
	"github.com/kasoa/confirmation-tracker/pkg/session"
)

var fixtureBase = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

// newTestHub builds a hub over the seeded in-memory store with member-1 and
// event-1 selected.
func newTestHub(t *testing.T) (*resources.Hub, *memstore.Store, *session.Session) {
	t.Helper()
	store := memstore.New()
	store.Seed()

	sess, err := session.Load(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, sess.SetIdentity(
		&db.Member{ID: "member-1", FirstName: "Kofi", LastName: "Mensah", FullName: "Kofi Mensah"},
		&db.Event{ID: "event-1", Name: "Harvest Service"},
	))

	hub := resources.NewHub(store, cache.New(nil), sess, zap.NewNop())
	return hub, store, sess
}

func seedContacts(store *memstore.Store) {
	store.Contacts = []db.Contact{
		{ID: "contact-1", EventID: "event-1", ContactedByMemberID: "member-1", FirstName: "Ama", CreatedAt: fixtureBase, UpdatedAt: fixtureBase},
		{ID: "contact-2", EventID: "event-1", ContactedByMemberID: "member-2", FirstName: "Kojo", CreatedAt: fixtureBase.Add(time.Hour), UpdatedAt: fixtureBase.Add(time.Hour)},
		{ID: "contact-3", EventID: "event-1", ContactedByMemberID: "member-1", FirstName: "Adwoa", CreatedAt: fixtureBase.Add(2 * time.Hour), UpdatedAt: fixtureBase.Add(2 * time.Hour)},
	}
}

func timePtr(t time.Time) *time.Time { return &t }
