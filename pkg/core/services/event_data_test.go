package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/session"
)

func TestEventData_GathersCountersAndSeries(t *testing.T) {
	hub, store, _ := newTestHub(t)
	store.Contacts = []db.Contact{
		{ID: "contact-1", EventID: "event-1", ContactedByMemberID: "member-1", FirstName: "Ama",
			Attended: true, CreatedAt: fixtureBase},
		{ID: "contact-2", EventID: "event-1", ContactedByMemberID: "member-2", FirstName: "Kojo",
			CreatedAt: fixtureBase.AddDate(0, 0, 1)},
	}

	result, err := EventData(context.Background(), hub, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Harvest Service", result.Event.Name)
	assert.Equal(t, 2, result.Event.TotalConfirmations)
	assert.Equal(t, 1, result.Event.TotalAttendees)
	assert.Len(t, result.ByBacenta, 3)
	require.Len(t, result.Cumulative, 2)
	assert.Equal(t, 2, result.Cumulative[1].Total)
}

func TestEventData_NoCurrentEvent(t *testing.T) {
	hub, _, sess := newTestHub(t)
	require.NoError(t, sess.Clear())

	_, err := EventData(context.Background(), hub, zap.NewNop())

	assert.ErrorIs(t, err, session.ErrNoCurrentEvent)
}

func TestFormatSummary_RendersCountersAndBacentaLines(t *testing.T) {
	achimota, burma := "Achimota", "Burma Camp"
	r := &EventDataResult{
		Event: db.Event{
			Name:                     "Harvest Service",
			TotalConfirmations:       12,
			TotalConfirmationsTarget: 50,
			TotalAttendees:           7,
			TotalAttendanceTarget:    40,
		},
		ByBacenta: []db.EventBacentaTarget{
			{BacentaName: &burma, TotalConfirmations: 5, ConfirmationsTarget: 20},
			{BacentaName: &achimota, TotalConfirmations: 6, ConfirmationsTarget: 20},
			{TotalConfirmations: 1, ConfirmationsTarget: 10},
		},
		Cumulative: []db.CumulativeConfirmation{
			{Day: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Total: 4},
			{Day: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), Total: 12},
		},
	}

	got := r.FormatSummary()

	want := "*Harvest Service*\n" +
		"Confirmations: 12/50\n" +
		"Attendance: 7/40\n" +
		"\n" +
		"*By bacenta*\n" +
		"Achimota: 6/20\n" +
		"Burma Camp: 5/20\n" +
		"No bacenta: 1/10\n" +
		"\n" +
		"Cumulative as of 02/05/2025: 12"
	assert.Equal(t, want, got)
}

func TestFormatSummary_OmitsEmptySections(t *testing.T) {
	r := &EventDataResult{Event: db.Event{Name: "Harvest Service"}}

	got := r.FormatSummary()

	assert.NotContains(t, got, "By bacenta")
	assert.NotContains(t, got, "Cumulative")
	assert.Contains(t, got, "Confirmations: 0/0")
}
