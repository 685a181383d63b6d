package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// TimelineEntryKind tags a timeline entry as a call or a visit.
type TimelineEntryKind string

const (
	TimelineCall  TimelineEntryKind = "call"
	TimelineVisit TimelineEntryKind = "visit"
)

// TimelineEntry is one outreach interaction on a contact's history. Exactly
// one of Call or Visit is set, matching Kind.
type TimelineEntry struct {
	Kind      TimelineEntryKind
	Timestamp time.Time
	Call      *db.CallWithRelations
	Visit     *db.VisitWithRelations
}

// TimelineReader defines the resource reads the timeline needs.
type TimelineReader interface {
	CallsByContact(ctx context.Context, contactID string, opts resources.ReadOptions) ([]db.CallWithRelations, error)
	VisitsByContact(ctx context.Context, contactID string, opts resources.ReadOptions) ([]db.VisitWithRelations, error)
}

// ContactTimeline merges a contact's calls and visits into one list sorted
// by interaction timestamp, newest first.
func ContactTimeline(ctx context.Context, reader TimelineReader, logger *zap.Logger, contactID string) ([]TimelineEntry, error) {
	logger.Debug("Building contact timeline", zap.String("contact_id", contactID))

	var (
		calls  []db.CallWithRelations
		visits []db.VisitWithRelations
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		calls, err = reader.CallsByContact(gctx, contactID, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch calls: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		visits, err = reader.VisitsByContact(gctx, contactID, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch visits: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, 0, len(calls)+len(visits))
	for i := range calls {
		entries = append(entries, TimelineEntry{
			Kind:      TimelineCall,
			Timestamp: calls[i].CallTimestamp,
			Call:      &calls[i],
		})
	}
	for i := range visits {
		entries = append(entries, TimelineEntry{
			Kind:      TimelineVisit,
			Timestamp: visits[i].VisitTimestamp,
			Visit:     &visits[i],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	logger.Debug("Timeline built",
		zap.Int("calls", len(calls)),
		zap.Int("visits", len(visits)))
	return entries, nil
}
