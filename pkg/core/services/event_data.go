package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// EventDataResult is the aggregate reporting view for the current event.
type EventDataResult struct {
	Event      db.Event
	ByBacenta  []db.EventBacentaTarget
	Cumulative []db.CumulativeConfirmation
}

// EventDataReader defines the resource reads the data view needs.
type EventDataReader interface {
	CurrentEvent() (*db.Event, error)
	Events(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Event, error)
	EventBacentaTargets(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.EventBacentaTarget, error)
	CumulativeConfirmations(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.CumulativeConfirmation, error)
}

// EventData gathers the current event's counters, per-bacenta aggregates,
// and the cumulative confirmation series.
func EventData(ctx context.Context, reader EventDataReader, logger *zap.Logger) (*EventDataResult, error) {
	current, err := reader.CurrentEvent()
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetching event data", zap.String("event_id", current.ID))

	result := &EventDataResult{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := reader.Events(gctx, query.Filter{
			Equals: map[string]any{"id": current.ID},
			Limit:  1,
		}, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch event: %w", err)
		}
		if len(events) == 0 {
			return fmt.Errorf("event %s: %w", current.ID, db.ErrNotFound)
		}
		result.Event = events[0]
		return nil
	})
	g.Go(func() error {
		var err error
		result.ByBacenta, err = reader.EventBacentaTargets(gctx, query.Filter{}, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch bacenta aggregates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		result.Cumulative, err = reader.CumulativeConfirmations(gctx, query.Filter{}, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch cumulative confirmations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// FormatSummary renders the event data as shareable text: headline counters
// against targets and per-bacenta confirmation lines sorted by name.
func (r *EventDataResult) FormatSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", r.Event.Name)
	fmt.Fprintf(&b, "Confirmations: %d/%d\n", r.Event.TotalConfirmations, r.Event.TotalConfirmationsTarget)
	fmt.Fprintf(&b, "Attendance: %d/%d\n", r.Event.TotalAttendees, r.Event.TotalAttendanceTarget)

	if len(r.ByBacenta) > 0 {
		b.WriteString("\n*By bacenta*\n")
		groups := make([]db.EventBacentaTarget, len(r.ByBacenta))
		copy(groups, r.ByBacenta)
		sort.Slice(groups, func(i, j int) bool {
			return bacentaGroupName(groups[i]) < bacentaGroupName(groups[j])
		})
		for _, g := range groups {
			fmt.Fprintf(&b, "%s: %d/%d\n", bacentaGroupName(g), g.TotalConfirmations, g.ConfirmationsTarget)
		}
	}

	if len(r.Cumulative) > 0 {
		latest := r.Cumulative[len(r.Cumulative)-1]
		fmt.Fprintf(&b, "\nCumulative as of %s: %d", latest.Day.Format("02/01/2006"), latest.Total)
	}
	return b.String()
}

func bacentaGroupName(g db.EventBacentaTarget) string {
	if g.BacentaName != nil {
		return *g.BacentaName
	}
	return "No bacenta"
}
