package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/query"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// LiveAttendanceResult is one snapshot of the live attendance view.
type LiveAttendanceResult struct {
	Attended int
	// Advanced is the denominator: contacts with transport arranged, the
	// set expected to show up.
	Advanced       int
	Percent        int
	RecentArrivals []db.Contact
	ByBacenta      []db.EventBacentaTarget
}

// LiveReader defines the resource reads the live view needs.
type LiveReader interface {
	Contacts(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Contact, error)
	EventBacentaTargets(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.EventBacentaTarget, error)
}

// LiveAttendance computes the attendance snapshot for the current event.
// Callers polling this should pass a negative StaleTTL through opts so every
// tick refetches.
func LiveAttendance(ctx context.Context, reader LiveReader, logger *zap.Logger, opts resources.ReadOptions) (*LiveAttendanceResult, error) {
	var (
		attended  []db.Contact
		advanced  []db.Contact
		recent    []db.Contact
		byBacenta []db.EventBacentaTarget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attended, err = reader.Contacts(gctx, query.Filter{
			Equals: map[string]any{"attended": true},
		}, opts)
		if err != nil {
			return fmt.Errorf("failed to fetch attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// The filter grammar has no "is not null" predicate, so the
		// transport-arranged subset is counted client-side.
		all, err := reader.Contacts(gctx, query.Filter{}, opts)
		if err != nil {
			return fmt.Errorf("failed to fetch advanced confirmations: %w", err)
		}
		for _, c := range all {
			if c.TransportArrangedAt != nil {
				advanced = append(advanced, c)
			}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = reader.Contacts(gctx, query.Filter{
			Equals:  map[string]any{"attended": true},
			OrderBy: []query.Order{{Column: "created_at", Ascending: false}},
			Limit:   5,
		}, opts)
		if err != nil {
			return fmt.Errorf("failed to fetch recent arrivals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		byBacenta, err = reader.EventBacentaTargets(gctx, query.Filter{}, opts)
		if err != nil {
			return fmt.Errorf("failed to fetch bacenta attendance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &LiveAttendanceResult{
		Attended:       len(attended),
		Advanced:       len(advanced),
		RecentArrivals: recent,
		ByBacenta:      byBacenta,
	}
	if result.Advanced > 0 {
		// Rounded to the nearest whole percent, capped at 100 for walk-ins.
		pct := (result.Attended*100 + result.Advanced/2) / result.Advanced
		if pct > 100 {
			pct = 100
		}
		result.Percent = pct
	}

	logger.Debug("Live attendance computed",
		zap.Int("attended", result.Attended),
		zap.Int("advanced", result.Advanced))
	return result, nil
}
