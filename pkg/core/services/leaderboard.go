package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/filterstate"
	"github.com/kasoa/confirmation-tracker/pkg/query"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// LeaderboardRow is one member's standing against their confirmation target.
type LeaderboardRow struct {
	MemberID           string
	Name               string
	BacentaID          *string
	BacentaName        *string
	Confirmations      int
	Target             int
	Pct                float64
	LastConfirmationAt *time.Time
}

// LeaderboardReader defines the resource reads the leaderboard needs.
type LeaderboardReader interface {
	EventMemberTargets(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.EventMemberTargetWithNames, error)
	Contacts(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Contact, error)
}

// Leaderboard ranks members by confirmations against target for the current
// event, honoring the member/bacenta filters and sort mode in state.
func Leaderboard(ctx context.Context, reader LeaderboardReader, logger *zap.Logger, state filterstate.MembersState) ([]LeaderboardRow, error) {
	logger.Debug("Building leaderboard", zap.String("sort", state.Sort))

	var (
		targets  []db.EventMemberTargetWithNames
		contacts []db.Contact
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		targets, err = reader.EventMemberTargets(gctx, query.Filter{}, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch member targets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		contacts, err = reader.Contacts(gctx, query.Filter{
			OrderBy: []query.Order{
				{Column: "contacted_by_member_id", Ascending: true},
				{Column: "created_at", Ascending: false},
			},
			Limit: 1000,
		}, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch confirmations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Every contact row counts as a confirmation, so the marker is the
	// newest row per member regardless of confirmed status.
	lastByMember := make(map[string]time.Time)
	for _, c := range contacts {
		if existing, ok := lastByMember[c.ContactedByMemberID]; !ok || c.CreatedAt.After(existing) {
			lastByMember[c.ContactedByMemberID] = c.CreatedAt
		}
	}

	memberSet := toSet(state.MemberIDs)
	bacentaSet := toSet(state.BacentaIDs)

	var rows []LeaderboardRow
	for _, t := range targets {
		if len(memberSet) > 0 && !memberSet[t.MemberID] {
			continue
		}
		if len(bacentaSet) > 0 && (t.BacentaID == nil || !bacentaSet[*t.BacentaID]) {
			continue
		}
		row := LeaderboardRow{
			MemberID:      t.MemberID,
			Name:          t.MemberFullName,
			BacentaID:     t.BacentaID,
			BacentaName:   t.BacentaName,
			Confirmations: t.TotalConfirmations,
			Target:        t.ConfirmationsTarget,
		}
		if row.Target > 0 {
			row.Pct = float64(row.Confirmations) / float64(row.Target)
		}
		if last, ok := lastByMember[t.MemberID]; ok {
			lastCopy := last
			row.LastConfirmationAt = &lastCopy
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch state.Sort {
		case filterstate.SortPctAsc:
			return a.Pct < b.Pct
		case filterstate.SortNameAsc:
			return a.Name < b.Name
		case filterstate.SortNameDesc:
			return a.Name > b.Name
		case filterstate.SortConfAsc:
			return a.Confirmations < b.Confirmations
		case filterstate.SortConfDesc:
			return a.Confirmations > b.Confirmations
		default:
			return a.Pct > b.Pct
		}
	})
	return rows, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
