package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kasoa/confirmation-tracker/pkg/db"
	"github.com/kasoa/confirmation-tracker/pkg/filterstate"
	"github.com/kasoa/confirmation-tracker/pkg/query"
	"github.com/kasoa/confirmation-tracker/pkg/resources"
)

// TelepastoringReader defines the resource reads the telepastoring report
// needs.
type TelepastoringReader interface {
	Contacts(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Contact, error)
	Calls(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.CallWithRelations, error)
	Members(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Member, error)
	Bacentas(ctx context.Context, f query.Filter, opts resources.ReadOptions) ([]db.Bacenta, error)
}

// TelepastoringResult is the computed report: the contacts matching the
// outcome filter plus the raw inputs the text summary is built from.
type TelepastoringResult struct {
	// Contacts is the outcome-filtered result list.
	Contacts []db.Contact
	// EventContacts is the unfiltered assignment pool for the current event
	// (restricted to the selected callers when a caller filter is active).
	EventContacts []db.Contact
	Calls         []db.CallWithRelations
	Members       []db.Member
	Bacentas      []db.Bacenta
	State         filterstate.TelepastoringState
}

// Telepastoring computes the outreach-coverage report for the current event.
// Contacts are scoped to the event and optionally to the selected callers;
// calls are filtered by caller, outcome, and time window. Outcome "none"
// inverts the match: it returns the contacts with zero matching calls.
func Telepastoring(ctx context.Context, reader TelepastoringReader, logger *zap.Logger, state filterstate.TelepastoringState) (*TelepastoringResult, error) {
	logger.Debug("Computing telepastoring report",
		zap.Int("callers", len(state.MemberIDs)),
		zap.String("outcome", state.Outcome))

	contactsFilter := query.Filter{
		OrderBy: []query.Order{{Column: "created_at", Ascending: false}},
		Limit:   1000,
	}
	if len(state.MemberIDs) > 0 {
		contactsFilter.In = map[string][]any{"contacted_by_member_id": anySlice(state.MemberIDs)}
	}

	var (
		contacts []db.Contact
		calls    []db.CallWithRelations
		members  []db.Member
		bacentas []db.Bacenta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = reader.Contacts(gctx, contactsFilter, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch contacts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		calls, err = reader.Calls(gctx, state.CallsFilter(), resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch calls: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		members, err = reader.Members(gctx, query.Filter{
			OrderBy: []query.Order{{Column: "full_name", Ascending: true}},
		}, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bacentas, err = reader.Bacentas(gctx, query.Filter{
			OrderBy: []query.Order{{Column: "name", Ascending: true}},
		}, resources.ReadOptions{})
		if err != nil {
			return fmt.Errorf("failed to fetch bacentas: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &TelepastoringResult{
		EventContacts: contacts,
		Calls:         calls,
		Members:       members,
		Bacentas:      bacentas,
		State:         state,
	}

	if state.Outcome == "none" {
		called := make(map[string]bool, len(calls))
		for _, call := range calls {
			called[call.CalleeContactID] = true
		}
		for _, c := range contacts {
			if !called[c.ID] {
				result.Contacts = append(result.Contacts, c)
			}
		}
		return result, nil
	}

	// Unique contacts with at least one matching call, preserving the
	// contacts list order.
	matched := make(map[string]bool, len(calls))
	for _, call := range calls {
		matched[call.CalleeContactID] = true
	}
	for _, c := range contacts {
		if matched[c.ID] {
			result.Contacts = append(result.Contacts, c)
		}
	}
	return result, nil
}

// DescribeSelection summarizes the caller selection for the report header:
// "All bacentas" when nothing (or everyone) is selected, bacenta names for
// fully selected bacentas, and individual names for the rest.
func (r *TelepastoringResult) DescribeSelection() string {
	if len(r.Members) == 0 {
		return "No selection"
	}
	if len(r.State.MemberIDs) == 0 || len(r.State.MemberIDs) == len(r.Members) {
		return "All bacentas"
	}

	bacentaNames := make(map[string]string, len(r.Bacentas))
	for _, b := range r.Bacentas {
		bacentaNames[b.ID] = b.Name
	}
	selected := make(map[string]bool, len(r.State.MemberIDs))
	for _, id := range r.State.MemberIDs {
		selected[id] = true
	}

	membersByBacenta := groupMembersByBacenta(r.Members, nil)
	var parts []string
	covered := make(map[string]bool)
	for _, group := range membersByBacenta {
		all := true
		for _, m := range group.members {
			if !selected[m.ID] {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		parts = append(parts, bacentaLabel(group.bacentaID, bacentaNames))
		for _, m := range group.members {
			covered[m.ID] = true
		}
	}
	for _, m := range r.Members {
		if selected[m.ID] && !covered[m.ID] {
			parts = append(parts, m.DisplayName())
		}
	}
	if len(parts) == 0 {
		return "Custom selection"
	}
	return strings.Join(parts, ", ")
}

// FormatCallData renders the report as shareable text: members grouped by
// bacenta (alphabetical, unassigned members under "No bacenta"), one
// "made/assigned" line per member, per-bacenta totals, and an overall total.
func (r *TelepastoringResult) FormatCallData(now time.Time) string {
	bacentaNames := make(map[string]string, len(r.Bacentas))
	for _, b := range r.Bacentas {
		bacentaNames[b.ID] = b.Name
	}

	selected := make(map[string]bool, len(r.State.MemberIDs))
	for _, id := range r.State.MemberIDs {
		selected[id] = true
	}
	include := func(m db.Member) bool {
		return len(selected) == 0 || selected[m.ID]
	}

	// The denominator counts every contact assigned to the member within the
	// event; the numerator counts the member's matching calls to those
	// contacts.
	assignedTo := make(map[string][]string) // member id -> contact ids
	contactOwner := make(map[string]string)
	for _, c := range r.EventContacts {
		assignedTo[c.ContactedByMemberID] = append(assignedTo[c.ContactedByMemberID], c.ID)
		contactOwner[c.ID] = c.ContactedByMemberID
	}
	made := make(map[string]int)
	for _, call := range r.Calls {
		if contactOwner[call.CalleeContactID] == call.CallerMemberID {
			made[call.CallerMemberID]++
		}
	}

	groups := groupMembersByBacenta(r.Members, include)
	sort.Slice(groups, func(i, j int) bool {
		return bacentaLabel(groups[i].bacentaID, bacentaNames) < bacentaLabel(groups[j].bacentaID, bacentaNames)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "*Telepastoring Calls*\n_As of %s at %s_\n\n",
		now.Format("02/01/2006"), now.Format("15:04"))
	fmt.Fprintf(&b, "Selection: %s\n\n", r.DescribeSelection())

	overallMade, overallAssigned := 0, 0
	for _, group := range groups {
		fmt.Fprintf(&b, "*%s*\n", bacentaLabel(group.bacentaID, bacentaNames))
		sort.Slice(group.members, func(i, j int) bool {
			return group.members[i].DisplayName() < group.members[j].DisplayName()
		})
		groupMade, groupAssigned := 0, 0
		for i, m := range group.members {
			memberMade := made[m.ID]
			memberAssigned := len(assignedTo[m.ID])
			fmt.Fprintf(&b, "%d. %s - %d/%d\n", i+1, m.DisplayName(), memberMade, memberAssigned)
			groupMade += memberMade
			groupAssigned += memberAssigned
		}
		fmt.Fprintf(&b, "Total - %d/%d\n\n", groupMade, groupAssigned)
		overallMade += groupMade
		overallAssigned += groupAssigned
	}
	fmt.Fprintf(&b, "*Overall Total - %d/%d*", overallMade, overallAssigned)
	return b.String()
}

type memberGroup struct {
	bacentaID *string
	members   []db.Member
}

func groupMembersByBacenta(members []db.Member, include func(db.Member) bool) []memberGroup {
	index := make(map[string]int)
	var groups []memberGroup
	for _, m := range members {
		if include != nil && !include(m) {
			continue
		}
		key := ""
		if m.BacentaID != nil {
			key = *m.BacentaID
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, memberGroup{bacentaID: m.BacentaID})
		}
		groups[i].members = append(groups[i].members, m)
	}
	return groups
}

func bacentaLabel(bacentaID *string, names map[string]string) string {
	if bacentaID == nil {
		return "No bacenta"
	}
	if name, ok := names[*bacentaID]; ok {
		return name
	}
	return "Unknown Bacenta"
}

func anySlice(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
