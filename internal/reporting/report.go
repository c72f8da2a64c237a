// Package reporting aggregates a group's cycles and payments into the
// summary figures shown on the dashboard and analytics views.
package reporting

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// MemberSummary is one member's contribution record across all cycles.
type MemberSummary struct {
	UserID          string          `json:"user_id"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	TotalOwed       decimal.Decimal `json:"total_owed"`
	PaymentsMade    int             `json:"payments_made"`
	PaymentsPending int             `json:"payments_pending"`
}

// GroupReport summarizes a group's progress and collections.
type GroupReport struct {
	GroupID         string          `json:"group_id"`
	CyclesCompleted int             `json:"cycles_completed"`
	CyclesUpcoming  int             `json:"cycles_upcoming"`
	TotalCycles     int             `json:"total_cycles"`
	TotalCollected  decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`

	// ActiveCycleNumber is zero when no cycle is active.
	ActiveCycleNumber    int     `json:"active_cycle_number"`
	ActiveCollectionRate float64 `json:"active_collection_rate"`

	Members []MemberSummary `json:"members"`
}

// BuildGroupReport computes the report from already-loaded rows. Pure so the
// aggregation is testable without a store.
func BuildGroupReport(group *models.Group, cycles []*models.Cycle, payments []*models.Payment) *GroupReport {
	report := &GroupReport{
		GroupID:          group.ID,
		TotalCycles:      group.TotalCycles,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}

	var activeCycleID string
	for _, c := range cycles {
		switch c.Status {
		case models.CycleCompleted:
			report.CyclesCompleted++
		case models.CycleUpcoming:
			report.CyclesUpcoming++
		case models.CycleActive:
			report.ActiveCycleNumber = c.Number
			activeCycleID = c.ID
		}
	}

	members := make(map[string]*MemberSummary)
	var activePaid, activeTotal int
	for _, p := range payments {
		m, ok := members[p.PayerID]
		if !ok {
			m = &MemberSummary{
				UserID:    p.PayerID,
				TotalPaid: decimal.Zero,
				TotalOwed: decimal.Zero,
			}
			members[p.PayerID] = m
		}

		if p.Status == models.PaymentPaid {
			m.TotalPaid = m.TotalPaid.Add(p.Amount)
			m.PaymentsMade++
			report.TotalCollected = report.TotalCollected.Add(p.Amount)
		} else {
			m.TotalOwed = m.TotalOwed.Add(p.Amount)
			m.PaymentsPending++
			report.TotalOutstanding = report.TotalOutstanding.Add(p.Amount)
		}

		if p.CycleID == activeCycleID {
			activeTotal++
			if p.Status == models.PaymentPaid {
				activePaid++
			}
		}
	}

	// Emit members in payment order (payments arrive sorted by payer).
	seen := make(map[string]struct{}, len(members))
	for _, p := range payments {
		if _, ok := seen[p.PayerID]; ok {
			continue
		}
		seen[p.PayerID] = struct{}{}
		report.Members = append(report.Members, *members[p.PayerID])
	}

	if activeTotal > 0 {
		report.ActiveCollectionRate = float64(activePaid) / float64(activeTotal)
	}
	return report
}

// Service loads the rows a report needs and builds it.
type Service struct {
	store storage.Store
}

// NewService creates a reporting service over the given store.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// GroupReport builds the report for one group.
func (s *Service) GroupReport(ctx context.Context, groupID string) (*GroupReport, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	cycles, err := s.store.ListCycles(ctx, groupID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return BuildGroupReport(group, cycles, payments), nil
}
