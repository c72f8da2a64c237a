// Package lifecycle implements the cycle/payment business rules: recipient
// rotation, cycle creation and completion, payment status transitions, and
// the notifications emitted as side effects.
//
// All mutating operations share one authorization predicate, CanActOnCycle:
// the caller must be a group admin or the recipient of the group's currently
// active cycle. Completion uses a compare-and-swap at the store layer so two
// racing completions cannot both activate a successor cycle.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// Engine evaluates the lifecycle rules against a Store.
type Engine struct {
	store storage.Store
}

// New creates a lifecycle engine backed by the given store.
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// CanActOnCycle reports whether caller may mutate the given cycle: either an
// admin membership in the cycle's group, or being the recipient of the
// group's active cycle. Every mutating operation funnels through this one
// predicate. A caller with no membership at all is denied, not reported as
// missing.
func (e *Engine) CanActOnCycle(ctx context.Context, callerID string, cycle *models.Cycle) (bool, error) {
	membership, err := e.store.GetMembership(ctx, cycle.GroupID, callerID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if membership.IsAdmin {
		return true, nil
	}

	cycles, err := e.store.ListCycles(ctx, cycle.GroupID)
	if err != nil {
		return false, err
	}
	for _, c := range cycles {
		if c.Status == models.CycleActive {
			return c.RecipientID == callerID, nil
		}
	}
	return false, nil
}

// CreateCycle creates the next cycle for a group. Admin-only. recipientID may
// be empty, in which case the rotation suggestion is used; a non-empty
// recipient only has to be a member; the admin may override the suggestion
// freely. The group's first cycle is created active and announced; later
// cycles start upcoming. One pending payment per current member is seeded at
// the group's contribution amount.
func (e *Engine) CreateCycle(ctx context.Context, callerID, groupID, recipientID string, startDate, endDate int64) (*models.Cycle, error) {
	group, err := e.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := e.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	membership, err := e.store.GetMembership(ctx, groupID, callerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, err
	}
	if !membership.IsAdmin {
		return nil, ErrPermissionDenied
	}

	cycles, err := e.store.ListCycles(ctx, groupID)
	if err != nil {
		return nil, err
	}
	number := len(cycles) + 1
	if number > group.TotalCycles {
		return nil, ErrAllCyclesCreated
	}

	if recipientID == "" {
		recipientID = suggestRecipient(members, cycles)
	} else if !isMember(members, recipientID) {
		return nil, ErrNotMember
	}

	status := models.CycleUpcoming
	if number == 1 {
		status = models.CycleActive
	}

	cycle := &models.Cycle{
		GroupID:     groupID,
		Number:      number,
		RecipientID: recipientID,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      status,
	}
	payments := make([]*models.Payment, len(members))
	for i, m := range members {
		payments[i] = &models.Payment{
			PayerID: m.UserID,
			Amount:  group.ContributionAmount,
			Status:  models.PaymentPending,
		}
	}

	if err := e.store.CreateCycle(ctx, cycle, payments); err != nil {
		return nil, err
	}
	slog.Info("Cycle created",
		"group_id", groupID, "cycle_id", cycle.ID,
		"number", cycle.Number, "status", cycle.Status, "payments", len(payments))

	if status == models.CycleActive {
		group.CurrentCycle = number
		if err := e.store.UpdateGroup(ctx, group); err != nil {
			return nil, err
		}
		if err := e.broadcast(ctx, group, cycle, models.NotifyCycleStarted,
			fmt.Sprintf("Cycle %d of %s has started.", cycle.Number, group.Name)); err != nil {
			return nil, err
		}
	}

	return cycle, nil
}

// CompleteCycle transitions an active cycle to completed. It requires 100%
// payment collection, then promotes the earliest upcoming cycle to active.
// Exactly one cycle_completed broadcast is emitted, plus one cycle_started
// broadcast when a successor is promoted. A lost compare-and-swap aborts
// with ErrConflict before any side effect.
func (e *Engine) CompleteCycle(ctx context.Context, callerID, cycleID string) (*models.Cycle, error) {
	cycle, err := e.store.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	allowed, err := e.CanActOnCycle(ctx, callerID, cycle)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	if cycle.Status != models.CycleActive {
		return nil, ErrCycleNotActive
	}

	payments, err := e.store.ListPayments(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if p.Status != models.PaymentPaid {
			return nil, ErrIncompleteCollection
		}
	}

	swapped, err := e.store.TransitionCycleStatus(ctx, cycleID, models.CycleActive, models.CycleCompleted)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, ErrConflict
	}
	cycle.Status = models.CycleCompleted

	group, err := e.store.GetGroup(ctx, cycle.GroupID)
	if err != nil {
		return nil, err
	}
	if err := e.broadcast(ctx, group, cycle, models.NotifyCycleCompleted,
		fmt.Sprintf("Cycle %d of %s is complete. The pot has been paid out.", cycle.Number, group.Name)); err != nil {
		return nil, err
	}

	cycles, err := e.store.ListCycles(ctx, cycle.GroupID)
	if err != nil {
		return nil, err
	}
	for _, next := range cycles {
		if next.Status != models.CycleUpcoming {
			continue
		}
		swapped, err := e.store.TransitionCycleStatus(ctx, next.ID, models.CycleUpcoming, models.CycleActive)
		if err != nil {
			return nil, err
		}
		if swapped {
			group.CurrentCycle = next.Number
			if err := e.store.UpdateGroup(ctx, group); err != nil {
				return nil, err
			}
			next.Status = models.CycleActive
			if err := e.broadcast(ctx, group, next, models.NotifyCycleStarted,
				fmt.Sprintf("Cycle %d of %s has started.", next.Number, group.Name)); err != nil {
				return nil, err
			}
		}
		break
	}

	slog.Info("Cycle completed", "group_id", cycle.GroupID, "cycle_id", cycleID, "number", cycle.Number)
	return cycle, nil
}

// MarkPayment flips one member's payment between pending and paid. Paid
// stamps the current time; pending clears it. Completed cycles are frozen.
func (e *Engine) MarkPayment(ctx context.Context, callerID, cycleID, memberID string, status models.PaymentStatus) (*models.Payment, error) {
	if status != models.PaymentPending && status != models.PaymentPaid {
		return nil, ErrInvalidStatus
	}

	cycle, err := e.store.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	allowed, err := e.CanActOnCycle(ctx, callerID, cycle)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	if cycle.Status == models.CycleCompleted {
		return nil, ErrCycleCompleted
	}

	payment, err := e.store.GetPayment(ctx, cycleID, memberID)
	if err != nil {
		return nil, err
	}

	var paymentDate int64
	if status == models.PaymentPaid {
		paymentDate = time.Now().Unix()
	}
	if err := e.store.UpdatePaymentStatus(ctx, payment.ID, status, paymentDate); err != nil {
		return nil, err
	}
	payment.Status = status
	payment.PaymentDate = paymentDate

	slog.Info("Payment marked",
		"cycle_id", cycleID, "payer_id", memberID, "status", status)
	return payment, nil
}

// SendReminder emits one payment_reminder notification to a member whose
// payment in the cycle is still pending.
func (e *Engine) SendReminder(ctx context.Context, callerID, cycleID, memberID string) (*models.Notification, error) {
	cycle, err := e.store.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	allowed, err := e.CanActOnCycle(ctx, callerID, cycle)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	payment, err := e.store.GetPayment(ctx, cycleID, memberID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return nil, ErrPaymentNotPending
	}

	group, err := e.store.GetGroup(ctx, cycle.GroupID)
	if err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID:  memberID,
		GroupID: cycle.GroupID,
		CycleID: cycleID,
		Message: fmt.Sprintf("Reminder: your contribution of %s for cycle %d of %s is due.",
			payment.Amount.String(), cycle.Number, group.Name),
		Type: models.NotifyPaymentReminder,
	}
	if err := e.store.CreateNotifications(ctx, []*models.Notification{notification}); err != nil {
		return nil, err
	}

	slog.Info("Reminder sent", "cycle_id", cycleID, "payer_id", memberID)
	return notification, nil
}

// broadcast fans a lifecycle event out to one notification row per current
// member of the group.
func (e *Engine) broadcast(ctx context.Context, group *models.Group, cycle *models.Cycle, typ models.NotificationType, message string) error {
	members, err := e.store.ListMembers(ctx, group.ID)
	if err != nil {
		return err
	}

	notifications := make([]*models.Notification, len(members))
	for i, m := range members {
		notifications[i] = &models.Notification{
			UserID:  m.UserID,
			GroupID: group.ID,
			CycleID: cycle.ID,
			Message: message,
			Type:    typ,
		}
	}
	return e.store.CreateNotifications(ctx, notifications)
}
