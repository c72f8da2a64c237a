package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage/sqlite"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// seedGroup creates a group with the given members. The first member is the
// admin. JoinedAt is staggered so join order is deterministic.
func seedGroup(t *testing.T, store storage.Store, memberIDs []string, totalCycles int) *models.Group {
	t.Helper()
	ctx := context.Background()

	group := &models.Group{
		Name:                  "Family Circle",
		ContributionAmount:    decimal.NewFromInt(100),
		ContributionFrequency: models.FrequencyMonthly,
		MaxMembers:            10,
		TotalCycles:           totalCycles,
		CreatedBy:             memberIDs[0],
	}
	if err := store.CreateGroup(ctx, group, nil); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	for i, id := range memberIDs {
		m := &models.Membership{
			GroupID:  group.ID,
			UserID:   id,
			IsAdmin:  i == 0,
			JoinedAt: int64(1000 + i),
		}
		if err := store.AddMember(ctx, m); err != nil {
			t.Fatalf("failed to add member %s: %v", id, err)
		}
	}
	return group
}

func mustCreateCycle(t *testing.T, e *Engine, callerID, groupID, recipientID string) *models.Cycle {
	t.Helper()
	cycle, err := e.CreateCycle(context.Background(), callerID, groupID, recipientID, 1000, 2000)
	if err != nil {
		t.Fatalf("CreateCycle failed: %v", err)
	}
	return cycle
}

func payAll(t *testing.T, e *Engine, callerID, cycleID string, memberIDs []string) {
	t.Helper()
	for _, id := range memberIDs {
		if _, err := e.MarkPayment(context.Background(), callerID, cycleID, id, models.PaymentPaid); err != nil {
			t.Fatalf("MarkPayment(%s) failed: %v", id, err)
		}
	}
}

func countNotifications(t *testing.T, store storage.Store, userID string, typ models.NotificationType) int {
	t.Helper()
	notifications, err := store.ListNotificationsForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListNotificationsForUser failed: %v", err)
	}
	count := 0
	for _, n := range notifications {
		if n.Type == typ {
			count++
		}
	}
	return count
}

func TestCreateCycle_FirstCycleIsActive(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob", "carol"}
	group := seedGroup(t, store, members, 3)

	cycle := mustCreateCycle(t, engine, "alice", group.ID, "")

	if cycle.Status != models.CycleActive {
		t.Errorf("first cycle status: expected active, got %s", cycle.Status)
	}
	if cycle.Number != 1 {
		t.Errorf("first cycle number: expected 1, got %d", cycle.Number)
	}
	if cycle.RecipientID != "alice" {
		t.Errorf("suggested recipient: expected alice, got %s", cycle.RecipientID)
	}

	payments, err := store.ListPayments(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 3 {
		t.Fatalf("payments seeded: expected 3, got %d", len(payments))
	}
	for _, p := range payments {
		if p.Status != models.PaymentPending {
			t.Errorf("payment %s: expected pending, got %s", p.PayerID, p.Status)
		}
		if !p.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("payment %s: expected amount 100, got %s", p.PayerID, p.Amount)
		}
	}

	// First cycle activation bumps the group counter and announces itself.
	updated, err := store.GetGroup(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if updated.CurrentCycle != 1 {
		t.Errorf("current cycle: expected 1, got %d", updated.CurrentCycle)
	}
	for _, id := range members {
		if got := countNotifications(t, store, id, models.NotifyCycleStarted); got != 1 {
			t.Errorf("cycle_started notifications for %s: expected 1, got %d", id, got)
		}
	}
}

func TestCreateCycle_SubsequentCyclesAreUpcoming(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	group := seedGroup(t, store, []string{"alice", "bob"}, 4)

	mustCreateCycle(t, engine, "alice", group.ID, "")
	second := mustCreateCycle(t, engine, "alice", group.ID, "")
	third := mustCreateCycle(t, engine, "alice", group.ID, "")

	if second.Status != models.CycleUpcoming || third.Status != models.CycleUpcoming {
		t.Errorf("later cycles: expected upcoming, got %s and %s", second.Status, third.Status)
	}
	if second.Number != 2 || third.Number != 3 {
		t.Errorf("cycle numbers: expected 2 and 3, got %d and %d", second.Number, third.Number)
	}
}

func TestCreateCycle_NoMembers(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	ctx := context.Background()

	group := &models.Group{
		Name:                  "Empty",
		ContributionAmount:    decimal.NewFromInt(50),
		ContributionFrequency: models.FrequencyWeekly,
		MaxMembers:            5,
		TotalCycles:           5,
		CreatedBy:             "alice",
	}
	if err := store.CreateGroup(ctx, group, nil); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	_, err := engine.CreateCycle(ctx, "alice", group.ID, "", 0, 0)
	if !errors.Is(err, ErrNoMembers) {
		t.Errorf("expected ErrNoMembers, got %v", err)
	}
}

func TestCreateCycle_NonAdminRejected(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	group := seedGroup(t, store, []string{"alice", "bob"}, 3)

	_, err := engine.CreateCycle(context.Background(), "bob", group.ID, "", 0, 0)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}

	// Same answer for a caller with no membership at all.
	_, err = engine.CreateCycle(context.Background(), "mallory", group.ID, "", 0, 0)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("outsider: expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateCycle_RecipientMustBeMember(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	group := seedGroup(t, store, []string{"alice", "bob"}, 3)

	_, err := engine.CreateCycle(context.Background(), "alice", group.ID, "mallory", 0, 0)
	if !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}

	// An explicit member recipient overrides the suggestion freely.
	cycle := mustCreateCycle(t, engine, "alice", group.ID, "bob")
	if cycle.RecipientID != "bob" {
		t.Errorf("override recipient: expected bob, got %s", cycle.RecipientID)
	}
}

func TestCreateCycle_StopsAtTotalCycles(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	group := seedGroup(t, store, []string{"alice", "bob"}, 2)

	mustCreateCycle(t, engine, "alice", group.ID, "")
	mustCreateCycle(t, engine, "alice", group.ID, "")

	_, err := engine.CreateCycle(context.Background(), "alice", group.ID, "", 0, 0)
	if !errors.Is(err, ErrAllCyclesCreated) {
		t.Errorf("expected ErrAllCyclesCreated, got %v", err)
	}
}

func TestCompleteCycle_BlockedBelowFullCollection(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob", "carol"}
	group := seedGroup(t, store, members, 3)
	cycle := mustCreateCycle(t, engine, "alice", group.ID, "")

	// 2 of 3 paid.
	payAll(t, engine, "alice", cycle.ID, members[:2])

	_, err := engine.CompleteCycle(context.Background(), "alice", cycle.ID)
	if !errors.Is(err, ErrIncompleteCollection) {
		t.Fatalf("expected ErrIncompleteCollection, got %v", err)
	}

	// No state change, no completion notifications.
	got, err := store.GetCycle(context.Background(), cycle.ID)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if got.Status != models.CycleActive {
		t.Errorf("cycle status after rejected completion: expected active, got %s", got.Status)
	}
	if n := countNotifications(t, store, "alice", models.NotifyCycleCompleted); n != 0 {
		t.Errorf("expected 0 cycle_completed notifications, got %d", n)
	}
}

func TestCompleteCycle_PromotesNextAndNotifies(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob", "carol"}
	group := seedGroup(t, store, members, 3)

	first := mustCreateCycle(t, engine, "alice", group.ID, "")
	second := mustCreateCycle(t, engine, "alice", group.ID, "")

	payAll(t, engine, "alice", first.ID, members)

	completed, err := engine.CompleteCycle(context.Background(), "alice", first.ID)
	if err != nil {
		t.Fatalf("CompleteCycle failed: %v", err)
	}
	if completed.Status != models.CycleCompleted {
		t.Errorf("completed status: expected completed, got %s", completed.Status)
	}

	promoted, err := store.GetCycle(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if promoted.Status != models.CycleActive {
		t.Errorf("successor status: expected active, got %s", promoted.Status)
	}

	group2, err := store.GetGroup(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if group2.CurrentCycle != 2 {
		t.Errorf("current cycle: expected 2, got %d", group2.CurrentCycle)
	}

	// Exactly one cycle_completed and two cycle_started per member (the
	// first cycle announced itself on creation).
	for _, id := range members {
		if n := countNotifications(t, store, id, models.NotifyCycleCompleted); n != 1 {
			t.Errorf("cycle_completed for %s: expected 1, got %d", id, n)
		}
		if n := countNotifications(t, store, id, models.NotifyCycleStarted); n != 2 {
			t.Errorf("cycle_started for %s: expected 2, got %d", id, n)
		}
	}
}

func TestCompleteCycle_LastCycleLeavesNoActive(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob"}
	group := seedGroup(t, store, members, 1)
	cycle := mustCreateCycle(t, engine, "alice", group.ID, "")

	payAll(t, engine, "alice", cycle.ID, members)
	if _, err := engine.CompleteCycle(context.Background(), "alice", cycle.ID); err != nil {
		t.Fatalf("CompleteCycle failed: %v", err)
	}

	cycles, err := store.ListCycles(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("ListCycles failed: %v", err)
	}
	for _, c := range cycles {
		if c.Status == models.CycleActive {
			t.Errorf("cycle %d still active after final completion", c.Number)
		}
	}
}

func TestCompleteCycle_Permissions(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob", "carol"}
	group := seedGroup(t, store, members, 3)

	// Recipient bob via explicit override.
	cycle := mustCreateCycle(t, engine, "alice", group.ID, "bob")
	payAll(t, engine, "alice", cycle.ID, members)

	// carol is neither admin nor the active recipient.
	_, err := engine.CompleteCycle(context.Background(), "carol", cycle.ID)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for carol, got %v", err)
	}

	// A non-member is denied the same way, not reported as missing.
	_, err = engine.CompleteCycle(context.Background(), "mallory", cycle.ID)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for outsider, got %v", err)
	}

	// The active recipient may complete.
	if _, err := engine.CompleteCycle(context.Background(), "bob", cycle.ID); err != nil {
		t.Fatalf("CompleteCycle by recipient failed: %v", err)
	}
}

func TestCompleteCycle_NotActive(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob"}
	group := seedGroup(t, store, members, 3)

	mustCreateCycle(t, engine, "alice", group.ID, "")
	upcoming := mustCreateCycle(t, engine, "alice", group.ID, "")

	_, err := engine.CompleteCycle(context.Background(), "alice", upcoming.ID)
	if !errors.Is(err, ErrCycleNotActive) {
		t.Errorf("expected ErrCycleNotActive, got %v", err)
	}
}

func TestMarkPayment_Transitions(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	group := seedGroup(t, store, []string{"alice", "bob"}, 2)
	cycle := mustCreateCycle(t, engine, "alice", group.ID, "")
	ctx := context.Background()

	paid, err := engine.MarkPayment(ctx, "alice", cycle.ID, "bob", models.PaymentPaid)
	if err != nil {
		t.Fatalf("MarkPayment failed: %v", err)
	}
	if paid.Status != models.PaymentPaid {
		t.Errorf("expected paid, got %s", paid.Status)
	}
	if paid.PaymentDate == 0 {
		t.Error("expected payment date to be stamped")
	}

	// Reverting clears the timestamp.
	reverted, err := engine.MarkPayment(ctx, "alice", cycle.ID, "bob", models.PaymentPending)
	if err != nil {
		t.Fatalf("MarkPayment revert failed: %v", err)
	}
	if reverted.Status != models.PaymentPending {
		t.Errorf("expected pending, got %s", reverted.Status)
	}
	if reverted.PaymentDate != 0 {
		t.Errorf("expected cleared payment date, got %d", reverted.PaymentDate)
	}

	// Other payments are untouched.
	alice, err := store.GetPayment(ctx, cycle.ID, "alice")
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if alice.Status != models.PaymentPending {
		t.Errorf("alice's payment: expected pending, got %s", alice.Status)
	}
}

func TestMarkPayment_Rejections(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob", "carol"}
	group := seedGroup(t, store, members, 2)
	cycle := mustCreateCycle(t, engine, "alice", group.ID, "")
	ctx := context.Background()

	t.Run("non-admin non-recipient", func(t *testing.T) {
		_, err := engine.MarkPayment(ctx, "carol", cycle.ID, "carol", models.PaymentPaid)
		if !errors.Is(err, ErrPermissionDenied) {
			t.Errorf("expected ErrPermissionDenied, got %v", err)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := engine.MarkPayment(ctx, "alice", cycle.ID, "bob", "refunded")
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("expected ErrInvalidStatus, got %v", err)
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := engine.MarkPayment(ctx, "alice", cycle.ID, "mallory", models.PaymentPaid)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("completed cycle frozen", func(t *testing.T) {
		payAll(t, engine, "alice", cycle.ID, members)
		if _, err := engine.CompleteCycle(ctx, "alice", cycle.ID); err != nil {
			t.Fatalf("CompleteCycle failed: %v", err)
		}
		_, err := engine.MarkPayment(ctx, "alice", cycle.ID, "bob", models.PaymentPending)
		if !errors.Is(err, ErrCycleCompleted) {
			t.Errorf("expected ErrCycleCompleted, got %v", err)
		}
	})
}

func TestSendReminder(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob"}
	group := seedGroup(t, store, members, 2)
	cycle := mustCreateCycle(t, engine, "alice", group.ID, "")
	ctx := context.Background()

	notification, err := engine.SendReminder(ctx, "alice", cycle.ID, "bob")
	if err != nil {
		t.Fatalf("SendReminder failed: %v", err)
	}
	if notification.Type != models.NotifyPaymentReminder {
		t.Errorf("expected payment_reminder, got %s", notification.Type)
	}
	if notification.UserID != "bob" {
		t.Errorf("expected reminder targeted at bob, got %s", notification.UserID)
	}

	// Paid members are not reminded.
	if _, err := engine.MarkPayment(ctx, "alice", cycle.ID, "bob", models.PaymentPaid); err != nil {
		t.Fatalf("MarkPayment failed: %v", err)
	}
	_, err = engine.SendReminder(ctx, "alice", cycle.ID, "bob")
	if !errors.Is(err, ErrPaymentNotPending) {
		t.Errorf("expected ErrPaymentNotPending, got %v", err)
	}

	// Permission rule applies to reminders too.
	_, err = engine.SendReminder(ctx, "bob", cycle.ID, "alice")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSuggestNextRecipient_Rotation(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	members := []string{"alice", "bob", "carol"}
	group := seedGroup(t, store, members, 6)
	ctx := context.Background()

	// Fresh group: first member in join order.
	got, err := engine.SuggestNextRecipient(ctx, group.ID)
	if err != nil {
		t.Fatalf("SuggestNextRecipient failed: %v", err)
	}
	if got != "alice" {
		t.Errorf("expected alice, got %s", got)
	}

	mustCreateCycle(t, engine, "alice", group.ID, "")

	// alice has received; bob is next.
	got, err = engine.SuggestNextRecipient(ctx, group.ID)
	if err != nil {
		t.Fatalf("SuggestNextRecipient failed: %v", err)
	}
	if got != "bob" {
		t.Errorf("expected bob, got %s", got)
	}

	mustCreateCycle(t, engine, "alice", group.ID, "")
	mustCreateCycle(t, engine, "alice", group.ID, "")

	// Everyone has had a turn; rotation restarts with the earliest
	// cycle's recipient.
	got, err = engine.SuggestNextRecipient(ctx, group.ID)
	if err != nil {
		t.Fatalf("SuggestNextRecipient failed: %v", err)
	}
	if got != "alice" {
		t.Errorf("wraparound: expected alice, got %s", got)
	}
}

func TestSuggestNextRecipient_SingleMember(t *testing.T) {
	store := newTestStore(t)
	engine := New(store)
	group := seedGroup(t, store, []string{"alice"}, 3)

	got, err := engine.SuggestNextRecipient(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("SuggestNextRecipient failed: %v", err)
	}
	if got != "alice" {
		t.Errorf("expected alice, got %s", got)
	}
}
