package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testGroup(createdBy string) *models.Group {
	return &models.Group{
		Name:                  "Savings Circle",
		Description:           "monthly pot",
		ContributionAmount:    decimal.NewFromInt(100),
		ContributionFrequency: models.FrequencyMonthly,
		MaxMembers:            5,
		TotalCycles:           5,
		CreatedBy:             createdBy,
	}
}

func TestUsers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID || byEmail.DisplayName != "Alice" {
		t.Errorf("unexpected user: %+v", byEmail)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("unexpected email: %s", byID.Email)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	dup := models.NewUser("alice@example.com", "Alice Again", "hash2")
	if err := store.CreateUser(ctx, dup); err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}

func TestCreateGroup_WithCreatorMembership(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	creator := &models.Membership{UserID: "alice", IsAdmin: true}
	if err := store.CreateGroup(ctx, group, creator); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if group.ID == "" {
		t.Fatal("expected generated group ID")
	}

	m, err := store.GetMembership(ctx, group.ID, "alice")
	if err != nil {
		t.Fatalf("GetMembership failed: %v", err)
	}
	if !m.IsAdmin {
		t.Error("expected creator membership to be admin")
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if !got.ContributionAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("contribution amount round trip: got %s", got.ContributionAmount)
	}
	if got.ContributionFrequency != models.FrequencyMonthly {
		t.Errorf("frequency round trip: got %s", got.ContributionFrequency)
	}
}

func TestListGroupsForUser(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := testGroup("alice")
	if err := store.CreateGroup(ctx, first, &models.Membership{UserID: "alice", IsAdmin: true}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	second := testGroup("bob")
	if err := store.CreateGroup(ctx, second, &models.Membership{UserID: "bob", IsAdmin: true}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := store.AddMember(ctx, &models.Membership{GroupID: second.ID, UserID: "alice"}); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	groups, err := store.ListGroupsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("expected 2 groups for alice, got %d", len(groups))
	}

	groups, err = store.ListGroupsForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 1 {
		t.Errorf("expected 1 group for bob, got %d", len(groups))
	}
}

func TestAddMember_DuplicateRejected(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	if err := store.CreateGroup(ctx, group, &models.Membership{UserID: "alice", IsAdmin: true}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	err := store.AddMember(ctx, &models.Membership{GroupID: group.ID, UserID: "alice"})
	if err == nil {
		t.Error("expected duplicate membership to be rejected")
	}
}

func TestListMembers_JoinOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	if err := store.CreateGroup(ctx, group, nil); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for i, id := range []string{"carol", "alice", "bob"} {
		m := &models.Membership{GroupID: group.ID, UserID: id, JoinedAt: int64(100 + i)}
		if err := store.AddMember(ctx, m); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}

	members, err := store.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	want := []string{"carol", "alice", "bob"}
	if len(members) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(members))
	}
	for i, m := range members {
		if m.UserID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], m.UserID)
		}
	}
}

func TestDeleteGroup_RemovesChildren(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	if err := store.CreateGroup(ctx, group, &models.Membership{UserID: "alice", IsAdmin: true}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	cycle := &models.Cycle{GroupID: group.ID, Number: 1, RecipientID: "alice", Status: models.CycleActive}
	payments := []*models.Payment{{PayerID: "alice", Amount: decimal.NewFromInt(100), Status: models.PaymentPending}}
	if err := store.CreateCycle(ctx, cycle, payments); err != nil {
		t.Fatalf("CreateCycle failed: %v", err)
	}
	notifications := []*models.Notification{{UserID: "alice", GroupID: group.ID, CycleID: cycle.ID, Message: "hi", Type: models.NotifyCycleStarted}}
	if err := store.CreateNotifications(ctx, notifications); err != nil {
		t.Fatalf("CreateNotifications failed: %v", err)
	}

	if err := store.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	if _, err := store.GetGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected group gone, got %v", err)
	}
	if _, err := store.GetCycle(ctx, cycle.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected cycle gone, got %v", err)
	}
	got, err := store.ListNotificationsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListNotificationsForUser failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected notifications gone, got %d", len(got))
	}
}

func TestCreateCycle_DuplicateNumberRejected(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	if err := store.CreateGroup(ctx, group, nil); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	first := &models.Cycle{GroupID: group.ID, Number: 1, RecipientID: "alice", Status: models.CycleActive}
	if err := store.CreateCycle(ctx, first, nil); err != nil {
		t.Fatalf("CreateCycle failed: %v", err)
	}
	dup := &models.Cycle{GroupID: group.ID, Number: 1, RecipientID: "bob", Status: models.CycleUpcoming}
	if err := store.CreateCycle(ctx, dup, nil); err == nil {
		t.Error("expected duplicate cycle number to be rejected")
	}
}

func TestTransitionCycleStatus_CompareAndSwap(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	if err := store.CreateGroup(ctx, group, nil); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	cycle := &models.Cycle{GroupID: group.ID, Number: 1, RecipientID: "alice", Status: models.CycleActive}
	if err := store.CreateCycle(ctx, cycle, nil); err != nil {
		t.Fatalf("CreateCycle failed: %v", err)
	}

	swapped, err := store.TransitionCycleStatus(ctx, cycle.ID, models.CycleActive, models.CycleCompleted)
	if err != nil {
		t.Fatalf("TransitionCycleStatus failed: %v", err)
	}
	if !swapped {
		t.Fatal("expected first swap to succeed")
	}

	// Second swap with the stale expectation loses.
	swapped, err = store.TransitionCycleStatus(ctx, cycle.ID, models.CycleActive, models.CycleCompleted)
	if err != nil {
		t.Fatalf("TransitionCycleStatus failed: %v", err)
	}
	if swapped {
		t.Error("expected stale swap to fail")
	}

	got, err := store.GetCycle(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if got.Status != models.CycleCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	if err := store.CreateGroup(ctx, group, nil); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	cycle := &models.Cycle{GroupID: group.ID, Number: 1, RecipientID: "alice", Status: models.CycleActive}
	payments := []*models.Payment{
		{PayerID: "alice", Amount: decimal.NewFromInt(100), Status: models.PaymentPending},
		{PayerID: "bob", Amount: decimal.NewFromInt(100), Status: models.PaymentPending},
	}
	if err := store.CreateCycle(ctx, cycle, payments); err != nil {
		t.Fatalf("CreateCycle failed: %v", err)
	}

	if err := store.UpdatePaymentStatus(ctx, payments[0].ID, models.PaymentPaid, 1700000000); err != nil {
		t.Fatalf("UpdatePaymentStatus failed: %v", err)
	}

	got, err := store.GetPayment(ctx, cycle.ID, "alice")
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if got.Status != models.PaymentPaid || got.PaymentDate != 1700000000 {
		t.Errorf("unexpected payment after update: %+v", got)
	}

	other, err := store.GetPayment(ctx, cycle.ID, "bob")
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if other.Status != models.PaymentPending {
		t.Errorf("expected bob untouched, got %s", other.Status)
	}

	if err := store.UpdatePaymentStatus(ctx, "missing", models.PaymentPaid, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPaymentsByGroup(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	group := testGroup("alice")
	if err := store.CreateGroup(ctx, group, nil); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for n := 1; n <= 2; n++ {
		cycle := &models.Cycle{GroupID: group.ID, Number: n, RecipientID: "alice", Status: models.CycleUpcoming}
		payments := []*models.Payment{
			{PayerID: "alice", Amount: decimal.NewFromInt(100), Status: models.PaymentPending},
			{PayerID: "bob", Amount: decimal.NewFromInt(100), Status: models.PaymentPending},
		}
		if err := store.CreateCycle(ctx, cycle, payments); err != nil {
			t.Fatalf("CreateCycle failed: %v", err)
		}
	}

	all, err := store.ListPaymentsByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListPaymentsByGroup failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 payments, got %d", len(all))
	}
}

func TestNotifications(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	batch := []*models.Notification{
		{UserID: "alice", GroupID: "g1", Message: "one", Type: models.NotifyCycleStarted},
		{UserID: "alice", GroupID: "g1", Message: "two", Type: models.NotifyPaymentReminder},
		{UserID: "bob", GroupID: "g1", Message: "three", Type: models.NotifyCycleStarted},
	}
	if err := store.CreateNotifications(ctx, batch); err != nil {
		t.Fatalf("CreateNotifications failed: %v", err)
	}

	alice, err := store.ListNotificationsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListNotificationsForUser failed: %v", err)
	}
	if len(alice) != 2 {
		t.Fatalf("expected 2 notifications for alice, got %d", len(alice))
	}

	t.Run("mark read scoped to owner", func(t *testing.T) {
		if err := store.MarkNotificationRead(ctx, alice[0].ID, "bob"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for wrong owner, got %v", err)
		}
		if err := store.MarkNotificationRead(ctx, alice[0].ID, "alice"); err != nil {
			t.Fatalf("MarkNotificationRead failed: %v", err)
		}
		got, err := store.ListNotificationsForUser(ctx, "alice")
		if err != nil {
			t.Fatalf("ListNotificationsForUser failed: %v", err)
		}
		read := 0
		for _, n := range got {
			if n.IsRead {
				read++
			}
		}
		if read != 1 {
			t.Errorf("expected 1 read notification, got %d", read)
		}
	})

	t.Run("mark all read", func(t *testing.T) {
		if err := store.MarkAllNotificationsRead(ctx, "alice"); err != nil {
			t.Fatalf("MarkAllNotificationsRead failed: %v", err)
		}
		got, err := store.ListNotificationsForUser(ctx, "alice")
		if err != nil {
			t.Fatalf("ListNotificationsForUser failed: %v", err)
		}
		for _, n := range got {
			if !n.IsRead {
				t.Errorf("notification %s still unread", n.ID)
			}
		}
		// bob's are untouched.
		bobs, err := store.ListNotificationsForUser(ctx, "bob")
		if err != nil {
			t.Fatalf("ListNotificationsForUser failed: %v", err)
		}
		if len(bobs) != 1 || bobs[0].IsRead {
			t.Errorf("expected bob's single notification unread, got %+v", bobs)
		}
	})

	t.Run("delete scoped to owner", func(t *testing.T) {
		if err := store.DeleteNotification(ctx, alice[0].ID, "bob"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound for wrong owner, got %v", err)
		}
		if err := store.DeleteNotification(ctx, alice[0].ID, "alice"); err != nil {
			t.Fatalf("DeleteNotification failed: %v", err)
		}
		got, err := store.ListNotificationsForUser(ctx, "alice")
		if err != nil {
			t.Fatalf("ListNotificationsForUser failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 notification left, got %d", len(got))
		}
	})
}
