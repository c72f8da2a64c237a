// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
// Implementations wrap it with detail; callers match with errors.Is.
var ErrNotFound = errors.New("not found")

// Store defines the single persistence interface consumed by the services
// and the lifecycle engine. This abstraction allows swapping storage
// backends (SQLite, PostgreSQL, a hosted table service) without changing
// the business rules layered on top.
//
// Every mutation publishes a ChangeEvent on Events() after it is durably
// committed.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Groups. CreateGroup also inserts the creator's admin membership in
	// the same transaction. DeleteGroup removes all dependent rows
	// (payments, cycles, notifications, memberships) child-first in one
	// transaction.
	CreateGroup(ctx context.Context, group *models.Group, creator *models.Membership) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, groupID string) error

	// Memberships. ListMembers returns rows in join order (oldest first),
	// which the recipient rotation depends on.
	AddMember(ctx context.Context, m *models.Membership) error
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)
	ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error)
	UpdateMembership(ctx context.Context, m *models.Membership) error
	RemoveMember(ctx context.Context, groupID, userID string) error

	// Cycles. CreateCycle inserts the cycle and its seeded payments in one
	// transaction. ListCycles returns rows ordered by cycle number.
	// TransitionCycleStatus performs a compare-and-swap: the status moves
	// from "from" to "to" only if it still equals "from", and the return
	// value reports whether a row actually changed.
	CreateCycle(ctx context.Context, cycle *models.Cycle, payments []*models.Payment) error
	GetCycle(ctx context.Context, cycleID string) (*models.Cycle, error)
	ListCycles(ctx context.Context, groupID string) ([]*models.Cycle, error)
	TransitionCycleStatus(ctx context.Context, cycleID string, from, to models.CycleStatus) (bool, error)

	// Payments.
	GetPayment(ctx context.Context, cycleID, payerID string) (*models.Payment, error)
	ListPayments(ctx context.Context, cycleID string) ([]*models.Payment, error)
	ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus, paymentDate int64) error

	// Notifications. CreateNotifications inserts the batch in one
	// transaction (a broadcast fans out to one row per member).
	CreateNotifications(ctx context.Context, notifications []*models.Notification) error
	ListNotificationsForUser(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, notificationID, userID string) error

	// Events returns the change bus carrying post-commit mutation events.
	Events() *Bus

	// Close releases any resources held by the store.
	Close() error
}
