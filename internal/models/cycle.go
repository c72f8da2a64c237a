package models

import "github.com/shopspring/decimal"

// CycleStatus is the lifecycle state of a cycle.
// Cycles move upcoming -> active -> completed and never backward.
type CycleStatus string

const (
	CycleUpcoming  CycleStatus = "upcoming"
	CycleActive    CycleStatus = "active"
	CycleCompleted CycleStatus = "completed"
)

// Cycle represents one payout round of a group.
// Invariants: at most one cycle per group is active at any time; numbers are
// contiguous starting at 1.
type Cycle struct {
	// ID is the unique identifier for the cycle (UUID format).
	ID string `json:"id"`

	// GroupID is the group this cycle belongs to.
	GroupID string `json:"group_id"`

	// Number is the cycle's sequence within the group, starting at 1.
	Number int `json:"cycle_number"`

	// RecipientID is the user ID of the member receiving the pot.
	RecipientID string `json:"recipient_id"`

	// StartDate and EndDate bound the contribution window (Unix seconds).
	StartDate int64 `json:"start_date"`
	EndDate   int64 `json:"end_date"`

	// Status is upcoming, active, or completed.
	Status CycleStatus `json:"status"`
}

// PaymentStatus is the binary state of a contribution.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment represents one member's contribution to one cycle.
// Exactly one payment exists per (cycle, member), seeded pending when the
// cycle is created.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string `json:"id"`

	// CycleID is the cycle this payment belongs to.
	CycleID string `json:"cycle_id"`

	// GroupID is denormalized for per-group queries.
	GroupID string `json:"group_id"`

	// PayerID is the contributing member's user ID.
	PayerID string `json:"payer_id"`

	// Amount equals the group's contribution amount at cycle creation.
	Amount decimal.Decimal `json:"amount"`

	// Status is pending or paid. There is no partial-payment concept.
	Status PaymentStatus `json:"status"`

	// PaymentDate is the Unix timestamp when the payment was marked paid,
	// zero while pending.
	PaymentDate int64 `json:"payment_date"`
}
