package models

import "github.com/shopspring/decimal"

// ContributionFrequency is how often members contribute to a group.
type ContributionFrequency string

const (
	FrequencyWeekly    ContributionFrequency = "weekly"
	FrequencyBiweekly  ContributionFrequency = "biweekly"
	FrequencyMonthly   ContributionFrequency = "monthly"
	FrequencyQuarterly ContributionFrequency = "quarterly"
)

// ValidFrequency reports whether f is one of the supported schedules.
func ValidFrequency(f ContributionFrequency) bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// Group represents a rotating savings group.
// Invariant: CurrentCycle never exceeds TotalCycles.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Description is an optional free-text description.
	Description string `json:"description"`

	// ContributionAmount is what each member pays per cycle.
	ContributionAmount decimal.Decimal `json:"contribution_amount"`

	// ContributionFrequency is the payout schedule (weekly, biweekly,
	// monthly, quarterly).
	ContributionFrequency ContributionFrequency `json:"contribution_frequency"`

	// MaxMembers caps how many members may join.
	MaxMembers int `json:"max_members"`

	// CurrentCycle is the number of the most recently activated cycle,
	// zero before the first cycle starts.
	CurrentCycle int `json:"current_cycle"`

	// TotalCycles is how many payout rounds the group will run.
	TotalCycles int `json:"total_cycles"`

	// CreatedBy is the user ID of the group creator.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// Membership links a user to a group.
// Invariant: each (group, user) pair is unique, and a live group always
// retains at least one admin membership.
type Membership struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string `json:"id"`

	// GroupID is the group this membership belongs to.
	GroupID string `json:"group_id"`

	// UserID is the member's user ID.
	UserID string `json:"user_id"`

	// IsAdmin grants permission to manage settings and lifecycle actions.
	IsAdmin bool `json:"is_admin"`

	// JoinedAt is the Unix timestamp when the user joined.
	JoinedAt int64 `json:"joined_at"`
}
