package lifecycle

import "errors"

// Sentinel errors for the lifecycle rules. The HTTP layer maps these to
// status codes; everything else is surfaced as a store failure.
var (
	// ErrPermissionDenied rejects a caller who is neither a group admin nor
	// the recipient of the group's active cycle.
	ErrPermissionDenied = errors.New("caller is neither a group admin nor the active cycle recipient")

	// ErrNoMembers rejects cycle creation for a memberless group.
	ErrNoMembers = errors.New("group has no members")

	// ErrNotMember rejects a recipient who does not belong to the group.
	ErrNotMember = errors.New("recipient is not a member of the group")

	// ErrAllCyclesCreated rejects cycle creation past the group's total.
	ErrAllCyclesCreated = errors.New("group already has its full count of cycles")

	// ErrCycleNotActive rejects completing a cycle that is not active.
	ErrCycleNotActive = errors.New("cycle is not active")

	// ErrCycleCompleted rejects payment changes on a completed cycle.
	ErrCycleCompleted = errors.New("cycle is already completed")

	// ErrIncompleteCollection blocks completion below 100% collection.
	ErrIncompleteCollection = errors.New("cycle has unpaid contributions")

	// ErrPaymentNotPending rejects a reminder for an already-paid member.
	ErrPaymentNotPending = errors.New("payment is not pending")

	// ErrInvalidStatus rejects a payment status outside pending/paid.
	ErrInvalidStatus = errors.New("invalid payment status")

	// ErrConflict reports a lost compare-and-swap: another caller changed
	// the cycle between the read and the write. No side effects happened.
	ErrConflict = errors.New("cycle was modified concurrently")
)

// IsValidation reports whether err is one of the request-shaped failures
// (as opposed to permission, conflict, or storage failures).
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNoMembers, ErrNotMember, ErrAllCyclesCreated, ErrCycleNotActive,
		ErrCycleCompleted, ErrIncompleteCollection, ErrPaymentNotPending,
		ErrInvalidStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
