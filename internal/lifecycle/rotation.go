package lifecycle

import (
	"context"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
)

// SuggestNextRecipient returns the user ID the rotation would pick for the
// group's next cycle. The suggestion is advisory: CreateCycle accepts any
// member as recipient.
func (e *Engine) SuggestNextRecipient(ctx context.Context, groupID string) (string, error) {
	members, err := e.store.ListMembers(ctx, groupID)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", ErrNoMembers
	}

	cycles, err := e.store.ListCycles(ctx, groupID)
	if err != nil {
		return "", err
	}

	return suggestRecipient(members, cycles), nil
}

// suggestRecipient picks the first member (in join order) who has never been
// a recipient. When everyone has received a payout, the rotation restarts
// with the recipient of the earliest cycle. members must be non-empty.
func suggestRecipient(members []*models.Membership, cycles []*models.Cycle) string {
	received := make(map[string]struct{}, len(cycles))
	for _, c := range cycles {
		received[c.RecipientID] = struct{}{}
	}

	for _, m := range members {
		if _, ok := received[m.UserID]; !ok {
			return m.UserID
		}
	}

	// Everyone has had a turn; cycles is non-empty here because received
	// covers all members. Cycles arrive ordered by number, so the first is
	// the chronologically earliest.
	return cycles[0].RecipientID
}

func isMember(members []*models.Membership, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
