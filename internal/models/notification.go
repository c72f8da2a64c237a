package models

// NotificationType classifies what lifecycle event produced a notification.
type NotificationType string

const (
	NotifyPaymentReminder NotificationType = "payment_reminder"
	NotifyCycleStarted    NotificationType = "cycle_started"
	NotifyCycleCompleted  NotificationType = "cycle_completed"
)

// Notification is a message delivered to one member as a side effect of a
// lifecycle transition or an explicit reminder. Broadcast events are fanned
// out to one row per member at creation time, so UserID always names a single
// recipient. Immutable once created except for the read flag.
type Notification struct {
	// ID is the unique identifier for the notification (UUID format).
	ID string `json:"id"`

	// UserID is the recipient of the notification.
	UserID string `json:"user_id"`

	// GroupID and CycleID reference the originating entities.
	GroupID string `json:"group_id"`
	CycleID string `json:"cycle_id"`

	// Message is the human-readable text shown to the user.
	Message string `json:"message"`

	// Type is payment_reminder, cycle_started, or cycle_completed.
	Type NotificationType `json:"type"`

	// IsRead marks whether the user has seen the notification.
	IsRead bool `json:"is_read"`

	// CreatedAt is the Unix timestamp when the notification was created.
	CreatedAt int64 `json:"created_at"`
}
