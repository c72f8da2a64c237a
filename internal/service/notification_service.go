package service

import (
	"context"
	"log/slog"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/cache"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// NotificationService manages the per-user notification feed. Notifications
// are created only by the lifecycle engine; this service covers the read and
// acknowledgement paths.
type NotificationService struct {
	store storage.Store
	cache *cache.Cache
}

// NewNotificationService creates a new NotificationService.
// The cache may be nil.
func NewNotificationService(store storage.Store, c *cache.Cache) *NotificationService {
	return &NotificationService{store: store, cache: c}
}

// List retrieves the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	key := "notifications:user:" + userID
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v.([]*models.Notification), nil
		}
	}

	notifications, err := s.store.ListNotificationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ids := make([]string, len(notifications))
		for i, n := range notifications {
			ids[i] = n.ID
		}
		s.cache.Put(key, notifications, cache.Dep{Table: storage.TableNotifications, IDs: ids})
	}
	return notifications, nil
}

// MarkRead flips the read flag on one of the user's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, notificationID, userID)
}

// MarkAllRead flips the read flag on every notification owned by the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.store.MarkAllNotificationsRead(ctx, userID); err != nil {
		return err
	}
	slog.Info("Notifications marked read", "user_id", userID)
	return nil
}

// Delete permanently removes one of the user's notifications. There is no
// undo.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	return s.store.DeleteNotification(ctx, notificationID, userID)
}
