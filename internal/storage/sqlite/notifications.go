package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// CreateNotifications inserts a batch of notifications in one transaction.
// A broadcast arrives here already fanned out to one row per member.
func (s *SQLiteStore) CreateNotifications(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	now := time.Now().Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		if n.CreatedAt == 0 {
			n.CreatedAt = now
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notifications (id, user_id, group_id, cycle_id, message, type, is_read, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.UserID, n.GroupID, n.CycleID, n.Message, string(n.Type), boolToInt(n.IsRead), n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, n := range notifications {
		s.publish(storage.TableNotifications, storage.ActionInsert, n.ID, n.GroupID)
	}
	return nil
}

// ListNotificationsForUser retrieves a user's notifications, newest first.
func (s *SQLiteStore) ListNotificationsForUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, group_id, cycle_id, message, type, is_read, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var typ string
		var isRead int
		if err := rows.Scan(&n.ID, &n.UserID, &n.GroupID, &n.CycleID, &n.Message, &typ, &isRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		n.IsRead = isRead != 0
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead sets the read flag on one of the user's notifications.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?",
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, storage.ErrNotFound)
	}

	s.publish(storage.TableNotifications, storage.ActionUpdate, notificationID, "")
	return nil
}

// MarkAllNotificationsRead sets the read flag on every notification owned by
// the user. The change event carries no row ID; consumers invalidate the
// whole table.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0",
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.publish(storage.TableNotifications, storage.ActionUpdate, "", "")
	return nil
}

// DeleteNotification permanently removes one of the user's notifications.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, notificationID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE id = ? AND user_id = ?",
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, storage.ErrNotFound)
	}

	s.publish(storage.TableNotifications, storage.ActionDelete, notificationID, "")
	return nil
}
