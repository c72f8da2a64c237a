package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// AddMember inserts a new membership. The (group_id, user_id) unique
// constraint rejects duplicate joins.
func (s *SQLiteStore) AddMember(ctx context.Context, m *models.Membership) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.JoinedAt == 0 {
		m.JoinedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (id, group_id, user_id, is_admin, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.UserID, boolToInt(m.IsAdmin), m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	s.publish(storage.TableMembers, storage.ActionInsert, m.ID, m.GroupID)
	return nil
}

// GetMembership retrieves the membership linking a group and a user.
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	var isAdmin int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, user_id, is_admin, joined_at
		 FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&m.ID, &m.GroupID, &m.UserID, &isAdmin, &m.JoinedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("membership %s/%s: %w", groupID, userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	m.IsAdmin = isAdmin != 0
	return m, nil
}

// ListMembers retrieves a group's memberships in join order (oldest first).
// The recipient rotation depends on this ordering.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, user_id, is_admin, joined_at
		 FROM group_members WHERE group_id = ?
		 ORDER BY joined_at ASC, rowid ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		var isAdmin int
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &isAdmin, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.IsAdmin = isAdmin != 0
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return members, nil
}

// UpdateMembership updates the admin flag of an existing membership.
func (s *SQLiteStore) UpdateMembership(ctx context.Context, m *models.Membership) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE group_members SET is_admin = ? WHERE id = ?",
		boolToInt(m.IsAdmin), m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("membership %s: %w", m.ID, storage.ErrNotFound)
	}

	s.publish(storage.TableMembers, storage.ActionUpdate, m.ID, m.GroupID)
	return nil
}

// RemoveMember deletes the membership linking a group and a user.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	m, err := s.GetMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM group_members WHERE id = ?", m.ID,
	); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	s.publish(storage.TableMembers, storage.ActionDelete, m.ID, groupID)
	return nil
}
