package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// CreateGroup persists a new group and the creator's admin membership in one
// transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, creator *models.Membership) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, contribution_amount, contribution_frequency,
		                     max_members, current_cycle, total_cycles, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.ContributionAmount.String(),
		string(group.ContributionFrequency), group.MaxMembers, group.CurrentCycle,
		group.TotalCycles, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if creator != nil {
		if creator.ID == "" {
			creator.ID = uuid.New().String()
		}
		if creator.JoinedAt == 0 {
			creator.JoinedAt = group.CreatedAt
		}
		creator.GroupID = group.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (id, group_id, user_id, is_admin, joined_at)
			 VALUES (?, ?, ?, ?, ?)`,
			creator.ID, creator.GroupID, creator.UserID, boolToInt(creator.IsAdmin), creator.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert creator membership: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publish(storage.TableGroups, storage.ActionInsert, group.ID, group.ID)
	if creator != nil {
		s.publish(storage.TableMembers, storage.ActionInsert, creator.ID, group.ID)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, contribution_amount, contribution_frequency,
		        max_members, current_cycle, total_cycles, created_by, created_at
		 FROM groups WHERE id = ?`,
		groupID,
	)
	group, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroupsForUser retrieves all groups the user is a member of, newest
// first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.contribution_amount, g.contribution_frequency,
		        g.max_members, g.current_cycle, g.total_cycles, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup updates an existing group's settings and cycle counters.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups
		 SET name = ?, description = ?, contribution_amount = ?, contribution_frequency = ?,
		     max_members = ?, current_cycle = ?, total_cycles = ?
		 WHERE id = ?`,
		group.Name, group.Description, group.ContributionAmount.String(),
		string(group.ContributionFrequency), group.MaxMembers, group.CurrentCycle,
		group.TotalCycles, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}

	s.publish(storage.TableGroups, storage.ActionUpdate, group.ID, group.ID)
	return nil
}

// DeleteGroup removes a group and all dependent rows. Dependents go first so
// the delete order alone preserves referential integrity; the store does not
// rely on a cascade contract.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM payments WHERE group_id = ?",
		"DELETE FROM cycles WHERE group_id = ?",
		"DELETE FROM notifications WHERE group_id = ?",
		"DELETE FROM group_members WHERE group_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, groupID); err != nil {
			return fmt.Errorf("failed to delete group dependents: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publish(storage.TableGroups, storage.ActionDelete, groupID, groupID)
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*models.Group, error) {
	group := &models.Group{}
	var amount, frequency string
	err := row.Scan(&group.ID, &group.Name, &group.Description, &amount, &frequency,
		&group.MaxMembers, &group.CurrentCycle, &group.TotalCycles, &group.CreatedBy, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	group.ContributionAmount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid contribution amount %q: %w", amount, err)
	}
	group.ContributionFrequency = models.ContributionFrequency(frequency)
	return group, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
