package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// CreateCycle persists a new cycle and its seeded payments in one
// transaction. Payment IDs are assigned here when unset.
func (s *SQLiteStore) CreateCycle(ctx context.Context, cycle *models.Cycle, payments []*models.Payment) error {
	if cycle.ID == "" {
		cycle.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cycles (id, group_id, cycle_number, recipient_id, start_date, end_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cycle.ID, cycle.GroupID, cycle.Number, cycle.RecipientID,
		cycle.StartDate, cycle.EndDate, string(cycle.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}

	for _, p := range payments {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.CycleID = cycle.ID
		p.GroupID = cycle.GroupID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO payments (id, cycle_id, group_id, payer_id, amount, status, payment_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.CycleID, p.GroupID, p.PayerID, p.Amount.String(), string(p.Status), p.PaymentDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publish(storage.TableCycles, storage.ActionInsert, cycle.ID, cycle.GroupID)
	for _, p := range payments {
		s.publish(storage.TablePayments, storage.ActionInsert, p.ID, p.GroupID)
	}
	return nil
}

// GetCycle retrieves a cycle by ID.
func (s *SQLiteStore) GetCycle(ctx context.Context, cycleID string) (*models.Cycle, error) {
	cycle := &models.Cycle{}
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, cycle_number, recipient_id, start_date, end_date, status
		 FROM cycles WHERE id = ?`,
		cycleID,
	).Scan(&cycle.ID, &cycle.GroupID, &cycle.Number, &cycle.RecipientID,
		&cycle.StartDate, &cycle.EndDate, &status)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cycle %s: %w", cycleID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}

	cycle.Status = models.CycleStatus(status)
	return cycle, nil
}

// ListCycles retrieves all cycles of a group ordered by cycle number.
func (s *SQLiteStore) ListCycles(ctx context.Context, groupID string) ([]*models.Cycle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, cycle_number, recipient_id, start_date, end_date, status
		 FROM cycles WHERE group_id = ?
		 ORDER BY cycle_number ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*models.Cycle
	for rows.Next() {
		cycle := &models.Cycle{}
		var status string
		if err := rows.Scan(&cycle.ID, &cycle.GroupID, &cycle.Number, &cycle.RecipientID,
			&cycle.StartDate, &cycle.EndDate, &status); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycle.Status = models.CycleStatus(status)
		cycles = append(cycles, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycles: %w", err)
	}
	return cycles, nil
}

// TransitionCycleStatus moves a cycle from one status to another with a
// compare-and-swap. It returns false when the cycle no longer holds the
// expected status, which is how racing completions lose.
func (s *SQLiteStore) TransitionCycleStatus(ctx context.Context, cycleID string, from, to models.CycleStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cycles SET status = ? WHERE id = ? AND status = ?",
		string(to), cycleID, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition cycle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check transition result: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return true, err
	}
	s.publish(storage.TableCycles, storage.ActionUpdate, cycleID, cycle.GroupID)
	return true, nil
}
