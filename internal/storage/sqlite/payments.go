package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// GetPayment retrieves the payment for one member in one cycle.
func (s *SQLiteStore) GetPayment(ctx context.Context, cycleID, payerID string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, cycle_id, group_id, payer_id, amount, status, payment_date
		 FROM payments WHERE cycle_id = ? AND payer_id = ?`,
		cycleID, payerID,
	)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s/%s: %w", cycleID, payerID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// ListPayments retrieves all payments of a cycle.
func (s *SQLiteStore) ListPayments(ctx context.Context, cycleID string) ([]*models.Payment, error) {
	return s.listPayments(ctx, "cycle_id", cycleID)
}

// ListPaymentsByGroup retrieves all payments across a group's cycles.
func (s *SQLiteStore) ListPaymentsByGroup(ctx context.Context, groupID string) ([]*models.Payment, error) {
	return s.listPayments(ctx, "group_id", groupID)
}

func (s *SQLiteStore) listPayments(ctx context.Context, column, value string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, group_id, payer_id, amount, status, payment_date
		 FROM payments WHERE `+column+` = ?
		 ORDER BY payer_id ASC`,
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// UpdatePaymentStatus flips a payment between pending and paid.
// paymentDate is the paid timestamp, or zero when reverting to pending.
func (s *SQLiteStore) UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus, paymentDate int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = ?, payment_date = ? WHERE id = ?",
		string(status), paymentDate, paymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}

	var groupID string
	if err := s.db.QueryRowContext(ctx,
		"SELECT group_id FROM payments WHERE id = ?", paymentID,
	).Scan(&groupID); err != nil {
		groupID = ""
	}
	s.publish(storage.TablePayments, storage.ActionUpdate, paymentID, groupID)
	return nil
}

func scanPayment(row scanner) (*models.Payment, error) {
	p := &models.Payment{}
	var amount, status string
	err := row.Scan(&p.ID, &p.CycleID, &p.GroupID, &p.PayerID, &amount, &status, &p.PaymentDate)
	if err != nil {
		return nil, err
	}
	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid payment amount %q: %w", amount, err)
	}
	p.Status = models.PaymentStatus(status)
	return p, nil
}
