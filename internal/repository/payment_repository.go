package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/yourorg/assetlease/internal/domain"
)

const paymentColumns = "id, contract_id, amount, payment_date, note, paid"

// PostgresPaymentRepository implements domain.PaymentRepository using PostgreSQL.
type PostgresPaymentRepository struct {
	q      sqlx.ExtContext
	logger *slog.Logger
}

// Create inserts a new ledger entry.
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (contract_id, amount, payment_date, note, paid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.QueryRowxContext(ctx, query,
		payment.ContractID,
		payment.Amount,
		payment.PaymentDate,
		payment.Note,
		payment.Paid,
	).Scan(&payment.ID)
	if err != nil {
		r.logger.Error("failed to create payment",
			slog.Int64("contract_id", payment.ContractID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	payment := &domain.Payment{}
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)

	if err := sqlx.GetContext(ctx, r.q, payment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListByContract returns a contract's ledger in payment-date order.
func (r *PostgresPaymentRepository) ListByContract(ctx context.Context, contractID int64) ([]*domain.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE contract_id = $1
		ORDER BY payment_date, id
	`, paymentColumns)

	var payments []*domain.Payment
	if err := sqlx.SelectContext(ctx, r.q, &payments, query, contractID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// SumByContract totals the contract's recorded payments.
func (r *PostgresPaymentRepository) SumByContract(ctx context.Context, contractID int64) (float64, error) {
	var sum float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE contract_id = $1`
	if err := sqlx.GetContext(ctx, r.q, &sum, query, contractID); err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return sum, nil
}

// Update rewrites a ledger entry.
func (r *PostgresPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET amount = $1, payment_date = $2, note = $3, paid = $4
		WHERE id = $5
	`
	res, err := r.q.ExecContext(ctx, query,
		payment.Amount,
		payment.PaymentDate,
		payment.Note,
		payment.Paid,
		payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return requireRow(res, fmt.Errorf("payment %d: %w", payment.ID, domain.ErrNotFound))
}

// Delete removes a ledger entry.
func (r *PostgresPaymentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireRow(res, fmt.Errorf("payment %d: %w", id, domain.ErrNotFound))
}

// DeleteByContract removes a contract's whole ledger (cascade step).
func (r *PostgresPaymentRepository) DeleteByContract(ctx context.Context, contractID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM payments WHERE contract_id = $1`, contractID); err != nil {
		return fmt.Errorf("failed to delete payments for contract %d: %w", contractID, err)
	}
	return nil
}
