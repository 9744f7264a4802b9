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

const damageColumns = "id, contract_id, asset_id, description, severity, repair_cost, reported_date, status, repaired_date"

// PostgresDamageRepository implements domain.DamageRepository using PostgreSQL.
type PostgresDamageRepository struct {
	q      sqlx.ExtContext
	logger *slog.Logger
}

// Create inserts a new damage report.
func (r *PostgresDamageRepository) Create(ctx context.Context, report *domain.DamageReport) error {
	query := `
		INSERT INTO damage_reports (contract_id, asset_id, description, severity, repair_cost, reported_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.q.QueryRowxContext(ctx, query,
		report.ContractID,
		report.AssetID,
		report.Description,
		report.Severity,
		report.RepairCost,
		report.ReportedDate,
		report.Status,
	).Scan(&report.ID)
	if err != nil {
		r.logger.Error("failed to create damage report",
			slog.Int64("contract_id", report.ContractID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create damage report: %w", err)
	}
	return nil
}

// GetByID retrieves a damage report by ID.
func (r *PostgresDamageRepository) GetByID(ctx context.Context, id int64) (*domain.DamageReport, error) {
	report := &domain.DamageReport{}
	query := fmt.Sprintf(`SELECT %s FROM damage_reports WHERE id = $1`, damageColumns)

	if err := sqlx.GetContext(ctx, r.q, report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("damage report %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get damage report: %w", err)
	}
	return report, nil
}

// ListByContract returns a contract's damage reports, newest first.
func (r *PostgresDamageRepository) ListByContract(ctx context.Context, contractID int64) ([]*domain.DamageReport, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM damage_reports
		WHERE contract_id = $1
		ORDER BY reported_date DESC, id DESC
	`, damageColumns)

	var reports []*domain.DamageReport
	if err := sqlx.SelectContext(ctx, r.q, &reports, query, contractID); err != nil {
		return nil, fmt.Errorf("failed to list damage reports: %w", err)
	}
	return reports, nil
}

// Update rewrites a damage report.
func (r *PostgresDamageRepository) Update(ctx context.Context, report *domain.DamageReport) error {
	query := `
		UPDATE damage_reports
		SET description = $1, severity = $2, repair_cost = $3, reported_date = $4, status = $5, repaired_date = $6
		WHERE id = $7
	`
	res, err := r.q.ExecContext(ctx, query,
		report.Description,
		report.Severity,
		report.RepairCost,
		report.ReportedDate,
		report.Status,
		report.RepairedDate,
		report.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update damage report: %w", err)
	}
	return requireRow(res, fmt.Errorf("damage report %d: %w", report.ID, domain.ErrNotFound))
}

// Delete removes a damage report.
func (r *PostgresDamageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM damage_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete damage report: %w", err)
	}
	return requireRow(res, fmt.Errorf("damage report %d: %w", id, domain.ErrNotFound))
}

// DeleteByContract removes all reports for a contract (cascade step).
func (r *PostgresDamageRepository) DeleteByContract(ctx context.Context, contractID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM damage_reports WHERE contract_id = $1`, contractID); err != nil {
		return fmt.Errorf("failed to delete damage reports for contract %d: %w", contractID, err)
	}
	return nil
}
