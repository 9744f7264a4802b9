package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/assetlease/internal/domain"
)

const contractColumns = "id, asset_id, tenant_id, start_date, end_date, total_price, deposit, status, created_at"

// PostgresContractRepository implements domain.ContractRepository using PostgreSQL.
type PostgresContractRepository struct {
	q      sqlx.ExtContext
	logger *slog.Logger
}

// Create inserts a new contract.
func (r *PostgresContractRepository) Create(ctx context.Context, contract *domain.Contract) error {
	query := `
		INSERT INTO contracts (asset_id, tenant_id, start_date, end_date, total_price, deposit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.q.QueryRowxContext(ctx, query,
		contract.AssetID,
		contract.TenantID,
		contract.StartDate,
		contract.EndDate,
		contract.TotalPrice,
		contract.Deposit,
		contract.Status,
	).Scan(&contract.ID, &contract.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create contract",
			slog.Int64("asset_id", contract.AssetID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID retrieves a contract by ID.
func (r *PostgresContractRepository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	contract := &domain.Contract{}
	query := fmt.Sprintf(`SELECT %s FROM contracts WHERE id = $1`, contractColumns)

	if err := sqlx.GetContext(ctx, r.q, contract, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contract %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return contract, nil
}

// List returns contracts matching the filter, newest first. The date filter
// keeps contracts whose closed range intersects [From, Until].
func (r *PostgresContractRepository) List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	builder := goqu.Dialect(dialect).
		From("contracts").
		Select(goqu.L(contractColumns)).
		Order(goqu.I("created_at").Desc())

	exprs := make([]goqu.Expression, 0, 5)
	if filter.AssetID > 0 {
		exprs = append(exprs, goqu.C("asset_id").Eq(filter.AssetID))
	}
	if filter.TenantID > 0 {
		exprs = append(exprs, goqu.C("tenant_id").Eq(filter.TenantID))
	}
	if filter.Status != "" {
		exprs = append(exprs, goqu.C("status").Eq(string(filter.Status)))
	}
	if !filter.From.IsZero() {
		exprs = append(exprs, goqu.C("end_date").Gte(filter.From.Time))
	}
	if !filter.Until.IsZero() {
		exprs = append(exprs, goqu.C("start_date").Lte(filter.Until.Time))
	}
	if len(exprs) > 0 {
		builder = builder.Where(exprs...)
	}

	query, args, err := builder.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build contract query: %w", err)
	}

	var contracts []*domain.Contract
	if err := sqlx.SelectContext(ctx, r.q, &contracts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

// ActiveByAsset returns every active contract on an asset.
func (r *PostgresContractRepository) ActiveByAsset(ctx context.Context, assetID int64) ([]*domain.Contract, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM contracts
		WHERE asset_id = $1 AND status = $2
		ORDER BY start_date
	`, contractColumns)

	var contracts []*domain.Contract
	if err := sqlx.SelectContext(ctx, r.q, &contracts, query, assetID, domain.ContractActive); err != nil {
		return nil, fmt.Errorf("failed to list active contracts: %w", err)
	}
	return contracts, nil
}

// FindOverlap returns the first active contract on the asset overlapping
// rng, or nil when the window is free. Two closed ranges overlap iff
// s1 <= e2 AND e1 >= s2.
func (r *PostgresContractRepository) FindOverlap(ctx context.Context, assetID int64, rng domain.DateRange, excludeID int64) (*domain.Contract, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM contracts
		WHERE asset_id = $1
		  AND status = $2
		  AND start_date <= $3
		  AND end_date >= $4
		  AND id <> $5
		ORDER BY start_date
		LIMIT 1
	`, contractColumns)

	contract := &domain.Contract{}
	err := sqlx.GetContext(ctx, r.q, contract, query,
		assetID, domain.ContractActive, rng.End, rng.Start, excludeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check overlap: %w", err)
	}
	return contract, nil
}

// UpdateStatus transitions a contract's lifecycle state.
func (r *PostgresContractRepository) UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE contracts SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update contract status: %w", err)
	}
	return requireRow(res, fmt.Errorf("contract %d: %w", id, domain.ErrNotFound))
}

// DeleteByAsset removes all contracts for an asset (cascade step).
func (r *PostgresContractRepository) DeleteByAsset(ctx context.Context, assetID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM contracts WHERE asset_id = $1`, assetID); err != nil {
		return fmt.Errorf("failed to delete contracts for asset %d: %w", assetID, err)
	}
	return nil
}
