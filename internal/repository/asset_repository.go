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

const assetColumns = "id, name, address, description, price, category, status, owner_id, created_at, updated_at"

// PostgresAssetRepository implements domain.AssetRepository using PostgreSQL.
type PostgresAssetRepository struct {
	q      sqlx.ExtContext
	logger *slog.Logger
}

// Create inserts a new asset.
func (r *PostgresAssetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (name, address, description, price, category, status, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRowxContext(ctx, query,
		asset.Name,
		asset.Address,
		asset.Description,
		asset.Price,
		asset.Category,
		asset.Status,
		asset.OwnerID,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create asset",
			slog.String("name", asset.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// GetByID retrieves an asset by ID.
func (r *PostgresAssetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	asset := &domain.Asset{}
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = $1`, assetColumns)

	if err := sqlx.GetContext(ctx, r.q, asset, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// List returns assets matching the filter, newest first.
func (r *PostgresAssetRepository) List(ctx context.Context, filter domain.AssetFilter) ([]*domain.Asset, error) {
	builder := goqu.Dialect(dialect).
		From("assets").
		Select(goqu.L(assetColumns)).
		Order(goqu.I("created_at").Desc())

	exprs := make([]goqu.Expression, 0, 4)
	if filter.Category != "" {
		exprs = append(exprs, goqu.C("category").Eq(filter.Category))
	}
	if filter.MinPrice > 0 {
		exprs = append(exprs, goqu.C("price").Gte(filter.MinPrice))
	}
	if filter.MaxPrice > 0 {
		exprs = append(exprs, goqu.C("price").Lte(filter.MaxPrice))
	}
	if filter.Keyword != "" {
		exprs = append(exprs, goqu.C("name").ILike("%"+filter.Keyword+"%"))
	}
	if len(exprs) > 0 {
		builder = builder.Where(exprs...)
	}

	query, args, err := builder.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build asset query: %w", err)
	}

	var assets []*domain.Asset
	if err := sqlx.SelectContext(ctx, r.q, &assets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// UpdateStatus rewrites the derived status column.
func (r *PostgresAssetRepository) UpdateStatus(ctx context.Context, id int64, status domain.AssetStatus) error {
	query := `UPDATE assets SET status = $1, updated_at = now() WHERE id = $2`
	res, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update asset status: %w", err)
	}
	return requireRow(res, fmt.Errorf("asset %d: %w", id, domain.ErrNotFound))
}

// Delete removes an asset. Contract and payment cascades are the asset
// service's responsibility.
func (r *PostgresAssetRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return requireRow(res, fmt.Errorf("asset %d: %w", id, domain.ErrNotFound))
}

// requireRow converts a zero-row write into the supplied not-found error.
func requireRow(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
