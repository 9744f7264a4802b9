// Package repository implements the domain store on PostgreSQL.
//
// Repositories run against either the root connection pool or an open
// transaction; Store.WithinTx hands callers a store view bound to a
// serializable transaction so multi-row booking writes commit atomically.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/yourorg/assetlease/internal/domain"
)

const dialect = "postgres"

// PostgresStore bundles the PostgreSQL repositories behind domain.Store.
type PostgresStore struct {
	db     *sqlx.DB
	q      sqlx.ExtContext
	logger *slog.Logger
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	x := sqlx.NewDb(db, dialect)
	return &PostgresStore{db: x, q: x, logger: logger}
}

// Assets returns the asset repository bound to this store view.
func (s *PostgresStore) Assets() domain.AssetRepository {
	return &PostgresAssetRepository{q: s.q, logger: s.logger}
}

// Contracts returns the contract repository bound to this store view.
func (s *PostgresStore) Contracts() domain.ContractRepository {
	return &PostgresContractRepository{q: s.q, logger: s.logger}
}

// Payments returns the payment repository bound to this store view.
func (s *PostgresStore) Payments() domain.PaymentRepository {
	return &PostgresPaymentRepository{q: s.q, logger: s.logger}
}

// Accounts returns the account repository bound to this store view.
func (s *PostgresStore) Accounts() domain.AccountRepository {
	return &PostgresAccountRepository{q: s.q, logger: s.logger}
}

// Damages returns the damage report repository bound to this store view.
func (s *PostgresStore) Damages() domain.DamageRepository {
	return &PostgresDamageRepository{q: s.q, logger: s.logger}
}

// WithinTx runs fn against a serializable transaction. A failure anywhere
// rolls back every write; partial booking state is never observable.
// Nested calls join the enclosing transaction.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	if _, nested := s.q.(*sqlx.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &PostgresStore{db: s.db, q: tx, logger: s.logger}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
