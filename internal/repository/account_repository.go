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

const accountColumns = "id, email, username, full_name, role, created_at, updated_at"

// PostgresAccountRepository implements domain.AccountRepository using PostgreSQL.
type PostgresAccountRepository struct {
	q      sqlx.ExtContext
	logger *slog.Logger
}

// Create inserts a new account.
func (r *PostgresAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (email, username, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRowxContext(ctx, query,
		account.Email,
		account.Username,
		account.FullName,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create account",
			slog.String("email", account.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *PostgresAccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves an account by email.
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername retrieves an account by username.
func (r *PostgresAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getBy(ctx, "username", username)
}

func (r *PostgresAccountRepository) getBy(ctx context.Context, column string, value interface{}) (*domain.Account, error) {
	account := &domain.Account{}
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s = $1`, accountColumns, column)

	if err := sqlx.GetContext(ctx, r.q, account, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account with %s %v: %w", column, value, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// List returns all accounts, newest first.
func (r *PostgresAccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts ORDER BY created_at DESC`, accountColumns)

	var accounts []*domain.Account
	if err := sqlx.SelectContext(ctx, r.q, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
