package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/yourorg/assetlease/internal/domain"
)

const (
	adminUsername = "admin"
	adminEmail    = "admin@assetlease.local"
)

// AccountResolver supplies the lifecycle manager with accounts without
// embedding identity lookup-or-insert logic in the booking path.
type AccountResolver interface {
	// ResolveOrCreateTenant finds the account for email, provisioning a
	// user account when none exists.
	ResolveOrCreateTenant(ctx context.Context, email string) (*domain.Account, error)
	// ResolveAdmin finds the system admin account, creating it on first use.
	ResolveAdmin(ctx context.Context) (*domain.Account, error)
}

// AccountService manages accounts and implements AccountResolver.
type AccountService struct {
	store  domain.Store
	logger *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store domain.Store, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{store: store, logger: logger}
}

// CreateAccount registers a new user account, rejecting duplicate email
// or username.
func (s *AccountService) CreateAccount(ctx context.Context, email, username, fullName string) (*domain.Account, error) {
	if email == "" || username == "" {
		return nil, fmt.Errorf("email and username are required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.store.Accounts().GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %s: %w", email, domain.ErrDuplicate)
	}
	if _, err := s.store.Accounts().GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username %s: %w", username, domain.ErrDuplicate)
	}

	account := &domain.Account{
		Email:    email,
		Username: username,
		FullName: fullName,
		Role:     domain.RoleUser,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		return nil, domain.NewStoreError("create account", err)
	}
	s.logger.Info("account created", slog.Int64("account_id", account.ID), slog.String("email", email))
	return account, nil
}

// GetAccount retrieves an account by id.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return s.store.Accounts().GetByID(ctx, id)
}

// ListAccounts returns all accounts.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := s.store.Accounts().List(ctx)
	if err != nil {
		return nil, domain.NewStoreError("list accounts", err)
	}
	return accounts, nil
}

// ResolveOrCreateTenant finds or auto-provisions the tenant account for an
// email. Generated usernames are derived from the mailbox name plus a short
// random suffix to dodge collisions.
func (s *AccountService) ResolveOrCreateTenant(ctx context.Context, email string) (*domain.Account, error) {
	if email == "" {
		return nil, fmt.Errorf("tenant email is empty: %w", domain.ErrNotFound)
	}

	tenant, err := s.store.Accounts().GetByEmail(ctx, email)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewStoreError("resolve tenant", err)
	}

	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	tenant = &domain.Account{
		Email:    email,
		Username: fmt.Sprintf("%s_%s", base, uuid.NewString()[:8]),
		FullName: capitalize(base),
		Role:     domain.RoleUser,
	}
	if err := s.store.Accounts().Create(ctx, tenant); err != nil {
		// Lost a race with a concurrent create for the same email.
		if existing, lookupErr := s.store.Accounts().GetByEmail(ctx, email); lookupErr == nil {
			return existing, nil
		}
		return nil, domain.NewStoreError("create tenant", err)
	}

	s.logger.Info("tenant auto-provisioned",
		slog.Int64("account_id", tenant.ID),
		slog.String("email", email),
	)
	return tenant, nil
}

// ResolveAdmin finds or creates the system admin account that owns assets
// registered without an explicit owner.
func (s *AccountService) ResolveAdmin(ctx context.Context) (*domain.Account, error) {
	admin, err := s.store.Accounts().GetByUsername(ctx, adminUsername)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewStoreError("resolve admin", err)
	}

	admin = &domain.Account{
		Email:    adminEmail,
		Username: adminUsername,
		FullName: "System Admin",
		Role:     domain.RoleAdmin,
	}
	if err := s.store.Accounts().Create(ctx, admin); err != nil {
		if existing, lookupErr := s.store.Accounts().GetByUsername(ctx, adminUsername); lookupErr == nil {
			return existing, nil
		}
		return nil, domain.NewStoreError("create admin", err)
	}

	s.logger.Info("admin account created", slog.Int64("account_id", admin.ID))
	return admin, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
