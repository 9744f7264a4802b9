// Package memory provides an in-memory domain.Store used by tests and the
// CLI in offline mode. Transactions are serialized under one mutex with a
// copy-on-begin snapshot, so WithinTx keeps the same commit-or-nothing
// semantics as the PostgreSQL store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"sync"

	"github.com/yourorg/assetlease/internal/domain"
)

type tables struct {
	assets    map[int64]domain.Asset
	contracts map[int64]domain.Contract
	payments  map[int64]domain.Payment
	accounts  map[int64]domain.Account
	damages   map[int64]domain.DamageReport
	nextID    int64
}

func newTables() tables {
	return tables{
		assets:    map[int64]domain.Asset{},
		contracts: map[int64]domain.Contract{},
		payments:  map[int64]domain.Payment{},
		accounts:  map[int64]domain.Account{},
		damages:   map[int64]domain.DamageReport{},
	}
}

func (t *tables) clone() tables {
	c := newTables()
	c.nextID = t.nextID
	for k, v := range t.assets {
		c.assets[k] = v
	}
	for k, v := range t.contracts {
		c.contracts[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}
	for k, v := range t.accounts {
		c.accounts[k] = v
	}
	for k, v := range t.damages {
		c.damages[k] = v
	}
	return c
}

func (t *tables) id() int64 {
	t.nextID++
	return t.nextID
}

// Store is an in-memory domain.Store.
type Store struct {
	mu sync.Mutex
	t  tables
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{t: newTables()}
}

func (s *Store) repo(locked bool) repo { return repo{s: s, locked: locked} }

// Assets returns the asset repository.
func (s *Store) Assets() domain.AssetRepository { return assetRepo{s.repo(false)} }

// Contracts returns the contract repository.
func (s *Store) Contracts() domain.ContractRepository { return contractRepo{s.repo(false)} }

// Payments returns the payment repository.
func (s *Store) Payments() domain.PaymentRepository { return paymentRepo{s.repo(false)} }

// Accounts returns the account repository.
func (s *Store) Accounts() domain.AccountRepository { return accountRepo{s.repo(false)} }

// Damages returns the damage report repository.
func (s *Store) Damages() domain.DamageRepository { return damageRepo{s.repo(false)} }

// WithinTx serializes fn under the store mutex and restores the pre-tx
// snapshot when fn fails.
func (s *Store) WithinTx(_ context.Context, fn func(domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	if err := fn(&txStore{s: s}); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

// txStore is the store view handed to WithinTx callbacks; its repositories
// skip locking because the enclosing transaction already holds the mutex.
type txStore struct {
	s *Store
}

func (t *txStore) Assets() domain.AssetRepository       { return assetRepo{t.s.repo(true)} }
func (t *txStore) Contracts() domain.ContractRepository { return contractRepo{t.s.repo(true)} }
func (t *txStore) Payments() domain.PaymentRepository   { return paymentRepo{t.s.repo(true)} }
func (t *txStore) Accounts() domain.AccountRepository   { return accountRepo{t.s.repo(true)} }
func (t *txStore) Damages() domain.DamageRepository     { return damageRepo{t.s.repo(true)} }

func (t *txStore) WithinTx(_ context.Context, fn func(domain.Store) error) error {
	return fn(t)
}

type repo struct {
	s      *Store
	locked bool
}

func (r repo) do(fn func(t *tables) error) error {
	if !r.locked {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	return fn(&r.s.t)
}

// --- assets ---

type assetRepo struct{ repo }

func (r assetRepo) Create(_ context.Context, asset *domain.Asset) error {
	return r.do(func(t *tables) error {
		asset.ID = t.id()
		asset.CreatedAt = time.Now()
		asset.UpdatedAt = asset.CreatedAt
		t.assets[asset.ID] = *asset
		return nil
	})
}

func (r assetRepo) GetByID(_ context.Context, id int64) (*domain.Asset, error) {
	var out *domain.Asset
	err := r.do(func(t *tables) error {
		a, ok := t.assets[id]
		if !ok {
			return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r assetRepo) List(_ context.Context, filter domain.AssetFilter) ([]*domain.Asset, error) {
	var out []*domain.Asset
	err := r.do(func(t *tables) error {
		for _, a := range t.assets {
			if filter.Category != "" && a.Category != filter.Category {
				continue
			}
			if filter.MinPrice > 0 && a.Price < filter.MinPrice {
				continue
			}
			if filter.MaxPrice > 0 && a.Price > filter.MaxPrice {
				continue
			}
			if filter.Keyword != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(filter.Keyword)) {
				continue
			}
			copied := a
			out = append(out, &copied)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r assetRepo) UpdateStatus(_ context.Context, id int64, status domain.AssetStatus) error {
	return r.do(func(t *tables) error {
		a, ok := t.assets[id]
		if !ok {
			return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
		}
		a.Status = status
		a.UpdatedAt = time.Now()
		t.assets[id] = a
		return nil
	})
}

func (r assetRepo) Delete(_ context.Context, id int64) error {
	return r.do(func(t *tables) error {
		if _, ok := t.assets[id]; !ok {
			return fmt.Errorf("asset %d: %w", id, domain.ErrNotFound)
		}
		delete(t.assets, id)
		return nil
	})
}

// --- contracts ---

type contractRepo struct{ repo }

func (r contractRepo) Create(_ context.Context, contract *domain.Contract) error {
	return r.do(func(t *tables) error {
		contract.ID = t.id()
		contract.CreatedAt = time.Now()
		t.contracts[contract.ID] = *contract
		return nil
	})
}

func (r contractRepo) GetByID(_ context.Context, id int64) (*domain.Contract, error) {
	var out *domain.Contract
	err := r.do(func(t *tables) error {
		c, ok := t.contracts[id]
		if !ok {
			return fmt.Errorf("contract %d: %w", id, domain.ErrNotFound)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r contractRepo) List(_ context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	var out []*domain.Contract
	err := r.do(func(t *tables) error {
		for _, c := range t.contracts {
			if filter.AssetID > 0 && c.AssetID != filter.AssetID {
				continue
			}
			if filter.TenantID > 0 && c.TenantID != filter.TenantID {
				continue
			}
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			if !filter.From.IsZero() && c.EndDate.Before(filter.From.Time) {
				continue
			}
			if !filter.Until.IsZero() && c.StartDate.After(filter.Until.Time) {
				continue
			}
			copied := c
			out = append(out, &copied)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r contractRepo) ActiveByAsset(ctx context.Context, assetID int64) ([]*domain.Contract, error) {
	return r.List(ctx, domain.ContractFilter{AssetID: assetID, Status: domain.ContractActive})
}

func (r contractRepo) FindOverlap(_ context.Context, assetID int64, rng domain.DateRange, excludeID int64) (*domain.Contract, error) {
	var out *domain.Contract
	err := r.do(func(t *tables) error {
		for _, c := range t.contracts {
			if c.AssetID != assetID || c.Status != domain.ContractActive || c.ID == excludeID {
				continue
			}
			if c.Range().Overlaps(rng) {
				copied := c
				if out == nil || copied.StartDate.Before(out.StartDate.Time) {
					out = &copied
				}
			}
		}
		return nil
	})
	return out, err
}

func (r contractRepo) UpdateStatus(_ context.Context, id int64, status domain.ContractStatus) error {
	return r.do(func(t *tables) error {
		c, ok := t.contracts[id]
		if !ok {
			return fmt.Errorf("contract %d: %w", id, domain.ErrNotFound)
		}
		c.Status = status
		t.contracts[id] = c
		return nil
	})
}

func (r contractRepo) DeleteByAsset(_ context.Context, assetID int64) error {
	return r.do(func(t *tables) error {
		for id, c := range t.contracts {
			if c.AssetID == assetID {
				delete(t.contracts, id)
			}
		}
		return nil
	})
}

// --- payments ---

type paymentRepo struct{ repo }

func (r paymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	return r.do(func(t *tables) error {
		payment.ID = t.id()
		t.payments[payment.ID] = *payment
		return nil
	})
}

func (r paymentRepo) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.do(func(t *tables) error {
		p, ok := t.payments[id]
		if !ok {
			return fmt.Errorf("payment %d: %w", id, domain.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r paymentRepo) ListByContract(_ context.Context, contractID int64) ([]*domain.Payment, error) {
	var out []*domain.Payment
	err := r.do(func(t *tables) error {
		for _, p := range t.payments {
			if p.ContractID == contractID {
				copied := p
				out = append(out, &copied)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r paymentRepo) SumByContract(ctx context.Context, contractID int64) (float64, error) {
	payments, err := r.ListByContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	return sum, nil
}

func (r paymentRepo) Update(_ context.Context, payment *domain.Payment) error {
	return r.do(func(t *tables) error {
		if _, ok := t.payments[payment.ID]; !ok {
			return fmt.Errorf("payment %d: %w", payment.ID, domain.ErrNotFound)
		}
		t.payments[payment.ID] = *payment
		return nil
	})
}

func (r paymentRepo) Delete(_ context.Context, id int64) error {
	return r.do(func(t *tables) error {
		if _, ok := t.payments[id]; !ok {
			return fmt.Errorf("payment %d: %w", id, domain.ErrNotFound)
		}
		delete(t.payments, id)
		return nil
	})
}

func (r paymentRepo) DeleteByContract(_ context.Context, contractID int64) error {
	return r.do(func(t *tables) error {
		for id, p := range t.payments {
			if p.ContractID == contractID {
				delete(t.payments, id)
			}
		}
		return nil
	})
}

// --- accounts ---

type accountRepo struct{ repo }

func (r accountRepo) Create(_ context.Context, account *domain.Account) error {
	return r.do(func(t *tables) error {
		for _, a := range t.accounts {
			if a.Email == account.Email || a.Username == account.Username {
				return fmt.Errorf("account %s: %w", account.Email, domain.ErrDuplicate)
			}
		}
		account.ID = t.id()
		account.CreatedAt = time.Now()
		account.UpdatedAt = account.CreatedAt
		t.accounts[account.ID] = *account
		return nil
	})
}

func (r accountRepo) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	var out *domain.Account
	err := r.do(func(t *tables) error {
		a, ok := t.accounts[id]
		if !ok {
			return fmt.Errorf("account %d: %w", id, domain.ErrNotFound)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.Email == email }, email)
}

func (r accountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	return r.find(func(a domain.Account) bool { return a.Username == username }, username)
}

func (r accountRepo) find(match func(domain.Account) bool, ref string) (*domain.Account, error) {
	var out *domain.Account
	err := r.do(func(t *tables) error {
		for _, a := range t.accounts {
			if match(a) {
				copied := a
				out = &copied
				return nil
			}
		}
		return fmt.Errorf("account %s: %w", ref, domain.ErrNotFound)
	})
	return out, err
}

func (r accountRepo) List(_ context.Context) ([]*domain.Account, error) {
	var out []*domain.Account
	err := r.do(func(t *tables) error {
		for _, a := range t.accounts {
			copied := a
			out = append(out, &copied)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

// --- damage reports ---

type damageRepo struct{ repo }

func (r damageRepo) Create(_ context.Context, report *domain.DamageReport) error {
	return r.do(func(t *tables) error {
		report.ID = t.id()
		t.damages[report.ID] = *report
		return nil
	})
}

func (r damageRepo) GetByID(_ context.Context, id int64) (*domain.DamageReport, error) {
	var out *domain.DamageReport
	err := r.do(func(t *tables) error {
		d, ok := t.damages[id]
		if !ok {
			return fmt.Errorf("damage report %d: %w", id, domain.ErrNotFound)
		}
		out = &d
		return nil
	})
	return out, err
}

func (r damageRepo) ListByContract(_ context.Context, contractID int64) ([]*domain.DamageReport, error) {
	var out []*domain.DamageReport
	err := r.do(func(t *tables) error {
		for _, d := range t.damages {
			if d.ContractID == contractID {
				copied := d
				out = append(out, &copied)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r damageRepo) Update(_ context.Context, report *domain.DamageReport) error {
	return r.do(func(t *tables) error {
		if _, ok := t.damages[report.ID]; !ok {
			return fmt.Errorf("damage report %d: %w", report.ID, domain.ErrNotFound)
		}
		t.damages[report.ID] = *report
		return nil
	})
}

func (r damageRepo) Delete(_ context.Context, id int64) error {
	return r.do(func(t *tables) error {
		if _, ok := t.damages[id]; !ok {
			return fmt.Errorf("damage report %d: %w", id, domain.ErrNotFound)
		}
		delete(t.damages, id)
		return nil
	})
}

func (r damageRepo) DeleteByContract(_ context.Context, contractID int64) error {
	return r.do(func(t *tables) error {
		for id, d := range t.damages {
			if d.ContractID == contractID {
				delete(t.damages, id)
			}
		}
		return nil
	})
}

// Locker is an in-process domain.AssetLocker for tests and offline use.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
	// Wait bounds how long Acquire blocks before returning ErrBusy.
	Wait time.Duration
}

// NewLocker creates a locker with the given bounded wait.
func NewLocker(wait time.Duration) *Locker {
	if wait <= 0 {
		wait = 100 * time.Millisecond
	}
	return &Locker{locks: map[int64]chan struct{}{}, Wait: wait}
}

func (l *Locker) slot(assetID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[assetID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[assetID] = ch
	}
	return ch
}

// Acquire takes the per-asset slot or fails with ErrBusy after Wait.
func (l *Locker) Acquire(ctx context.Context, assetID int64) (func(), error) {
	ch := l.slot(assetID)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(l.Wait):
		return nil, fmt.Errorf("asset %d locked: %w", assetID, domain.ErrBusy)
	}
}
