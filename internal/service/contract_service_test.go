package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/pricing"
	"github.com/yourorg/assetlease/internal/reliability/circuitbreaker"
	"github.com/yourorg/assetlease/internal/repository/memory"
)

var testToday = domain.NewDate(2026, time.August, 15)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type contractEnv struct {
	store     *memory.Store
	locker    *memory.Locker
	accounts  *AccountService
	contracts *ContractService
}

func newContractEnv(t *testing.T) *contractEnv {
	t.Helper()
	log := testLogger()
	store := memory.NewStore()
	locker := memory.NewLocker(50 * time.Millisecond)
	accounts := NewAccountService(store, log)
	clock := func() time.Time { return testToday.Time }
	contracts := NewContractService(store, locker, accounts, NewEventBus(log), nil, log, clock)
	return &contractEnv{store: store, locker: locker, accounts: accounts, contracts: contracts}
}

func (e *contractEnv) seedAsset(t *testing.T, price float64) *domain.Asset {
	t.Helper()
	asset := &domain.Asset{
		Name:     "Lakeside flat",
		Address:  "12 Shoreline Rd",
		Price:    price,
		Category: "real_estate",
		Status:   domain.AssetAvailable,
		OwnerID:  1,
	}
	if err := e.store.Assets().Create(context.Background(), asset); err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	return asset
}

func (e *contractEnv) seedTenant(t *testing.T, email string) *domain.Account {
	t.Helper()
	tenant, err := e.accounts.ResolveOrCreateTenant(context.Background(), email)
	if err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tenant
}

func TestCreateContractBooksAssetWithDeposit(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	contract, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:    asset.ID,
		TenantID:   tenant.ID,
		Start:      testToday.AddDays(-2),
		End:        testToday.AddDays(3),
		Deposit:    50000,
		RentalType: pricing.Daily,
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	if contract.TotalPrice != 500000 {
		t.Errorf("total price = %v, want 500000", contract.TotalPrice)
	}
	if contract.Status != domain.ContractActive {
		t.Errorf("status = %s, want active", contract.Status)
	}

	payments, err := env.store.Payments().ListByContract(ctx, contract.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 deposit payment, got %d", len(payments))
	}
	if payments[0].Amount != 50000 || payments[0].Note != "Deposit (auto)" {
		t.Errorf("unexpected deposit payment: %+v", payments[0])
	}

	got, err := env.store.Assets().GetByID(ctx, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if got.Status != domain.AssetRented {
		t.Errorf("asset status = %s, want rented", got.Status)
	}
}

func TestCreateContractZeroDepositWritesNoPayment(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	contract, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(5),
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	payments, err := env.store.Payments().ListByContract(ctx, contract.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("expected empty ledger, got %d payments", len(payments))
	}
}

func TestCreateContractFutureWindowLeavesAssetAvailable(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	_, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday.AddDays(10),
		End:      testToday.AddDays(20),
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	got, _ := env.store.Assets().GetByID(ctx, asset.ID)
	if got.Status != domain.AssetAvailable {
		t.Errorf("asset status = %s, want available until the window begins", got.Status)
	}
}

func TestCreateContractRejectsInvalidRange(t *testing.T) {
	env := newContractEnv(t)
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	_, err := env.contracts.CreateContract(context.Background(), CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday,
	})
	if !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}

func TestCreateContractRejectsNegativeDeposit(t *testing.T) {
	env := newContractEnv(t)
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	_, err := env.contracts.CreateContract(context.Background(), CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(3),
		Deposit:  -1,
	})
	if !errors.Is(err, domain.ErrInvalidDeposit) {
		t.Fatalf("err = %v, want ErrInvalidDeposit", err)
	}
}

func TestCreateContractUnknownAsset(t *testing.T) {
	env := newContractEnv(t)
	tenant := env.seedTenant(t, "maria@example.com")

	_, err := env.contracts.CreateContract(context.Background(), CreateContractInput{
		AssetID:  999,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(3),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateContractOverlapConflict(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	first, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(10),
	})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err = env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday.AddDays(5),
		End:      testToday.AddDays(15),
	})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.ContractID != first.ID {
		t.Errorf("conflict contract = %d, want %d", conflict.ContractID, first.ID)
	}
	if conflict.Range.Start != first.StartDate || conflict.Range.End != first.EndDate {
		t.Errorf("conflict range = %s, want %s..%s", conflict.Range, first.StartDate, first.EndDate)
	}
}

func TestCreateContractSharedBoundaryDayConflicts(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	_, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(10),
	})
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Ranges are closed intervals: a booking starting on the previous end
	// day collides, the next day does not.
	_, err = env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday.AddDays(10),
		End:      testToday.AddDays(20),
	})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("shared boundary err = %v, want ConflictError", err)
	}

	_, err = env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday.AddDays(11),
		End:      testToday.AddDays(20),
	})
	if err != nil {
		t.Fatalf("back-to-back booking: %v", err)
	}
}

func TestCreateContractAutoProvisionsTenant(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)

	contract, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:     asset.ID,
		TenantEmail: "walkin@example.com",
		Start:       testToday,
		End:         testToday.AddDays(3),
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	tenant, err := env.store.Accounts().GetByID(ctx, contract.TenantID)
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if tenant.Email != "walkin@example.com" {
		t.Errorf("tenant email = %s", tenant.Email)
	}
	if tenant.Role != domain.RoleUser {
		t.Errorf("tenant role = %s, want user", tenant.Role)
	}
}

func TestCreateContractBusyWhenLockHeld(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	release, err := env.locker.Acquire(ctx, asset.ID)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer release()

	_, err = env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(3),
	})
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
}

func TestCreateContractOpenCircuitFastFails(t *testing.T) {
	env := newContractEnv(t)
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	breaker := circuitbreaker.NewCircuitBreaker(1, 1, time.Minute)
	breaker.RecordFailure()

	contracts := NewContractService(env.store, env.locker, env.accounts, nil, breaker, testLogger(),
		func() time.Time { return testToday.Time })

	_, err := contracts.CreateContract(context.Background(), CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(3),
	})
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy while circuit open", err)
	}
}

func TestConcurrentBookingsSingleWinner(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	in := CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(7),
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.contracts.CreateContract(ctx, in)
		}(i)
	}
	wg.Wait()

	var successes, rejected int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var conflict *domain.ConflictError
		if errors.Is(err, domain.ErrBusy) || errors.As(err, &conflict) {
			rejected++
			continue
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if successes != 1 || rejected != 1 {
		t.Fatalf("successes = %d, rejections = %d, want exactly one of each", successes, rejected)
	}

	active, err := env.store.Contracts().ActiveByAsset(ctx, asset.ID)
	if err != nil {
		t.Fatalf("active by asset: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active contracts = %d, want 1", len(active))
	}
}

// hookLocker runs a callback before the first acquisition, wedging another
// write into the window between the booking's asset read and its lock.
type hookLocker struct {
	inner  *memory.Locker
	before func()
	once   sync.Once
}

func (l *hookLocker) Acquire(ctx context.Context, assetID int64) (func(), error) {
	l.once.Do(l.before)
	return l.inner.Acquire(ctx, assetID)
}

func TestCreateContractRecomputesStatusAfterRacingCancel(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	existing, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:    asset.ID,
		TenantID:   tenant.ID,
		Start:      testToday.AddDays(-5),
		End:        testToday.AddDays(5),
		RentalType: pricing.Daily,
	})
	if err != nil {
		t.Fatalf("seed contract: %v", err)
	}

	// The cancellation commits after the booking has read the asset row
	// (still rented) but before it holds the lock.
	log := testLogger()
	racing := NewContractService(env.store, &hookLocker{
		inner: env.locker,
		before: func() {
			if err := env.contracts.CancelContract(ctx, existing.ID); err != nil {
				t.Errorf("cancel: %v", err)
			}
		},
	}, env.accounts, NewEventBus(log), nil, log, func() time.Time { return testToday.Time })

	if _, err := racing.CreateContract(ctx, CreateContractInput{
		AssetID:    asset.ID,
		TenantID:   tenant.ID,
		Start:      testToday.AddDays(-1),
		End:        testToday.AddDays(4),
		RentalType: pricing.Daily,
	}); err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	got, err := env.store.Assets().GetByID(ctx, asset.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if got.Status != domain.AssetRented {
		t.Errorf("asset status = %s, want rented", got.Status)
	}
}

func TestCancelContractFreesAsset(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	contract, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday.AddDays(-1),
		End:      testToday.AddDays(5),
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	if err := env.contracts.CancelContract(ctx, contract.ID); err != nil {
		t.Fatalf("CancelContract: %v", err)
	}

	got, _ := env.store.Contracts().GetByID(ctx, contract.ID)
	if got.Status != domain.ContractCancelled {
		t.Errorf("contract status = %s, want cancelled", got.Status)
	}
	a, _ := env.store.Assets().GetByID(ctx, asset.ID)
	if a.Status != domain.AssetAvailable {
		t.Errorf("asset status = %s, want available", a.Status)
	}

	// Cancelling again is a no-op.
	if err := env.contracts.CancelContract(ctx, contract.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
}

func TestCancelFutureContractKeepsAssetRented(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	if _, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday.AddDays(-1),
		End:      testToday.AddDays(5),
	}); err != nil {
		t.Fatalf("current booking: %v", err)
	}
	future, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday.AddDays(10),
		End:      testToday.AddDays(20),
	})
	if err != nil {
		t.Fatalf("future booking: %v", err)
	}

	if err := env.contracts.CancelContract(ctx, future.ID); err != nil {
		t.Fatalf("CancelContract: %v", err)
	}

	a, _ := env.store.Assets().GetByID(ctx, asset.ID)
	if a.Status != domain.AssetRented {
		t.Errorf("asset status = %s, want rented while current contract covers today", a.Status)
	}
}

func TestCancelContractNotFound(t *testing.T) {
	env := newContractEnv(t)
	if err := env.contracts.CancelContract(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestContractSummary(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")

	contract, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(5),
		Deposit:  50000,
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	summary, err := env.contracts.Summary(ctx, contract.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Asset.ID != asset.ID || summary.Tenant.ID != tenant.ID {
		t.Errorf("summary references wrong parties: %+v", summary)
	}
	if len(summary.Payments) != 1 {
		t.Errorf("summary payments = %d, want 1", len(summary.Payments))
	}
	if summary.Balance.Outstanding != 450000 {
		t.Errorf("outstanding = %v, want 450000", summary.Balance.Outstanding)
	}
}
