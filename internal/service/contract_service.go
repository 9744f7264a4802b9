package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/observability/metrics"
	"github.com/yourorg/assetlease/internal/pricing"
	"github.com/yourorg/assetlease/internal/reliability/circuitbreaker"
)

// Clock supplies "now" so tests can pin the current day.
type Clock func() time.Time

// ContractService orchestrates contract creation and cancellation: range
// validation, availability check, pricing, deposit booking, and the derived
// asset status, all behind a per-asset lock plus a store transaction.
type ContractService struct {
	store    domain.Store
	locker   domain.AssetLocker
	resolver AccountResolver
	bus      *EventBus
	breaker  *circuitbreaker.CircuitBreaker
	logger   *slog.Logger
	clock    Clock
}

// CreateContractInput captures a booking request. Either TenantID or
// TenantEmail identifies the tenant; email triggers auto-provisioning.
type CreateContractInput struct {
	AssetID     int64
	TenantID    int64
	TenantEmail string
	Start       domain.Date
	End         domain.Date
	Deposit     float64
	RentalType  pricing.Basis
}

// ContractSummary is the data view of a contract used for statements.
type ContractSummary struct {
	Contract *domain.Contract  `json:"contract"`
	Asset    *domain.Asset     `json:"asset"`
	Tenant   *domain.Account   `json:"tenant"`
	Payments []*domain.Payment `json:"payments"`
	Balance  domain.Balance    `json:"balance"`
}

// NewContractService creates a new contract service.
func NewContractService(
	store domain.Store,
	locker domain.AssetLocker,
	resolver AccountResolver,
	bus *EventBus,
	breaker *circuitbreaker.CircuitBreaker,
	logger *slog.Logger,
	clock Clock,
) *ContractService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &ContractService{
		store:    store,
		locker:   locker,
		resolver: resolver,
		bus:      bus,
		breaker:  breaker,
		logger:   logger,
		clock:    clock,
	}
}

// CreateContract books an asset for a date window. Validation failures are
// rejected before any write; the overlap check and all writes (contract,
// deposit payment, asset status) happen inside one transaction while the
// per-asset lock is held, so two racing bookings can never both succeed.
func (s *ContractService) CreateContract(ctx context.Context, in CreateContractInput) (*domain.Contract, error) {
	start := time.Now()
	contract, err := s.createContract(ctx, in)
	metrics.ObserveBooking(bookingResult(err), time.Since(start))
	return contract, err
}

func (s *ContractService) createContract(ctx context.Context, in CreateContractInput) (*domain.Contract, error) {
	rng := domain.DateRange{Start: in.Start, End: in.End}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	if in.Deposit < 0 {
		return nil, domain.ErrInvalidDeposit
	}

	if s.breaker != nil && !s.breaker.AllowRequest() {
		s.logger.Warn("booking rejected, store circuit open", slog.Int64("asset_id", in.AssetID))
		return nil, domain.ErrBusy
	}

	asset, err := s.store.Assets().GetByID(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}

	tenant, err := s.resolveTenant(ctx, in)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, asset.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	today := domain.DateOf(s.clock())
	contract := &domain.Contract{
		AssetID:    asset.ID,
		TenantID:   tenant.ID,
		StartDate:  rng.Start,
		EndDate:    rng.End,
		TotalPrice: pricing.Total(rng, in.RentalType, asset.Price),
		Deposit:    in.Deposit,
		Status:     domain.ContractActive,
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		colliding, err := tx.Contracts().FindOverlap(ctx, asset.ID, rng, 0)
		if err != nil {
			return err
		}
		if colliding != nil {
			return &domain.ConflictError{ContractID: colliding.ID, Range: colliding.Range()}
		}

		if err := tx.Contracts().Create(ctx, contract); err != nil {
			return err
		}

		if in.Deposit > 0 {
			deposit := &domain.Payment{
				ContractID:  contract.ID,
				Amount:      in.Deposit,
				PaymentDate: today,
				Note:        "Deposit (auto)",
				Paid:        true,
			}
			if err := tx.Payments().Create(ctx, deposit); err != nil {
				return err
			}
		}

		// Recompute the derived status from the contracts now on record,
		// not from the asset row read before the lock was taken. A contract
		// scheduled entirely in the future leaves the asset available until
		// its window begins.
		return reconcileAssetStatus(ctx, tx, asset.ID, today)
	})
	if err != nil {
		wrapped := domain.NewStoreError("create contract", err)
		s.recordBreaker(wrapped)
		return nil, wrapped
	}
	s.recordBreaker(nil)

	s.logger.Info("contract created",
		slog.Int64("contract_id", contract.ID),
		slog.Int64("asset_id", asset.ID),
		slog.Int64("tenant_id", tenant.ID),
		slog.String("range", rng.String()),
		slog.Float64("total_price", contract.TotalPrice),
	)
	if s.bus != nil {
		s.bus.Publish(EventContractCreated, contract)
	}
	return contract, nil
}

// CancelContract transitions a contract to cancelled and recomputes the
// owning asset's status from the remaining active contracts. An asset stays
// rented when another active contract still covers today.
func (s *ContractService) CancelContract(ctx context.Context, contractID int64) error {
	contract, err := s.store.Contracts().GetByID(ctx, contractID)
	if err != nil {
		return err
	}
	if contract.Status == domain.ContractCancelled {
		return nil
	}

	today := domain.DateOf(s.clock())
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Contracts().UpdateStatus(ctx, contract.ID, domain.ContractCancelled); err != nil {
			return err
		}
		return reconcileAssetStatus(ctx, tx, contract.AssetID, today)
	})
	if err != nil {
		wrapped := domain.NewStoreError("cancel contract", err)
		s.recordBreaker(wrapped)
		return wrapped
	}
	s.recordBreaker(nil)

	s.logger.Info("contract cancelled", slog.Int64("contract_id", contract.ID), slog.Int64("asset_id", contract.AssetID))
	if s.bus != nil {
		s.bus.Publish(EventContractCancelled, contract)
	}
	return nil
}

// GetContract retrieves a contract by id.
func (s *ContractService) GetContract(ctx context.Context, contractID int64) (*domain.Contract, error) {
	return s.store.Contracts().GetByID(ctx, contractID)
}

// ListContracts returns contracts matching the filter. Read-only.
func (s *ContractService) ListContracts(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	contracts, err := s.store.Contracts().List(ctx, filter)
	if err != nil {
		return nil, domain.NewStoreError("list contracts", err)
	}
	return contracts, nil
}

// Summary assembles a contract statement: parties, ledger and balance.
func (s *ContractService) Summary(ctx context.Context, contractID int64) (*ContractSummary, error) {
	contract, err := s.store.Contracts().GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	asset, err := s.store.Assets().GetByID(ctx, contract.AssetID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.store.Accounts().GetByID(ctx, contract.TenantID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments().ListByContract(ctx, contractID)
	if err != nil {
		return nil, domain.NewStoreError("list payments", err)
	}

	var paid float64
	for _, p := range payments {
		paid += p.Amount
	}
	return &ContractSummary{
		Contract: contract,
		Asset:    asset,
		Tenant:   tenant,
		Payments: payments,
		Balance: domain.Balance{
			ContractID:  contractID,
			TotalPrice:  contract.TotalPrice,
			Paid:        paid,
			Outstanding: contract.TotalPrice - paid,
		},
	}, nil
}

func (s *ContractService) resolveTenant(ctx context.Context, in CreateContractInput) (*domain.Account, error) {
	if in.TenantID > 0 {
		return s.store.Accounts().GetByID(ctx, in.TenantID)
	}
	if in.TenantEmail == "" {
		return nil, fmt.Errorf("tenant reference missing: %w", domain.ErrNotFound)
	}
	return s.resolver.ResolveOrCreateTenant(ctx, in.TenantEmail)
}

// recordBreaker feeds the store circuit breaker. Only persistence failures
// count; validation and conflict rejections are healthy behavior.
func (s *ContractService) recordBreaker(err error) {
	if s.breaker == nil {
		return
	}
	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) {
		s.breaker.RecordFailure()
		return
	}
	s.breaker.RecordSuccess()
}

// reconcileAssetStatus recomputes the derived status column for one asset.
// Shared by cancellation and the periodic reconcile worker.
func reconcileAssetStatus(ctx context.Context, tx domain.Store, assetID int64, today domain.Date) error {
	active, err := tx.Contracts().ActiveByAsset(ctx, assetID)
	if err != nil {
		return err
	}
	asset, err := tx.Assets().GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	status := domain.ResolveAssetStatus(active, today)
	if asset.Status == status {
		return nil
	}
	return tx.Assets().UpdateStatus(ctx, assetID, status)
}

func bookingResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrInvalidDeposit):
		return "invalid"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			return "conflict"
		}
		return "error"
	}
}
