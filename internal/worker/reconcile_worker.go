package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/featureflags"
	"github.com/yourorg/assetlease/internal/observability/metrics"
	"github.com/yourorg/assetlease/internal/service"
)

// ReconcileWorker periodically ages out contracts whose end date has passed
// and recomputes each asset's derived status. Asset status is a materialized
// view of the active contracts; the booking path keeps it fresh for changes
// it makes, the worker handles the ones driven purely by the calendar (a
// contract window opening or closing overnight).
type ReconcileWorker struct {
	store      domain.Store
	bus        *service.EventBus
	logger     *slog.Logger
	clock      service.Clock
	interval   time.Duration
	invalidate func()
}

// NewReconcileWorker creates a worker sweeping every interval. invalidate is
// called after a sweep that changed anything, so cached listings refresh.
func NewReconcileWorker(
	store domain.Store,
	bus *service.EventBus,
	logger *slog.Logger,
	clock service.Clock,
	interval time.Duration,
	invalidate func(),
) *ReconcileWorker {
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if invalidate == nil {
		invalidate = func() {}
	}
	return &ReconcileWorker{
		store:      store,
		bus:        bus,
		logger:     logger,
		clock:      clock,
		interval:   interval,
		invalidate: invalidate,
	}
}

// Start runs the sweep loop until ctx is cancelled. It sweeps once
// immediately so a restart catches up without waiting a full interval.
func (w *ReconcileWorker) Start(ctx context.Context) {
	w.logger.Info("reconcile worker started", slog.Duration("interval", w.interval))

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReconcileWorker) sweep(ctx context.Context) {
	changed, err := w.RunOnce(ctx)
	if err != nil {
		metrics.ObserveReconcile("error")
		w.logger.Error("reconcile sweep failed", slog.String("error", err.Error()))
		return
	}
	metrics.ObserveReconcile("success")
	if changed > 0 {
		w.invalidate()
	}
}

type sweepEvent struct {
	eventType service.EventType
	payload   any
}

// RunOnce performs a single sweep and returns how many rows it changed.
// Events are collected during the transaction and published only after it
// commits, so subscribers never see a rolled-back write.
func (w *ReconcileWorker) RunOnce(ctx context.Context) (int, error) {
	today := domain.DateOf(w.clock())
	dryRun := featureflags.Enabled("reconcile_dry_run")

	var (
		changed int
		active  int
		rented  int
		events  []sweepEvent
	)
	err := w.store.WithinTx(ctx, func(tx domain.Store) error {
		expired, err := tx.Contracts().List(ctx, domain.ContractFilter{Status: domain.ContractActive, Until: today.AddDays(-1)})
		if err != nil {
			return err
		}
		for _, c := range expired {
			if !c.EndDate.Before(today.Time) {
				continue
			}
			if dryRun {
				w.logger.Info("would end contract", slog.Int64("contract_id", c.ID), slog.String("end_date", c.EndDate.String()))
				continue
			}
			if err := tx.Contracts().UpdateStatus(ctx, c.ID, domain.ContractEnded); err != nil {
				return err
			}
			changed++
			events = append(events, sweepEvent{service.EventContractEnded, map[string]any{
				"contract_id": c.ID,
				"asset_id":    c.AssetID,
			}})
			w.logger.Info("contract ended", slog.Int64("contract_id", c.ID), slog.Int64("asset_id", c.AssetID))
		}

		assets, err := tx.Assets().List(ctx, domain.AssetFilter{})
		if err != nil {
			return err
		}
		for _, a := range assets {
			activeContracts, err := tx.Contracts().ActiveByAsset(ctx, a.ID)
			if err != nil {
				return err
			}
			active += len(activeContracts)

			status := domain.ResolveAssetStatus(activeContracts, today)
			if status == domain.AssetRented {
				rented++
			}
			if status == a.Status {
				continue
			}
			if dryRun {
				w.logger.Info("would update asset status",
					slog.Int64("asset_id", a.ID),
					slog.String("from", string(a.Status)),
					slog.String("to", string(status)))
				continue
			}
			if err := tx.Assets().UpdateStatus(ctx, a.ID, status); err != nil {
				return err
			}
			changed++
			events = append(events, sweepEvent{service.EventAssetStatus, map[string]any{
				"asset_id": a.ID,
				"status":   string(status),
			}})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, e := range events {
		w.bus.Publish(e.eventType, e.payload)
	}
	metrics.SetActiveContracts(active)
	metrics.SetRentedAssets(rented)
	return changed, nil
}
