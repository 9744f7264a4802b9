package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/assetlease/internal/domain"
)

// DamageService tracks damage reported against rented assets.
type DamageService struct {
	store  domain.Store
	logger *slog.Logger
	clock  Clock
}

// NewDamageService creates a new damage report service.
func NewDamageService(store domain.Store, logger *slog.Logger, clock Clock) *DamageService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &DamageService{store: store, logger: logger, clock: clock}
}

// ReportDamage files a new damage report against a contract.
func (s *DamageService) ReportDamage(ctx context.Context, report *domain.DamageReport) (*domain.DamageReport, error) {
	if report.Description == "" {
		return nil, fmt.Errorf("description is required: %w", domain.ErrInvalidInput)
	}
	if report.RepairCost < 0 {
		return nil, fmt.Errorf("repair cost must not be negative: %w", domain.ErrInvalidInput)
	}
	contract, err := s.store.Contracts().GetByID(ctx, report.ContractID)
	if err != nil {
		return nil, err
	}
	if report.AssetID == 0 {
		report.AssetID = contract.AssetID
	} else if _, err := s.store.Assets().GetByID(ctx, report.AssetID); err != nil {
		return nil, err
	}

	report.Status = domain.DamagePending
	if report.ReportedDate.IsZero() {
		report.ReportedDate = domain.DateOf(s.clock())
	}
	if err := s.store.Damages().Create(ctx, report); err != nil {
		return nil, domain.NewStoreError("create damage report", err)
	}

	s.logger.Info("damage reported",
		slog.Int64("report_id", report.ID),
		slog.Int64("contract_id", report.ContractID),
		slog.String("severity", report.Severity),
	)
	return report, nil
}

// ListDamages returns all damage reports filed against a contract.
func (s *DamageService) ListDamages(ctx context.Context, contractID int64) ([]*domain.DamageReport, error) {
	reports, err := s.store.Damages().ListByContract(ctx, contractID)
	if err != nil {
		return nil, domain.NewStoreError("list damage reports", err)
	}
	return reports, nil
}

// UpdateDamage rewrites the mutable fields of a report.
func (s *DamageService) UpdateDamage(ctx context.Context, id int64, description, severity string, repairCost float64, reportedDate domain.Date) (*domain.DamageReport, error) {
	report, err := s.store.Damages().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if repairCost < 0 {
		return nil, fmt.Errorf("repair cost must not be negative: %w", domain.ErrInvalidInput)
	}

	report.Description = description
	report.Severity = severity
	report.RepairCost = repairCost
	if !reportedDate.IsZero() {
		report.ReportedDate = reportedDate
	}
	if err := s.store.Damages().Update(ctx, report); err != nil {
		return nil, domain.NewStoreError("update damage report", err)
	}
	return report, nil
}

// MarkRepaired closes a report, stamping the repair date.
func (s *DamageService) MarkRepaired(ctx context.Context, id int64) (*domain.DamageReport, error) {
	report, err := s.store.Damages().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	report.Status = domain.DamageRepaired
	report.RepairedDate = domain.DateOf(s.clock())
	if err := s.store.Damages().Update(ctx, report); err != nil {
		return nil, domain.NewStoreError("update damage report", err)
	}
	s.logger.Info("damage marked repaired", slog.Int64("report_id", id))
	return report, nil
}

// DeleteDamage removes a report.
func (s *DamageService) DeleteDamage(ctx context.Context, id int64) error {
	if _, err := s.store.Damages().GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.store.Damages().Delete(ctx, id); err != nil {
		return domain.NewStoreError("delete damage report", err)
	}
	return nil
}
