package service

import (
	"context"
	"log/slog"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/observability/metrics"
)

// PaymentService is the payment ledger: it records payments against
// contracts and derives outstanding balances. It never touches a contract's
// total price.
type PaymentService struct {
	store  domain.Store
	bus    *EventBus
	logger *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(store domain.Store, bus *EventBus, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{store: store, bus: bus, logger: logger}
}

// RecordPayment appends a payment to a contract's ledger.
func (s *PaymentService) RecordPayment(ctx context.Context, contractID int64, amount float64, date domain.Date, note string) (*domain.Payment, error) {
	if _, err := s.store.Contracts().GetByID(ctx, contractID); err != nil {
		metrics.ObservePayment("record", "not_found")
		return nil, err
	}
	if amount <= 0 {
		metrics.ObservePayment("record", "invalid")
		return nil, domain.ErrInvalidAmount
	}

	payment := &domain.Payment{
		ContractID:  contractID,
		Amount:      amount,
		PaymentDate: date,
		Note:        note,
		Paid:        true,
	}
	if err := s.store.Payments().Create(ctx, payment); err != nil {
		metrics.ObservePayment("record", "error")
		return nil, domain.NewStoreError("record payment", err)
	}

	metrics.ObservePayment("record", "success")
	s.logger.Info("payment recorded",
		slog.Int64("payment_id", payment.ID),
		slog.Int64("contract_id", contractID),
		slog.Float64("amount", amount),
	)
	if s.bus != nil {
		s.bus.Publish(EventPaymentRecorded, payment)
	}
	return payment, nil
}

// OutstandingBalance derives the contract's balance from the ledger. The
// result may be negative on overpayment; it is reported as-is.
func (s *PaymentService) OutstandingBalance(ctx context.Context, contractID int64) (domain.Balance, error) {
	contract, err := s.store.Contracts().GetByID(ctx, contractID)
	if err != nil {
		return domain.Balance{}, err
	}
	paid, err := s.store.Payments().SumByContract(ctx, contractID)
	if err != nil {
		return domain.Balance{}, domain.NewStoreError("sum payments", err)
	}
	return domain.Balance{
		ContractID:  contractID,
		TotalPrice:  contract.TotalPrice,
		Paid:        paid,
		Outstanding: contract.TotalPrice - paid,
	}, nil
}

// ListPayments returns a contract's ledger entries.
func (s *PaymentService) ListPayments(ctx context.Context, contractID int64) ([]*domain.Payment, error) {
	if _, err := s.store.Contracts().GetByID(ctx, contractID); err != nil {
		return nil, err
	}
	payments, err := s.store.Payments().ListByContract(ctx, contractID)
	if err != nil {
		return nil, domain.NewStoreError("list payments", err)
	}
	return payments, nil
}

// UpdatePayment mutates a single ledger entry. Balance is always derived on
// read, so nothing needs invalidating here.
func (s *PaymentService) UpdatePayment(ctx context.Context, paymentID int64, amount float64, date domain.Date, note string) (*domain.Payment, error) {
	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		metrics.ObservePayment("update", "not_found")
		return nil, err
	}
	if amount <= 0 {
		metrics.ObservePayment("update", "invalid")
		return nil, domain.ErrInvalidAmount
	}

	payment.Amount = amount
	payment.PaymentDate = date
	payment.Note = note
	if err := s.store.Payments().Update(ctx, payment); err != nil {
		metrics.ObservePayment("update", "error")
		return nil, domain.NewStoreError("update payment", err)
	}
	metrics.ObservePayment("update", "success")
	return payment, nil
}

// DeletePayment removes a ledger entry.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentID int64) error {
	if _, err := s.store.Payments().GetByID(ctx, paymentID); err != nil {
		metrics.ObservePayment("delete", "not_found")
		return err
	}
	if err := s.store.Payments().Delete(ctx, paymentID); err != nil {
		metrics.ObservePayment("delete", "error")
		return domain.NewStoreError("delete payment", err)
	}
	metrics.ObservePayment("delete", "success")
	s.logger.Info("payment deleted", slog.Int64("payment_id", paymentID))
	return nil
}
