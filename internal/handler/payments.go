package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/service"
)

// PaymentHandler serves the payment ledger endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	logger   *slog.Logger
}

// NewPaymentHandler creates a payment handler.
func NewPaymentHandler(payments *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

type paymentRequest struct {
	Amount      float64     `json:"amount"`
	PaymentDate domain.Date `json:"paymentDate"`
	Note        string      `json:"note"`
}

// Record handles POST /api/contracts/{id}/payments.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	payment, err := h.payments.RecordPayment(r.Context(), contractID, req.Amount, req.PaymentDate, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// List handles GET /api/contracts/{id}/payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	payments, err := h.payments.ListPayments(r.Context(), contractID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// Balance handles GET /api/contracts/{id}/balance. A negative outstanding
// balance means the tenant has overpaid.
func (h *PaymentHandler) Balance(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	balance, err := h.payments.OutstandingBalance(r.Context(), contractID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// Update handles PUT /api/payments/{id}.
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	payment, err := h.payments.UpdatePayment(r.Context(), id, req.Amount, req.PaymentDate, req.Note)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// Delete handles DELETE /api/payments/{id}.
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.payments.DeletePayment(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
