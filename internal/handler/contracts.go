package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/pricing"
	"github.com/yourorg/assetlease/internal/service"
)

// ContractHandler serves the contract lifecycle endpoints.
type ContractHandler struct {
	contracts *service.ContractService
	logger    *slog.Logger
}

// NewContractHandler creates a contract handler.
func NewContractHandler(contracts *service.ContractService, logger *slog.Logger) *ContractHandler {
	return &ContractHandler{contracts: contracts, logger: logger}
}

type createContractRequest struct {
	AssetID     int64       `json:"assetId"`
	TenantID    int64       `json:"tenantId"`
	TenantEmail string      `json:"tenantEmail"`
	StartDate   domain.Date `json:"startDate"`
	EndDate     domain.Date `json:"endDate"`
	Deposit     float64     `json:"deposit"`
	RentalType  string      `json:"rentalType"`
}

// Create handles POST /api/contracts.
func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createContractRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	contract, err := h.contracts.CreateContract(r.Context(), service.CreateContractInput{
		AssetID:     req.AssetID,
		TenantID:    req.TenantID,
		TenantEmail: req.TenantEmail,
		Start:       req.StartDate,
		End:         req.EndDate,
		Deposit:     req.Deposit,
		RentalType:  pricing.Basis(req.RentalType),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract)
}

// List handles GET /api/contracts with optional asset_id, tenant_id, status,
// from and until filters.
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ContractFilter{
		AssetID:  queryInt64(r, "asset_id"),
		TenantID: queryInt64(r, "tenant_id"),
		Status:   domain.ContractStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		filter.From = d
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		filter.Until = d
	}

	contracts, err := h.contracts.ListContracts(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if contracts == nil {
		contracts = []*domain.Contract{}
	}
	writeJSON(w, http.StatusOK, contracts)
}

// Get handles GET /api/contracts/{id}.
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	contract, err := h.contracts.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

// Summary handles GET /api/contracts/{id}/summary, the statement view with
// tenant, asset, payments and outstanding balance.
func (h *ContractHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	summary, err := h.contracts.Summary(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Cancel handles POST /api/contracts/{id}/cancel.
func (h *ContractHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.contracts.CancelContract(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
