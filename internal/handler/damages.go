package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/service"
)

// DamageHandler serves the damage report endpoints.
type DamageHandler struct {
	damages *service.DamageService
	logger  *slog.Logger
}

// NewDamageHandler creates a damage report handler.
func NewDamageHandler(damages *service.DamageService, logger *slog.Logger) *DamageHandler {
	return &DamageHandler{damages: damages, logger: logger}
}

type damageRequest struct {
	Description  string      `json:"description"`
	Severity     string      `json:"severity"`
	RepairCost   float64     `json:"repairCost"`
	ReportedDate domain.Date `json:"reportedDate"`
}

// Report handles POST /api/contracts/{id}/damages.
func (h *DamageHandler) Report(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req damageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	report, err := h.damages.ReportDamage(r.Context(), &domain.DamageReport{
		ContractID:   contractID,
		Description:  req.Description,
		Severity:     req.Severity,
		RepairCost:   req.RepairCost,
		ReportedDate: req.ReportedDate,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// List handles GET /api/contracts/{id}/damages.
func (h *DamageHandler) List(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	reports, err := h.damages.ListDamages(r.Context(), contractID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if reports == nil {
		reports = []*domain.DamageReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// Update handles PUT /api/damages/{id}.
func (h *DamageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req damageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	report, err := h.damages.UpdateDamage(r.Context(), id, req.Description, req.Severity, req.RepairCost, req.ReportedDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// MarkRepaired handles POST /api/damages/{id}/repaired.
func (h *DamageHandler) MarkRepaired(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	report, err := h.damages.MarkRepaired(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /api/damages/{id}.
func (h *DamageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.damages.DeleteDamage(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
