package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/service"
)

// AssetHandler serves the asset catalog endpoints.
type AssetHandler struct {
	assets *service.AssetService
	logger *slog.Logger
}

// NewAssetHandler creates an asset handler.
func NewAssetHandler(assets *service.AssetService, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{assets: assets, logger: logger}
}

type createAssetRequest struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	OwnerID     int64   `json:"ownerId"`
}

// Create handles POST /api/assets.
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	asset, err := h.assets.CreateAsset(r.Context(), service.CreateAssetInput{
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// List handles GET /api/assets with optional category, min_price, max_price
// and q filters.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AssetFilter{
		Category: r.URL.Query().Get("category"),
		MinPrice: queryFloat(r, "min_price"),
		MaxPrice: queryFloat(r, "max_price"),
		Keyword:  r.URL.Query().Get("q"),
	}

	assets, err := h.assets.ListAssets(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if assets == nil {
		assets = []*domain.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

// Get handles GET /api/assets/{id}.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	asset, err := h.assets.GetAsset(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// Delete handles DELETE /api/assets/{id}. An asset with an active contract
// is refused with the colliding contract in the conflict payload.
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.assets.DeleteAsset(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
