package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/service"
)

// AccountHandler serves the account endpoints.
type AccountHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an account handler.
func NewAccountHandler(accounts *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// Create handles POST /api/accounts.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.Email, req.Username, req.FullName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// Get handles GET /api/accounts/{id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}
