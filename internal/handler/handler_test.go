package handler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/assetlease/internal/repository/memory"
	"github.com/yourorg/assetlease/internal/service"
	"github.com/yourorg/assetlease/pkg/cache"
)

// newTestServer wires the full API over the in-memory store with a fixed
// clock, mirroring the production route table.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	locker := memory.NewLocker(100 * time.Millisecond)
	bus := service.NewEventBus(log)
	clock := func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC) }

	accounts := service.NewAccountService(store, log)
	assets := service.NewAssetService(store, accounts, cache.New(), log)
	contracts := service.NewContractService(store, locker, accounts, bus, nil, log, clock)
	payments := service.NewPaymentService(store, bus, log)
	damages := service.NewDamageService(store, log, clock)

	assetHandler := NewAssetHandler(assets, log)
	contractHandler := NewContractHandler(contracts, log)
	paymentHandler := NewPaymentHandler(payments, log)
	accountHandler := NewAccountHandler(accounts, log)
	damageHandler := NewDamageHandler(damages, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/assets", assetHandler.Create)
	mux.HandleFunc("GET /api/assets", assetHandler.List)
	mux.HandleFunc("GET /api/assets/{id}", assetHandler.Get)
	mux.HandleFunc("DELETE /api/assets/{id}", assetHandler.Delete)
	mux.HandleFunc("POST /api/contracts", contractHandler.Create)
	mux.HandleFunc("GET /api/contracts", contractHandler.List)
	mux.HandleFunc("GET /api/contracts/{id}", contractHandler.Get)
	mux.HandleFunc("GET /api/contracts/{id}/summary", contractHandler.Summary)
	mux.HandleFunc("POST /api/contracts/{id}/cancel", contractHandler.Cancel)
	mux.HandleFunc("POST /api/contracts/{id}/payments", paymentHandler.Record)
	mux.HandleFunc("GET /api/contracts/{id}/payments", paymentHandler.List)
	mux.HandleFunc("GET /api/contracts/{id}/balance", paymentHandler.Balance)
	mux.HandleFunc("PUT /api/payments/{id}", paymentHandler.Update)
	mux.HandleFunc("DELETE /api/payments/{id}", paymentHandler.Delete)
	mux.HandleFunc("POST /api/accounts", accountHandler.Create)
	mux.HandleFunc("GET /api/accounts", accountHandler.List)
	mux.HandleFunc("POST /api/contracts/{id}/damages", damageHandler.Report)
	mux.HandleFunc("GET /api/contracts/{id}/damages", damageHandler.List)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func createAsset(t *testing.T, srv *httptest.Server) int64 {
	t.Helper()
	resp, data := doJSON(t, srv, http.MethodPost, "/api/assets", map[string]any{
		"name":    "Lakeside flat",
		"address": "12 Shoreline Rd",
		"price":   100000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create asset: HTTP %d: %s", resp.StatusCode, data)
	}
	var asset struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	return asset.ID
}

func bookContract(t *testing.T, srv *httptest.Server, assetID int64, start, end string, deposit float64) (int64, []byte) {
	t.Helper()
	resp, data := doJSON(t, srv, http.MethodPost, "/api/contracts", map[string]any{
		"assetId":     assetID,
		"tenantEmail": "maria@example.com",
		"startDate":   start,
		"endDate":     end,
		"deposit":     deposit,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("book contract: HTTP %d: %s", resp.StatusCode, data)
	}
	var contract struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &contract); err != nil {
		t.Fatalf("decode contract: %v", err)
	}
	return contract.ID, data
}

func TestBookingFlow(t *testing.T) {
	srv := newTestServer(t)
	assetID := createAsset(t, srv)

	_, data := bookContract(t, srv, assetID, "2026-08-14", "2026-08-19", 50000)
	var contract struct {
		TotalPrice float64 `json:"totalPrice"`
		Status     string  `json:"status"`
	}
	if err := json.Unmarshal(data, &contract); err != nil {
		t.Fatalf("decode contract: %v", err)
	}
	if contract.TotalPrice != 500000 {
		t.Errorf("total = %v, want 500000", contract.TotalPrice)
	}
	if contract.Status != "active" {
		t.Errorf("status = %s, want active", contract.Status)
	}

	resp, data := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/assets/%d", assetID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get asset: HTTP %d", resp.StatusCode)
	}
	var asset struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}
	if asset.Status != "rented" {
		t.Errorf("asset status = %s, want rented", asset.Status)
	}
}

func TestBookingConflictPayload(t *testing.T) {
	srv := newTestServer(t)
	assetID := createAsset(t, srv)
	contractID, _ := bookContract(t, srv, assetID, "2026-08-14", "2026-08-19", 0)

	resp, data := doJSON(t, srv, http.MethodPost, "/api/contracts", map[string]any{
		"assetId":     assetID,
		"tenantEmail": "other@example.com",
		"startDate":   "2026-08-18",
		"endDate":     "2026-08-25",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("HTTP %d, want 409: %s", resp.StatusCode, data)
	}
	var body struct {
		Error      string `json:"error"`
		ContractID int64  `json:"contractId"`
		Start      string `json:"startDate"`
		End        string `json:"endDate"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if body.ContractID != contractID {
		t.Errorf("conflict contract = %d, want %d", body.ContractID, contractID)
	}
	if body.Start != "2026-08-14" || body.End != "2026-08-19" {
		t.Errorf("conflict window = %s..%s", body.Start, body.End)
	}
}

func TestBookingValidationStatusCodes(t *testing.T) {
	srv := newTestServer(t)
	assetID := createAsset(t, srv)

	resp, _ := doJSON(t, srv, http.MethodPost, "/api/contracts", map[string]any{
		"assetId":     assetID,
		"tenantEmail": "maria@example.com",
		"startDate":   "2026-08-20",
		"endDate":     "2026-08-20",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("degenerate range: HTTP %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/contracts", map[string]any{
		"assetId":     assetID,
		"tenantEmail": "maria@example.com",
		"startDate":   "2026-08-20",
		"endDate":     "2026-08-25",
		"deposit":     -1,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative deposit: HTTP %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, "/api/contracts", map[string]any{
		"assetId":     999,
		"tenantEmail": "maria@example.com",
		"startDate":   "2026-08-20",
		"endDate":     "2026-08-25",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown asset: HTTP %d, want 404", resp.StatusCode)
	}
}

func TestPaymentAndBalanceEndpoints(t *testing.T) {
	srv := newTestServer(t)
	assetID := createAsset(t, srv)
	contractID, _ := bookContract(t, srv, assetID, "2026-08-14", "2026-08-19", 50000)

	resp, data := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/contracts/%d/payments", contractID), map[string]any{
		"amount":      100000,
		"paymentDate": "2026-08-15",
		"note":        "first installment",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record payment: HTTP %d: %s", resp.StatusCode, data)
	}

	resp, data = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/contracts/%d/balance", contractID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance: HTTP %d", resp.StatusCode)
	}
	var balance struct {
		Paid        float64 `json:"paid"`
		Outstanding float64 `json:"outstanding"`
	}
	if err := json.Unmarshal(data, &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance.Paid != 150000 || balance.Outstanding != 350000 {
		t.Errorf("balance = %+v, want paid 150000 outstanding 350000", balance)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/contracts/%d/payments", contractID), map[string]any{
		"amount":      0,
		"paymentDate": "2026-08-15",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero amount: HTTP %d, want 400", resp.StatusCode)
	}
}

func TestDeleteAssetConflictAndCascade(t *testing.T) {
	srv := newTestServer(t)
	assetID := createAsset(t, srv)
	contractID, _ := bookContract(t, srv, assetID, "2026-08-14", "2026-08-19", 0)

	resp, _ := doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/assets/%d", assetID), nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("delete with active contract: HTTP %d, want 409", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/contracts/%d/cancel", contractID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: HTTP %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/assets/%d", assetID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete after cancel: HTTP %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/contracts/%d", contractID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cascaded contract: HTTP %d, want 404", resp.StatusCode)
	}
}

func TestContractSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	assetID := createAsset(t, srv)
	contractID, _ := bookContract(t, srv, assetID, "2026-08-14", "2026-08-19", 50000)

	resp, data := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/contracts/%d/summary", contractID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: HTTP %d", resp.StatusCode)
	}
	var summary struct {
		Asset struct {
			ID int64 `json:"id"`
		} `json:"asset"`
		Tenant struct {
			Email string `json:"email"`
		} `json:"tenant"`
		Payments []map[string]any `json:"payments"`
		Balance  struct {
			Outstanding float64 `json:"outstanding"`
		} `json:"balance"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Asset.ID != assetID {
		t.Errorf("summary asset = %d, want %d", summary.Asset.ID, assetID)
	}
	if summary.Tenant.Email != "maria@example.com" {
		t.Errorf("summary tenant = %s", summary.Tenant.Email)
	}
	if len(summary.Payments) != 1 {
		t.Errorf("summary payments = %d, want 1", len(summary.Payments))
	}
	if summary.Balance.Outstanding != 450000 {
		t.Errorf("outstanding = %v, want 450000", summary.Balance.Outstanding)
	}
}

func TestDamageEndpoints(t *testing.T) {
	srv := newTestServer(t)
	assetID := createAsset(t, srv)
	contractID, _ := bookContract(t, srv, assetID, "2026-08-14", "2026-08-19", 0)

	resp, data := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/contracts/%d/damages", contractID), map[string]any{
		"description": "broken window",
		"severity":    "major",
		"repairCost":  120000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("report damage: HTTP %d: %s", resp.StatusCode, data)
	}
	var report struct {
		AssetID int64  `json:"assetId"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.AssetID != assetID {
		t.Errorf("report asset = %d, want %d", report.AssetID, assetID)
	}
	if report.Status != "pending" {
		t.Errorf("report status = %s, want pending", report.Status)
	}

	resp, data = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/contracts/%d/damages", contractID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list damages: HTTP %d", resp.StatusCode)
	}
	var reports []map[string]any
	if err := json.Unmarshal(data, &reports); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("reports = %d, want 1", len(reports))
	}
}
