package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/repository/memory"
	"github.com/yourorg/assetlease/pkg/cache"
)

func newAssetEnv(t *testing.T) (*memory.Store, *AccountService, *AssetService) {
	t.Helper()
	log := testLogger()
	store := memory.NewStore()
	accounts := NewAccountService(store, log)
	assets := NewAssetService(store, accounts, cache.New(), log)
	return store, accounts, assets
}

func TestCreateAssetDefaults(t *testing.T) {
	_, _, assets := newAssetEnv(t)
	ctx := context.Background()

	asset, err := assets.CreateAsset(ctx, CreateAssetInput{
		Name:    "Harbor loft",
		Address: "3 Pier Ave",
		Price:   250000,
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if asset.Category != "real_estate" {
		t.Errorf("category = %s, want real_estate default", asset.Category)
	}
	if asset.Status != domain.AssetAvailable {
		t.Errorf("status = %s, want available", asset.Status)
	}
	if asset.OwnerID == 0 {
		t.Error("owner not assigned to the admin account")
	}
}

func TestCreateAssetValidation(t *testing.T) {
	_, _, assets := newAssetEnv(t)
	ctx := context.Background()

	cases := []CreateAssetInput{
		{Address: "3 Pier Ave", Price: 100},
		{Name: "Harbor loft", Price: 100},
		{Name: "Harbor loft", Address: "3 Pier Ave"},
		{Name: "Harbor loft", Address: "3 Pier Ave", Price: -5},
	}
	for i, in := range cases {
		if _, err := assets.CreateAsset(ctx, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestListAssetsServesFromCache(t *testing.T) {
	store, _, assets := newAssetEnv(t)
	ctx := context.Background()

	if _, err := assets.CreateAsset(ctx, CreateAssetInput{Name: "A", Address: "1", Price: 100}); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	first, err := assets.ListAssets(ctx, domain.AssetFilter{})
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("listed %d assets, want 1", len(first))
	}

	// A write bypassing the service is invisible until the cache is dropped.
	extra := &domain.Asset{Name: "B", Address: "2", Price: 200, Category: "real_estate", Status: domain.AssetAvailable, OwnerID: 1}
	if err := store.Assets().Create(ctx, extra); err != nil {
		t.Fatalf("direct create: %v", err)
	}

	second, _ := assets.ListAssets(ctx, domain.AssetFilter{})
	if len(second) != 1 {
		t.Fatalf("listed %d assets, want cached 1", len(second))
	}

	assets.InvalidateListings()
	third, _ := assets.ListAssets(ctx, domain.AssetFilter{})
	if len(third) != 2 {
		t.Fatalf("listed %d assets after invalidation, want 2", len(third))
	}
}

func TestDeleteAssetRefusedWhileActiveContract(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")
	assets := NewAssetService(env.store, env.accounts, cache.New(), testLogger())

	contract, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(5),
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}

	err = assets.DeleteAsset(ctx, asset.ID)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if conflict.ContractID != contract.ID {
		t.Errorf("conflict contract = %d, want %d", conflict.ContractID, contract.ID)
	}

	if _, err := env.store.Assets().GetByID(ctx, asset.ID); err != nil {
		t.Fatalf("asset should survive refused delete: %v", err)
	}
}

func TestDeleteAssetCascades(t *testing.T) {
	env := newContractEnv(t)
	ctx := context.Background()
	asset := env.seedAsset(t, 100000)
	tenant := env.seedTenant(t, "maria@example.com")
	assets := NewAssetService(env.store, env.accounts, cache.New(), testLogger())
	damages := NewDamageService(env.store, testLogger(), nil)

	contract, err := env.contracts.CreateContract(ctx, CreateContractInput{
		AssetID:  asset.ID,
		TenantID: tenant.ID,
		Start:    testToday,
		End:      testToday.AddDays(5),
		Deposit:  50000,
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	report, err := damages.ReportDamage(ctx, &domain.DamageReport{
		ContractID:  contract.ID,
		Description: "broken window",
		Severity:    "minor",
	})
	if err != nil {
		t.Fatalf("ReportDamage: %v", err)
	}

	if err := env.contracts.CancelContract(ctx, contract.ID); err != nil {
		t.Fatalf("CancelContract: %v", err)
	}
	if err := assets.DeleteAsset(ctx, asset.ID); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}

	if _, err := env.store.Assets().GetByID(ctx, asset.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("asset err = %v, want ErrNotFound", err)
	}
	if _, err := env.store.Contracts().GetByID(ctx, contract.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("contract err = %v, want ErrNotFound", err)
	}
	payments, _ := env.store.Payments().ListByContract(ctx, contract.ID)
	if len(payments) != 0 {
		t.Errorf("payments left after cascade: %d", len(payments))
	}
	if _, err := env.store.Damages().GetByID(ctx, report.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("damage report err = %v, want ErrNotFound", err)
	}
}

func TestDeleteAssetNotFound(t *testing.T) {
	_, _, assets := newAssetEnv(t)
	if err := assets.DeleteAsset(context.Background(), 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
