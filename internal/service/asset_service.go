package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/pkg/cache"
)

const listCacheTTL = 30 * time.Second

// AssetService manages the asset catalog. Listings are briefly cached;
// anything that can change a listing invalidates the cache.
type AssetService struct {
	store    domain.Store
	resolver AccountResolver
	cache    *cache.Cache
	logger   *slog.Logger
}

// CreateAssetInput captures a new catalog entry. OwnerID zero assigns the
// asset to the resolved admin account.
type CreateAssetInput struct {
	Name        string
	Address     string
	Description string
	Price       float64
	Category    string
	OwnerID     int64
}

// NewAssetService creates a new asset service.
func NewAssetService(store domain.Store, resolver AccountResolver, listCache *cache.Cache, logger *slog.Logger) *AssetService {
	if logger == nil {
		logger = slog.Default()
	}
	if listCache == nil {
		listCache = cache.New()
	}
	return &AssetService{store: store, resolver: resolver, cache: listCache, logger: logger}
}

// CreateAsset registers a new rentable asset, initially available.
func (s *AssetService) CreateAsset(ctx context.Context, in CreateAssetInput) (*domain.Asset, error) {
	if in.Name == "" || in.Address == "" {
		return nil, fmt.Errorf("name and address are required: %w", domain.ErrInvalidInput)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("price must be positive: %w", domain.ErrInvalidInput)
	}

	ownerID := in.OwnerID
	if ownerID == 0 {
		admin, err := s.resolver.ResolveAdmin(ctx)
		if err != nil {
			return nil, err
		}
		ownerID = admin.ID
	}

	category := in.Category
	if category == "" {
		category = "real_estate"
	}
	asset := &domain.Asset{
		Name:        in.Name,
		Address:     in.Address,
		Description: in.Description,
		Price:       in.Price,
		Category:    category,
		Status:      domain.AssetAvailable,
		OwnerID:     ownerID,
	}
	if err := s.store.Assets().Create(ctx, asset); err != nil {
		return nil, domain.NewStoreError("create asset", err)
	}

	s.cache.Invalidate(assetListPrefix)
	s.logger.Info("asset created", slog.Int64("asset_id", asset.ID), slog.String("name", asset.Name))
	return asset, nil
}

// GetAsset retrieves an asset by id.
func (s *AssetService) GetAsset(ctx context.Context, id int64) (*domain.Asset, error) {
	return s.store.Assets().GetByID(ctx, id)
}

const assetListPrefix = "assets:"

// ListAssets returns assets matching the filter, served from a short-lived
// cache when possible.
func (s *AssetService) ListAssets(ctx context.Context, filter domain.AssetFilter) ([]*domain.Asset, error) {
	key := fmt.Sprintf("%s%s|%g|%g|%s", assetListPrefix, filter.Category, filter.MinPrice, filter.MaxPrice, filter.Keyword)
	if cached, ok := s.cache.Get(key); ok {
		if assets, ok := cached.([]*domain.Asset); ok {
			return assets, nil
		}
	}

	assets, err := s.store.Assets().List(ctx, filter)
	if err != nil {
		return nil, domain.NewStoreError("list assets", err)
	}
	s.cache.Set(key, assets, listCacheTTL)
	return assets, nil
}

// DeleteAsset removes an asset and cascades its contracts, payments and
// damage reports in one transaction. Deletion is refused while any active
// contract references the asset.
func (s *AssetService) DeleteAsset(ctx context.Context, id int64) error {
	if _, err := s.store.Assets().GetByID(ctx, id); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		active, err := tx.Contracts().ActiveByAsset(ctx, id)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return &domain.ConflictError{ContractID: active[0].ID, Range: active[0].Range()}
		}

		// Explicit, auditable cascade: payments and damages first, then
		// contracts, then the asset itself.
		contracts, err := tx.Contracts().List(ctx, domain.ContractFilter{AssetID: id})
		if err != nil {
			return err
		}
		for _, c := range contracts {
			if err := tx.Payments().DeleteByContract(ctx, c.ID); err != nil {
				return err
			}
			if err := tx.Damages().DeleteByContract(ctx, c.ID); err != nil {
				return err
			}
		}
		if err := tx.Contracts().DeleteByAsset(ctx, id); err != nil {
			return err
		}
		return tx.Assets().Delete(ctx, id)
	})
	if err != nil {
		return domain.NewStoreError("delete asset", err)
	}

	s.cache.Invalidate(assetListPrefix)
	s.logger.Info("asset deleted", slog.Int64("asset_id", id))
	return nil
}

// InvalidateListings drops cached asset listings. Called by the reconcile
// worker after it rewrites derived statuses.
func (s *AssetService) InvalidateListings() {
	s.cache.Invalidate(assetListPrefix)
}
