package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/assetlease/internal/domain"
	"github.com/yourorg/assetlease/internal/infrastructure/redis"
	"github.com/yourorg/assetlease/internal/reliability/retry"
)

var errLockHeld = errors.New("lock held")

// RedisAssetLocker implements domain.AssetLocker with a per-asset Redis
// key (SET NX with TTL). Acquisition retries with backoff for a bounded
// time and surfaces ErrBusy instead of waiting forever; the TTL guarantees
// a crashed holder cannot wedge an asset.
type RedisAssetLocker struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
	retry  *retry.Config
}

// NewRedisAssetLocker creates a locker with the given lock TTL.
func NewRedisAssetLocker(client *redis.Client, logger *slog.Logger, ttl time.Duration) *RedisAssetLocker {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisAssetLocker{
		client: client,
		logger: logger,
		ttl:    ttl,
		retry: &retry.Config{
			MaxAttempts:       5,
			InitialBackoff:    50 * time.Millisecond,
			MaxBackoff:        time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

// Acquire takes the per-asset lock, retrying briefly on contention.
func (l *RedisAssetLocker) Acquire(ctx context.Context, assetID int64) (func(), error) {
	key := fmt.Sprintf("assetlock:%d", assetID)
	token := uuid.NewString()

	_, err := retry.Do(ctx, l.retry, l.logger, "acquire asset lock", func(ctx context.Context) (struct{}, error) {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, errLockHeld
		}
		return struct{}{}, nil
	})
	if err != nil {
		if errors.Is(err, errLockHeld) {
			return nil, fmt.Errorf("asset %d locked by concurrent booking: %w", assetID, domain.ErrBusy)
		}
		return nil, domain.NewStoreError("acquire asset lock", err)
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.client.DeleteIfEquals(ctx, key, token); err != nil {
			// The TTL will reclaim the lock; just note the failure.
			l.logger.Warn("failed to release asset lock",
				slog.Int64("asset_id", assetID),
				slog.String("error", err.Error()),
			)
		}
	}
	return release, nil
}
