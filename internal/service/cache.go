package service

import (
	"context"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"

	"github.com/rs/zerolog"
)

// softCache wraps a ports.WalletCache so that no cache failure ever reaches the caller.
// Errors and timeouts on reads count as misses; on writes they are logged and dropped.
type softCache struct {
	inner   ports.WalletCache
	ttl     time.Duration
	timeout time.Duration
	log     zerolog.Logger
}

func newSoftCache(inner ports.WalletCache, ttl, timeout time.Duration, log zerolog.Logger) *softCache {
	return &softCache{inner: inner, ttl: ttl, timeout: timeout, log: log}
}

func (c *softCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *softCache) get(ctx context.Context, userID string) *domain.Wallet {
	if c.inner == nil {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	wallet, err := c.inner.Get(ctx, userID)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("wallet cache read failed, treating as miss")
		return nil
	}
	return wallet
}

// generation reports false when there is no cache or the counter could not be
// read. A caller without a generation must not fill the cache.
func (c *softCache) generation(ctx context.Context, userID string) (int64, bool) {
	if c.inner == nil {
		return 0, false
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	gen, err := c.inner.Generation(ctx, userID)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("wallet cache generation read failed")
		return 0, false
	}
	return gen, true
}

func (c *softCache) put(ctx context.Context, wallet *domain.Wallet, generation int64) {
	if c.inner == nil {
		return
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.inner.Set(ctx, wallet, generation, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("user_id", wallet.UserID).Msg("wallet cache write failed")
	}
}

// invalidate runs even when ctx is already cancelled: the store change it follows is committed.
func (c *softCache) invalidate(ctx context.Context, userID string) {
	if c.inner == nil {
		return
	}
	ctx, cancel := c.withTimeout(context.WithoutCancel(ctx))
	defer cancel()

	if err := c.inner.Invalidate(ctx, userID); err != nil {
		c.log.Warn().Err(err).Str("user_id", userID).Msg("wallet cache invalidation failed")
	}
}
