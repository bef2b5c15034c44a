package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-service/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultWalletKeyPrefix namespaces cached wallets: wallet:<userId>.
const DefaultWalletKeyPrefix = "wallet:"

// generationTTL keeps a user's invalidation counter alive far longer than any
// store read it has to outlast.
const generationTTL = 24 * time.Hour

// setIfGeneration writes the wallet only while the generation key still holds the
// value the reader saw before loading it. A missing counter reads as 0.
var setIfGeneration = goredis.NewScript(`
local gen = redis.call('GET', KEYS[1])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// WalletCache implements ports.WalletCache using Redis string keys holding JSON,
// plus a gen:<prefix><userId> counter bumped by every invalidation.
type WalletCache struct {
	client goredis.UniversalClient
	prefix string
}

// NewWalletCache creates a new Redis-backed wallet cache. An empty prefix selects the default.
func NewWalletCache(client goredis.UniversalClient, prefix string) *WalletCache {
	if prefix == "" {
		prefix = DefaultWalletKeyPrefix
	}
	return &WalletCache{
		client: client,
		prefix: prefix,
	}
}

func (c *WalletCache) key(userID string) string {
	return c.prefix + userID
}

func (c *WalletCache) generationKey(userID string) string {
	return "gen:" + c.prefix + userID
}

// Get retrieves a cached wallet by user id.
// Returns nil, nil if the key does not exist.
func (c *WalletCache) Get(ctx context.Context, userID string) (*domain.Wallet, error) {
	val, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis wallet get: %w", err)
	}

	var wallet domain.Wallet
	if err := json.Unmarshal(val, &wallet); err != nil {
		return nil, fmt.Errorf("decode cached wallet: %w", err)
	}
	return &wallet, nil
}

// Generation returns the user's invalidation counter, 0 if it was never bumped.
func (c *WalletCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis wallet generation: %w", err)
	}
	return gen, nil
}

// Set stores a wallet snapshot with TTL unless the user was invalidated after
// generation was read.
func (c *WalletCache) Set(ctx context.Context, wallet *domain.Wallet, generation int64, ttl time.Duration) error {
	payload, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}
	keys := []string{c.generationKey(wallet.UserID), c.key(wallet.UserID)}
	ttlMS := max(ttl.Milliseconds(), 1)
	if err := setIfGeneration.Run(ctx, c.client, keys, generation, payload, ttlMS).Err(); err != nil {
		return fmt.Errorf("redis wallet set: %w", err)
	}
	return nil
}

// Invalidate bumps the generation and drops the cached wallet in one MULTI.
func (c *WalletCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(userID))
		pipe.Expire(ctx, c.generationKey(userID), generationTTL)
		pipe.Del(ctx, c.key(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis wallet invalidate: %w", err)
	}
	return nil
}
