// Package service holds the auth and article use cases. Services return
// *apperr.Error values and never see HTTP types.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/knowledgehub/internal/utils"
)

// RevocationStore is the durable side of the registry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenHash string, exp time.Time) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RevocationCache is an optional fast path in front of the store.
type RevocationCache interface {
	Mark(ctx context.Context, tokenHash string, ttl time.Duration) error
	Has(ctx context.Context, tokenHash string) (bool, error)
}

// RevocationRegistry records logged-out tokens until their natural expiry.
// Tokens are keyed by their SHA-256 digest. The store is authoritative; a
// cache miss or cache error always falls through to it.
type RevocationRegistry struct {
	store RevocationStore
	cache RevocationCache
	now   func() time.Time
	log   *slog.Logger
}

func NewRevocationRegistry(store RevocationStore, cache RevocationCache, log *slog.Logger) *RevocationRegistry {
	return &RevocationRegistry{store: store, cache: cache, now: time.Now, log: log}
}

// Revoke is idempotent: revoking the same token twice keeps one entry.
func (r *RevocationRegistry) Revoke(ctx context.Context, token string, exp time.Time) error {
	hash := utils.HashToken(token)
	if err := r.store.Revoke(ctx, hash, exp); err != nil {
		return err
	}
	if r.cache != nil {
		if ttl := exp.Sub(r.now()); ttl > 0 {
			if err := r.cache.Mark(ctx, hash, ttl); err != nil {
				r.log.WarnContext(ctx, "revocation cache write failed", "err", err)
			}
		}
	}
	return nil
}

// IsRevoked reports whether token was revoked.
func (r *RevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	hash := utils.HashToken(token)
	if r.cache != nil {
		hit, err := r.cache.Has(ctx, hash)
		if err != nil {
			r.log.WarnContext(ctx, "revocation cache read failed", "err", err)
		} else if hit {
			return true, nil
		}
	}
	return r.store.Exists(ctx, hash)
}

// Sweep drops entries whose expiry has passed.
func (r *RevocationRegistry) Sweep(ctx context.Context) (int64, error) {
	return r.store.DeleteExpired(ctx, r.now().UTC())
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (r *RevocationRegistry) RunSweeper(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Hour
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				r.log.ErrorContext(ctx, "revocation sweep failed", "err", err)
				continue
			}
			if n > 0 {
				r.log.InfoContext(ctx, "revocation sweep", "removed", n)
			}
		}
	}
}

// RedisRevocationCache stores revoked token hashes as keys with a TTL equal
// to the token's remaining lifetime.
type RedisRevocationCache struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisRevocationCache(rdb *redis.Client, prefix string) *RedisRevocationCache {
	if prefix == "" {
		prefix = "kh:revoked"
	}
	return &RedisRevocationCache{rdb: rdb, prefix: prefix}
}

func (c *RedisRevocationCache) key(hash string) string { return c.prefix + ":" + hash }

func (c *RedisRevocationCache) Mark(ctx context.Context, tokenHash string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(tokenHash), 1, ttl).Err()
}

func (c *RedisRevocationCache) Has(ctx context.Context, tokenHash string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(tokenHash)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
