package cache

import (
	"context"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a resolved token may be served from cache.
const DefaultTTL = 30 * time.Second

// TokenCache maps token hashes to principal ids. A nil *TokenCache or one
// built with a nil client is valid and never hits. Redis errors count as
// misses.
type TokenCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTokenCache wraps rdb, which may be nil.
func NewTokenCache(rdb *redis.Client, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client is attached.
func (c *TokenCache) Enabled() bool { return c != nil && c.rdb != nil }

func tokenKey(hash []byte) string { return "token:" + hex.EncodeToString(hash) }

func principalKey(id int64) string { return "token:principal:" + strconv.FormatInt(id, 10) }

// Get returns the cached principal id for hash.
func (c *TokenCache) Get(ctx context.Context, hash []byte) (int64, bool) {
	if !c.Enabled() {
		return 0, false
	}
	id, err := c.rdb.Get(ctx, tokenKey(hash)).Int64()
	if err != nil {
		return 0, false
	}
	return id, true
}

// Put remembers that hash resolves to principalID.
func (c *TokenCache) Put(ctx context.Context, hash []byte, principalID int64) {
	if !c.Enabled() {
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, tokenKey(hash), principalID, c.ttl)
	pipe.SAdd(ctx, principalKey(principalID), hex.EncodeToString(hash))
	pipe.Expire(ctx, principalKey(principalID), c.ttl)
	_, _ = pipe.Exec(ctx)
}

// Invalidate drops every cached hash of principalID plus the extra hashes
// given.
func (c *TokenCache) Invalidate(ctx context.Context, principalID int64, hashes ...[]byte) {
	if !c.Enabled() {
		return
	}
	keys := make([]string, 0, len(hashes)+4)
	for _, h := range hashes {
		if len(h) > 0 {
			keys = append(keys, tokenKey(h))
		}
	}
	if members, err := c.rdb.SMembers(ctx, principalKey(principalID)).Result(); err == nil {
		for _, m := range members {
			keys = append(keys, "token:"+m)
		}
	}
	keys = append(keys, principalKey(principalID))
	_ = c.rdb.Del(ctx, keys...).Err()
}
