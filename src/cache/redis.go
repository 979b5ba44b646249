package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vidcheck:verify:"

// RedisLevel is an optional shared cache level backed by Redis. All methods
// are nil-safe so callers can hold a nil *RedisLevel when Redis is not
// configured.
type RedisLevel struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLevel(rdb *redis.Client, ttl time.Duration) *RedisLevel {
	if rdb == nil {
		return nil
	}
	return &RedisLevel{rdb: rdb, ttl: ttl}
}

// Get unmarshals the cached payload for key into out.
func (r *RedisLevel) Get(ctx context.Context, key string, out any) bool {
	if r == nil {
		return false
	}
	data, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Set stores value under key with the level's TTL. Failures are ignored;
// Redis is a best-effort second level.
func (r *RedisLevel) Set(ctx context.Context, key string, value any) {
	if r == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.rdb.Set(ctx, redisKeyPrefix+key, data, r.ttl)
}

// Delete removes one key from the shared level.
func (r *RedisLevel) Delete(ctx context.Context, key string) {
	if r == nil {
		return
	}
	r.rdb.Del(ctx, redisKeyPrefix+key)
}

// Clear removes every vidcheck verification key.
func (r *RedisLevel) Clear(ctx context.Context) {
	if r == nil {
		return
	}
	iter := r.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		r.rdb.Del(ctx, iter.Val())
	}
}
