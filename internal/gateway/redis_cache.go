package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tableadmin/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SummaryKey is where the summary lives in redis.
const SummaryKey = "tableadmin:summary"

// RedisKV is the slice of the redis client the cache uses; *redis.Client
// satisfies it.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSummaryCache keeps the summary as a JSON string under SummaryKey.
type RedisSummaryCache struct {
	Client RedisKV
	Key    string
}

func NewRedisSummaryCache(c RedisKV) *RedisSummaryCache {
	return &RedisSummaryCache{Client: c, Key: SummaryKey}
}

func (r *RedisSummaryCache) Get(ctx context.Context) (domain.Summary, error) {
	raw, err := r.Client.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Summary{}, ErrCacheMiss
	}
	if err != nil {
		return domain.Summary{}, err
	}
	var s domain.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		// a corrupt value is as good as none
		return domain.Summary{}, ErrCacheMiss
	}
	return s, nil
}

func (r *RedisSummaryCache) Set(ctx context.Context, s domain.Summary, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, r.Key, raw, ttl).Err()
}

func (r *RedisSummaryCache) Invalidate(ctx context.Context) error {
	return r.Client.Del(ctx, r.Key).Err()
}
