package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KaramelBytes/rentdash/internal/dataset"
)

// DefaultRedisKey is where the dataset envelope lives.
const DefaultRedisKey = "rentdash:dataset"

// Redis shares the dataset snapshot between dashboard processes.
type Redis struct {
	Rdb *redis.Client
	Key string
	TTL time.Duration
}

// envelope pairs the snapshot with the fingerprint it was loaded under.
type envelope struct {
	Fingerprint string           `json:"fingerprint"`
	Dataset     *dataset.Dataset `json:"dataset"`
}

// NewRedis connects to addr. The connection is established lazily.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &Redis{Rdb: rdb, Key: DefaultRedisKey, TTL: ttl}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.Rdb.Ping(ctx).Err()
}

func (r *Redis) Get(ctx context.Context, key string) (*dataset.Dataset, bool, error) {
	b, err := r.Rdb.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, false, fmt.Errorf("decode cached dataset: %w", err)
	}
	if env.Fingerprint != key || env.Dataset == nil {
		return nil, false, nil
	}
	return env.Dataset, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, ds *dataset.Dataset) error {
	b, err := json.Marshal(envelope{Fingerprint: key, Dataset: ds})
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := r.Rdb.Set(ctx, r.Key, b, r.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.Rdb.Del(ctx, r.Key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error { return r.Rdb.Close() }
