// Package cache keeps the loaded dataset between dashboard renders.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/KaramelBytes/rentdash/internal/dataset"
)

// Cache stores a single dataset snapshot under a fingerprint key.
// Get reports ok=false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*dataset.Dataset, bool, error)
	Set(ctx context.Context, key string, ds *dataset.Dataset) error
	Invalidate(ctx context.Context) error
}

// Memory is an in-process cache holding one entry.
type Memory struct {
	mu      sync.RWMutex
	key     string
	ds      *dataset.Dataset
	expires time.Time
	ttl     time.Duration
}

// NewMemory returns a memory cache; ttl <= 0 keeps entries until invalidated.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl}
}

func (m *Memory) Get(_ context.Context, key string) (*dataset.Dataset, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ds == nil || m.key != key {
		return nil, false, nil
	}
	if !m.expires.IsZero() && time.Now().After(m.expires) {
		return nil, false, nil
	}
	return m.ds, true, nil
}

func (m *Memory) Set(_ context.Context, key string, ds *dataset.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key, m.ds = key, ds
	m.expires = time.Time{}
	if m.ttl > 0 {
		m.expires = time.Now().Add(m.ttl)
	}
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key, m.ds = "", nil
	return nil
}

// Loader wraps a dataset.Loader with a cache keyed by the source fingerprint.
// Sources without a fingerprint are cached under Name until the TTL expires
// or the cache is invalidated.
type Loader struct {
	Source dataset.Loader
	Cache  Cache
	Name   string

	mu sync.Mutex
}

// Load returns the cached dataset when the source is unchanged, otherwise
// reloads it and stores the result. Cache failures degrade to a direct load.
func (l *Loader) Load(ctx context.Context) (*dataset.Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := l.key(ctx)
	if ds, ok, err := l.Cache.Get(ctx, key); err != nil {
		slog.Warn("dataset cache read failed", "err", err)
	} else if ok {
		slog.Debug("dataset cache hit", "key", key)
		return ds, nil
	}
	ds, err := l.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.Cache.Set(ctx, key, ds); err != nil {
		slog.Warn("dataset cache write failed", "err", err)
	}
	slog.Debug("dataset loaded", "key", key, "listings", ds.Len(), "dropped", ds.Dropped)
	return ds, nil
}

// Invalidate drops the cached snapshot so the next Load hits the source.
func (l *Loader) Invalidate(ctx context.Context) error {
	return l.Cache.Invalidate(ctx)
}

func (l *Loader) key(ctx context.Context) string {
	fp, ok := l.Source.(dataset.Fingerprinter)
	if !ok {
		return l.Name
	}
	k, err := fp.Fingerprint(ctx)
	if err != nil {
		slog.Warn("dataset fingerprint failed", "err", err)
		return l.Name
	}
	if k == "" {
		return l.Name
	}
	return k
}
