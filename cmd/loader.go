package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/rentdash/internal/cache"
	cfgpkg "github.com/KaramelBytes/rentdash/internal/config"
	"github.com/KaramelBytes/rentdash/internal/dataset"
	"github.com/KaramelBytes/rentdash/internal/store"
	"github.com/KaramelBytes/rentdash/internal/utils"
)

// openSource builds the configured dataset loader behind the configured
// cache. The returned closer releases database and Redis connections.
func openSource(c *cfgpkg.Global) (*cache.Loader, func(), error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	opt := dataset.Options{Delimiter: c.DelimiterRune(), Sheet: c.SheetName}
	var (
		src  dataset.Loader
		name string
	)
	switch c.DatasetSource {
	case cfgpkg.SourceURL:
		src = dataset.NewHTTPLoader(c.DatasetURL, opt, dataset.HTTPOptions{
			Timeout:      time.Duration(c.HTTPTimeoutSec) * time.Second,
			RetryMax:     c.RetryMaxAttempts,
			RetryWaitMin: time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
			RetryWaitMax: time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
			MaxBytes:     int64(c.MaxBodyMB) << 20,
		})
		name = c.DatasetURL
	case cfgpkg.SourcePostgres:
		st, err := store.Open(c.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = st.Close() })
		src = store.Loader{Store: st}
		name = "postgres"
	default:
		path, err := utils.ExpandHome(c.DatasetPath)
		if err != nil {
			return nil, nil, err
		}
		src = dataset.FileLoader{Path: path, Options: opt}
		name = path
	}

	var cc cache.Cache
	switch c.CacheBackend {
	case cfgpkg.CacheRedis:
		r := cache.NewRedis(c.RedisAddr, c.RedisPassword, c.RedisDB, c.CacheTTL())
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := r.Ping(ctx); err != nil {
			slog.Warn("redis unreachable; loads will bypass the cache", "addr", c.RedisAddr, "err", err)
		}
		cancel()
		closers = append(closers, func() { _ = r.Close() })
		cc = r
	default:
		cc = cache.NewMemory(c.CacheTTL())
	}
	slog.Debug("dataset source", "kind", c.DatasetSource, "name", name, "cache", c.CacheBackend)
	return &cache.Loader{Source: src, Cache: cc, Name: name}, closeAll, nil
}

// loadDataset opens the configured source and loads it once.
func loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	src, closeFn, err := openSource(c)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}
