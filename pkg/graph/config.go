package graph

// config.go defines the functional options accepted by Graph.PrepGS, a
// functional-options pattern. The graph has no generic type parameters of
// its own, so Option is a plain function type rather than a generic one.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Graph during PrepGS.
type Option func(*prepConfig)

type prepConfig struct {
	cacheMode  CacheMode
	cacheSlots int
	poolSize   int
	registry   *prometheus.Registry
	logger     *zap.Logger
}

func defaultPrepConfig() *prepConfig {
	return &prepConfig{
		cacheMode:  CacheModeNormal,
		cacheSlots: defaultCacheSlots,
		poolSize:   0, // 0 lets workerpool.New fall back to ants' default size (effectively unbounded)
		logger:     zap.NewNop(),
	}
}

// WithCacheMode selects the eviction discipline (default CacheModeNormal).
func WithCacheMode(mode CacheMode) Option {
	return func(c *prepConfig) { c.cacheMode = mode }
}

// WithCacheSlots sizes the cache in edge blocks rather than megabytes.
func WithCacheSlots(slots int) Option {
	return func(c *prepConfig) {
		if slots > 0 {
			c.cacheSlots = slots
		}
	}
}

// WithThreadPoolSize bounds the frontier executor's worker pool.
func WithThreadPoolSize(n int) Option {
	return func(c *prepConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (the default).
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *prepConfig) { c.registry = reg }
}

// WithLogger plugs an external zap.Logger. The graph never logs on the hot
// query path; the only event emitted is a debug record when PrepGS completes.
func WithLogger(l *zap.Logger) Option {
	return func(c *prepConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
