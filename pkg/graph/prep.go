package graph

// prep.go implements PrepGS: the transition from "vertex records loaded,
// edge blocks still only reachable through the serializer" to "ready for
// concurrent point queries and frontier traversal".

import (
	"fmt"

	"github.com/blockgraph/blockgraph/internal/blockcache"
	"github.com/blockgraph/blockgraph/internal/simplecache"
	"github.com/blockgraph/blockgraph/internal/workerpool"
	"go.uber.org/zap"
)

// PrepGS builds the cache and worker pool backing this graph's queries and
// traversals. It must be called once, after Open, before any query or
// process-queue method. Calling it twice is an error. ClearCache empties a
// prepped graph's cache but does not rebuild, resize or switch it.
//
// The cache mode and size chosen earlier with SetCacheMode, DisableCache or
// SetCacheSizeMB/SetCacheSizeRatio are used unless an Option overrides them.
func (g *Graph) PrepGS(opts ...Option) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.prepped {
		return fmt.Errorf("graph: PrepGS already called")
	}
	if g.ser == nil {
		return fmt.Errorf("graph: PrepGS called before Open (no serializer bound)")
	}

	cfg := defaultPrepConfig()
	cfg.cacheMode = g.cacheMode
	if g.cacheSlots > 0 {
		cfg.cacheSlots = g.cacheSlots
	}
	for _, opt := range opts {
		opt(cfg)
	}

	g.cacheMode = cfg.cacheMode
	g.cacheSlots = cfg.cacheSlots
	g.metrics = newMetrics(cfg.registry)
	g.logger = cfg.logger

	blockBytes := g.edgeBlockCapacity * 4
	switch g.cacheMode {
	case CacheModeSimple:
		g.simpleCache = simplecache.New(cfg.cacheSlots, blockBytes, g.ser)
		g.simpleCache.SetEvictCallback(g.metrics.incEviction)
	case CacheModeNormal:
		g.blockCache = blockcache.New(cfg.cacheSlots, blockBytes, g.ser)
		g.blockCache.SetEvictCallback(g.metrics.incEviction)
	case CacheModeNone:
		// No cache to build; every read goes straight to the serializer.
	default:
		return fmt.Errorf("graph: unknown cache mode %d", g.cacheMode)
	}

	pool, err := workerpool.New(cfg.poolSize)
	if err != nil {
		return fmt.Errorf("graph: build worker pool: %w", err)
	}
	g.pool = pool

	g.prepped = true
	g.logger.Debug("graph prepared",
		zap.Int("num_nodes", g.numNodes),
		zap.Int("num_edge_blocks", g.numEdgeBlocks),
		zap.Int("cache_mode", int(g.cacheMode)),
		zap.Int("cache_slots", g.cacheSlots),
	)
	return nil
}
