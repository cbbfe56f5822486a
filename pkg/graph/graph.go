package graph

import (
	"fmt"
	"sync"

	"github.com/blockgraph/blockgraph/internal/blockcache"
	"github.com/blockgraph/blockgraph/internal/simplecache"
	"github.com/blockgraph/blockgraph/internal/workerpool"
	"github.com/blockgraph/blockgraph/pkg/serializer"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheMode selects which eviction discipline backs edge-block reads.
type CacheMode int

const (
	// CacheModeNone bypasses caching entirely: every read goes straight to
	// the serializer. Useful for sequential, single-pass scans where
	// reuse is unlikely.
	CacheModeNone CacheMode = iota
	// CacheModeSimple uses the single-pin cache: at most one consumer holds
	// a given block at a time.
	CacheModeSimple
	// CacheModeNormal uses the multi-pin cache: many goroutines may share a
	// pinned block concurrently. The default.
	CacheModeNormal
)

const defaultCacheSlots = 64

// Graph is the immutable, query-ready graph produced by
// Builder.FinalizeEdgelist and (optionally) Graph.PrepGS. Vertex records and
// edge block contents never change after construction; only cache
// occupancy and pin state move.
type Graph struct {
	numNodes int
	numEdges uint64

	edgeBlockCapacity   int // uint32 slots per edge block
	vertexBlockCapacity int // records per vertex block
	numEdgeBlocks       int
	numVertexBlocks     int

	vertexRecords []VertexRecord
	reorder       map[int]int

	// pendingEdgeBlocks holds the freshly packed, not-yet-dumped edge
	// block payloads produced by FinalizeEdgelist. DumpGraph writes them
	// out and releases this slice (out-of-core: the packed layout cannot
	// be assumed to fit in memory once the graph grows beyond
	// construction-time scale).
	pendingEdgeBlocks [][]int32

	ser  serializer.Serializer
	mode serializer.Mode

	cacheMode  CacheMode
	cacheSlots int

	simpleCache *simplecache.Cache
	blockCache  *blockcache.Cache

	// readGroup coalesces concurrent CacheModeNone reads of the same block
	// id into a single serializer call.
	readGroup singleflight.Group

	pool *workerpool.Pool

	metrics *metrics
	logger  *zap.Logger

	prepped bool
	mu      sync.Mutex // guards cache (re)configuration, not the hot query path
}

// GetNumNodes returns N, the number of vertices.
func (g *Graph) GetNumNodes() int { return g.numNodes }

// GetDegree returns the degree of vertex v.
func (g *Graph) GetDegree(v int) (int, error) {
	if v < 0 || v >= len(g.vertexRecords) {
		return 0, fmt.Errorf("graph: vertex %d out of range", v)
	}
	return int(g.vertexRecords[v].Degree), nil
}

// EdgeBlockKey returns the edge-block id backing vertex v's neighbour list.
func (g *Graph) EdgeBlockKey(v int) (int, error) {
	if v < 0 || v >= len(g.vertexRecords) {
		return 0, fmt.Errorf("graph: vertex %d out of range", v)
	}
	return int(g.vertexRecords[v].EdgeBlockID), nil
}

// Reorder returns the dense internal id assigned to an external vertex id
// during construction, if any reordering was in effect.
func (g *Graph) Reorder(external int) (int, bool) {
	id, ok := g.reorder[external]
	return id, ok
}

// SetCacheMode selects the eviction discipline PrepGS builds the cache for.
// Calling it after PrepGS has already built a cache is a no-op.
func (g *Graph) SetCacheMode(mode CacheMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.prepped {
		return
	}
	g.cacheMode = mode
}

// DisableCache is equivalent to SetCacheMode(CacheModeNone).
func (g *Graph) DisableCache() { g.SetCacheMode(CacheModeNone) }

// SetCacheSizeMB sizes the cache to hold approximately mb megabytes of edge
// blocks. Takes effect when PrepGS builds the cache; a cache that is already
// built is not resized.
func (g *Graph) SetCacheSizeMB(mb int) {
	slots := (mb << 20) / (g.edgeBlockCapacity * 4)
	g.setCacheSlots(slots)
}

// SetCacheSizeRatio sizes the cache to hold ratio * (total edge data size).
// Takes effect when PrepGS builds the cache; a cache that is already built
// is not resized.
func (g *Graph) SetCacheSizeRatio(ratio float64) {
	slots := int(float64(g.numEdgeBlocks) * ratio)
	g.setCacheSlots(slots)
}

func (g *Graph) setCacheSlots(slots int) {
	if slots < 1 {
		slots = 1
	}
	g.mu.Lock()
	g.cacheSlots = slots
	g.mu.Unlock()
}

// ClearCache drops all resident blocks without changing cache mode/size.
func (g *Graph) ClearCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.simpleCache != nil {
		g.simpleCache.Clear()
	}
	if g.blockCache != nil {
		g.blockCache.Clear()
	}
}

// DataMB returns the approximate resident cache memory in megabytes.
func (g *Graph) DataMB() float64 {
	blockBytes := float64(g.edgeBlockCapacity * 4)
	switch g.cacheMode {
	case CacheModeSimple:
		if g.simpleCache == nil {
			return 0
		}
		return float64(g.simpleCache.Resident()) * blockBytes / (1 << 20)
	case CacheModeNormal:
		if g.blockCache == nil {
			return 0
		}
		return float64(g.blockCache.Resident()) * blockBytes / (1 << 20)
	default:
		return 0
	}
}

// SetThreadPoolSize resizes the frontier executor's worker pool. PrepGS
// must have run first.
func (g *Graph) SetThreadPoolSize(n int) error {
	if g.pool == nil {
		return fmt.Errorf("graph: SetThreadPoolSize called before PrepGS")
	}
	g.pool.Tune(n)
	return nil
}

// Wait blocks until every task submitted to the frontier executor's pool so
// far has completed.
func (g *Graph) Wait() {
	if g.pool != nil {
		g.pool.Wait()
	}
}

// Close releases the graph's serializer and worker pool.
func (g *Graph) Close() error {
	if g.pool != nil {
		g.pool.Release()
	}
	if g.ser != nil {
		return g.ser.Close()
	}
	return nil
}
