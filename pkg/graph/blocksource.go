package graph

// blocksource.go unifies edge-block access across all three cache modes
// behind one Acquire/Release pair, so the process-queue traversal methods
// (process_queue.go, process_queue_blocks.go) and the point-query methods
// in query.go can be written once against CacheModeNone, CacheModeSimple,
// and CacheModeNormal alike.

import (
	"fmt"
	"strconv"
)

// blockHandle is an opaque reference to a pinned (or borrowed) edge block
// buffer. Callers must pass it back to releaseBlock exactly once.
type blockHandle struct {
	buf  []byte
	slot int // -1 when the block was read directly (CacheModeNone)
}

// acquireBlock returns the raw byte payload of edge block blockID, reading
// through whichever cache mode the graph is configured with.
func (g *Graph) acquireBlock(blockID int) (blockHandle, error) {
	switch g.cacheMode {
	case CacheModeNone:
		// Concurrent frontier tasks land on the same block constantly (the
		// common case under a batched traversal), and CacheModeNone has no
		// directory to de-duplicate in-flight reads. singleflight collapses
		// those into one serializer call; every waiter shares the same
		// read-only buffer, which is safe since blockHandle{slot: -1}
		// callers never write through it.
		v, err, _ := g.readGroup.Do(strconv.Itoa(blockID), func() (any, error) {
			buf := make([]byte, g.edgeBlockCapacity*4)
			if err := g.ser.ReadBlock(blockID, buf); err != nil {
				return nil, err
			}
			g.metrics.incSerializerRead()
			return buf, nil
		})
		if err != nil {
			return blockHandle{}, err
		}
		return blockHandle{buf: v.([]byte), slot: -1}, nil

	case CacheModeSimple:
		if g.simpleCache == nil {
			return blockHandle{}, fmt.Errorf("graph: simple cache not initialised (call PrepGS)")
		}
		slot := g.simpleCache.Request(blockID, 1)
		if !g.simpleCache.IsReady(slot) {
			if err := g.simpleCache.Fill(slot, blockID); err != nil {
				g.simpleCache.Release(slot)
				return blockHandle{}, err
			}
			g.metrics.incSerializerRead()
			g.metrics.incBlockMiss()
		} else {
			g.metrics.incBlockHit()
		}
		g.metrics.setResident(g.simpleCache.Resident())
		return blockHandle{buf: g.simpleCache.Get(slot), slot: slot}, nil

	case CacheModeNormal:
		if g.blockCache == nil {
			return blockHandle{}, fmt.Errorf("graph: block cache not initialised (call PrepGS)")
		}
		slot := g.blockCache.Request(blockID)
		buf, err := g.blockCache.Get(slot, blockID)
		if err != nil {
			g.blockCache.Release(slot)
			return blockHandle{}, err
		}
		// blockcache.Get only hits the serializer on first fill; we have no
		// hit/miss signal at this layer, so in this mode neither the read
		// counter nor the hit/miss counters move; only the resident gauge
		// is updated.
		g.metrics.setResident(g.blockCache.Resident())
		return blockHandle{buf: buf, slot: slot}, nil

	default:
		return blockHandle{}, fmt.Errorf("graph: unknown cache mode %d", g.cacheMode)
	}
}

func (g *Graph) releaseBlock(h blockHandle) {
	if h.slot < 0 {
		return
	}
	switch g.cacheMode {
	case CacheModeSimple:
		g.simpleCache.Release(h.slot)
	case CacheModeNormal:
		g.blockCache.Release(h.slot)
	}
}
