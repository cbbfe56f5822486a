package graph

// process_queue_blocks.go implements the per-block (batched) frontier
// executor shape: the frontier is partitioned by edge-block id, and each
// block is requested exactly once per traversal, with every frontier
// vertex that resides in it processed before the block is released. A
// 1,000-vertex frontier scattered over 50 blocks costs at most 50
// serializer reads under this shape.

import (
	"fmt"
	"sync"
)

// groupByBlock partitions frontier vertices by their edge-block id,
// preserving per-group vertex order.
func (g *Graph) groupByBlock(frontier []int) (map[int][]int, error) {
	groups := make(map[int][]int)
	for _, v := range frontier {
		if v < 0 || v >= len(g.vertexRecords) {
			return nil, fmt.Errorf("graph: vertex %d out of range", v)
		}
		key := int(g.vertexRecords[v].EdgeBlockID)
		groups[key] = append(groups[key], v)
	}
	return groups, nil
}

// edgesFromGroupBlock decodes vertex v's neighbour slice out of an
// already-acquired block buffer, without a second acquire/release.
func (g *Graph) edgesFromGroupBlock(buf []byte, v int) []uint32 {
	rec := g.vertexRecords[v]
	if rec.Degree == 0 {
		return nil
	}
	return decodeEdgeBlock(buf, int(rec.Offset), int(rec.Degree))
}

// ProcessQueueInBlocks is the per-block shape with the thread-local-merge
// callback flavour.
func (g *Graph) ProcessQueueInBlocks(frontier []int, cb MergeCallback) ([]uint32, error) {
	if err := g.checkPrepped(); err != nil {
		return nil, err
	}
	groups, err := g.groupByBlock(frontier)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var next []uint32
	var errOnce sync.Once
	var firstErr error

	for blockID, vertices := range groups {
		blockID, vertices := blockID, vertices
		err := g.pool.Submit(func() {
			h, err := g.acquireBlock(blockID)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			defer g.releaseBlock(h)

			local := make([]uint32, 0, len(vertices))
			for _, v := range vertices {
				neighbours := g.edgesFromGroupBlock(h.buf, v)
				degree := int(g.vertexRecords[v].Degree)
				cb(v, degree, neighbours, func(x uint32) { local = append(local, x) })
			}
			if len(local) > 0 {
				mu.Lock()
				next = append(next, local...)
				mu.Unlock()
			}
		})
		if err != nil {
			return nil, fmt.Errorf("graph: submit block %d: %w", blockID, err)
		}
	}
	g.pool.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return next, nil
}

// ProcessQueueInBlocksBitset is the per-block shape with the bitvector
// callback flavour.
func (g *Graph) ProcessQueueInBlocksBitset(frontier []int, visited *Bitset, cb BitsetCallback) error {
	if err := g.checkPrepped(); err != nil {
		return err
	}
	groups, err := g.groupByBlock(frontier)
	if err != nil {
		return err
	}

	var errOnce sync.Once
	var firstErr error

	for blockID, vertices := range groups {
		blockID, vertices := blockID, vertices
		err := g.pool.Submit(func() {
			h, err := g.acquireBlock(blockID)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			defer g.releaseBlock(h)

			for _, v := range vertices {
				neighbours := g.edgesFromGroupBlock(h.buf, v)
				degree := int(g.vertexRecords[v].Degree)
				cb(v, degree, neighbours, visited)
			}
		})
		if err != nil {
			return fmt.Errorf("graph: submit block %d: %w", blockID, err)
		}
	}
	g.pool.Wait()
	return firstErr
}

// ProcessQueueInBlocksDirect is the per-block shape with the direct-write
// callback flavour.
func (g *Graph) ProcessQueueInBlocksDirect(frontier []int, next *SyncSlice, cb DirectCallback) error {
	if err := g.checkPrepped(); err != nil {
		return err
	}
	groups, err := g.groupByBlock(frontier)
	if err != nil {
		return err
	}

	var errOnce sync.Once
	var firstErr error

	for blockID, vertices := range groups {
		blockID, vertices := blockID, vertices
		err := g.pool.Submit(func() {
			h, err := g.acquireBlock(blockID)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			defer g.releaseBlock(h)

			for _, v := range vertices {
				neighbours := g.edgesFromGroupBlock(h.buf, v)
				degree := int(g.vertexRecords[v].Degree)
				cb(v, degree, neighbours, next)
			}
		})
		if err != nil {
			return fmt.Errorf("graph: submit block %d: %w", blockID, err)
		}
	}
	g.pool.Wait()
	return firstErr
}
