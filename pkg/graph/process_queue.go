package graph

// process_queue.go implements the per-vertex frontier executor shape: for
// each vertex in the frontier, compute its edge block key,
// request the block, call the user callback with the vertex, its degree,
// and its neighbours, then release. Each vertex is submitted to the
// worker pool as its own task.
//
// The three callback flavours differ only in how the callback reports
// results: a thread-local buffer merged after the task, a shared atomic
// bitvector, or a directly synchronised accumulator.

import (
	"fmt"
	"sync"
)

func (g *Graph) checkPrepped() error {
	if !g.prepped {
		return fmt.Errorf("graph: PrepGS must be called before querying or traversing")
	}
	return nil
}

// MergeCallback is the first process-queue flavour: push results into the
// thread-local accumulator via push; results are merged into the returned
// slice after every frontier task completes.
type MergeCallback func(v int, degree int, neighbours []uint32, push func(uint32))

// ProcessQueue runs the per-vertex shape with the thread-local-merge
// callback flavour and returns the merged next frontier.
func (g *Graph) ProcessQueue(frontier []int, cb MergeCallback) ([]uint32, error) {
	if err := g.checkPrepped(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var next []uint32
	var errOnce sync.Once
	var firstErr error

	for _, vtx := range frontier {
		v := vtx
		err := g.pool.Submit(func() {
			neighbours, err := g.GetEdges(v)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			degree := int(g.vertexRecords[v].Degree)

			local := make([]uint32, 0, 4)
			cb(v, degree, neighbours, func(x uint32) { local = append(local, x) })

			if len(local) > 0 {
				mu.Lock()
				next = append(next, local...)
				mu.Unlock()
			}
		})
		if err != nil {
			return nil, fmt.Errorf("graph: submit vertex %d: %w", v, err)
		}
	}
	g.pool.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return next, nil
}

// BitsetCallback is the second process-queue flavour: the callback reads
// and marks a shared atomic visited/active bitvector directly.
type BitsetCallback func(v int, degree int, neighbours []uint32, visited *Bitset)

// ProcessQueueBitset runs the per-vertex shape with the bitvector callback
// flavour. visited must be sized for at least GetNumNodes() vertices.
func (g *Graph) ProcessQueueBitset(frontier []int, visited *Bitset, cb BitsetCallback) error {
	if err := g.checkPrepped(); err != nil {
		return err
	}

	var errOnce sync.Once
	var firstErr error

	for _, vtx := range frontier {
		v := vtx
		err := g.pool.Submit(func() {
			neighbours, err := g.GetEdges(v)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			degree := int(g.vertexRecords[v].Degree)
			cb(v, degree, neighbours, visited)
		})
		if err != nil {
			return fmt.Errorf("graph: submit vertex %d: %w", v, err)
		}
	}
	g.pool.Wait()
	return firstErr
}

// DirectCallback is the third process-queue flavour: the callback writes
// directly into a shared, synchronised next accumulator.
type DirectCallback func(v int, degree int, neighbours []uint32, next *SyncSlice)

// ProcessQueueDirect runs the per-vertex shape with the direct-write
// callback flavour.
func (g *Graph) ProcessQueueDirect(frontier []int, next *SyncSlice, cb DirectCallback) error {
	if err := g.checkPrepped(); err != nil {
		return err
	}

	var errOnce sync.Once
	var firstErr error

	for _, vtx := range frontier {
		v := vtx
		err := g.pool.Submit(func() {
			neighbours, err := g.GetEdges(v)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			degree := int(g.vertexRecords[v].Degree)
			cb(v, degree, neighbours, next)
		})
		if err != nil {
			return fmt.Errorf("graph: submit vertex %d: %w", v, err)
		}
	}
	g.pool.Wait()
	return firstErr
}
