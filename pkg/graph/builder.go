// Package graph implements the public surface of the out-of-core graph
// engine: construction (Builder), persistence (Graph.DumpGraph/Open),
// cache policy, point queries, and the frontier executor's process-queue
// traversal shapes.
//
// Graph mutation is only possible through a Builder; FinalizeEdgelist
// consumes the Builder and returns an immutable Graph, encoding the
// construction/query phase split at the type level rather than with a
// runtime flag.
package graph

import (
	"fmt"

	"github.com/blockgraph/blockgraph/internal/segtree"
)

// PackConfig controls how neighbour lists are bin-packed into edge blocks
// and how vertex records are packed into vertex blocks during
// FinalizeEdgelist.
type PackConfig struct {
	// EdgeBlockCapacity is the number of uint32 neighbour slots per edge
	// block. Bumped up automatically if smaller than the largest single
	// vertex's degree, since a neighbour list must fit in one block.
	EdgeBlockCapacity int
	// VertexBlockCapacity is the number of vertex records per vertex block.
	VertexBlockCapacity int
}

// DefaultPackConfig is a 16 KiB edge block (4096 uint32 slots) and a 6 KiB
// vertex block (512 records).
var DefaultPackConfig = PackConfig{
	EdgeBlockCapacity:   4096,
	VertexBlockCapacity: 512,
}

// Builder accumulates (vertex_id, edges[]) pairs during the parsing phase.
// It is not safe for concurrent use; the parser that owns it is expected to
// be single-threaded, matching the original's non-atomic GraphNode vector.
type Builder struct {
	numNodes int
	edges    [][]int32 // per-node adjacency, released at FinalizeEdgelist

	// reorder maps an external vertex id to its dense internal id, assigned
	// in parse order. Populated only when callers use AddEdge/SetNodeEdges
	// with ids outside [0, numNodes) — see Reorder.
	reorder  map[int]int
	nextID   int

	finalized bool
}

// NewBuilder allocates a builder for a graph of N vertices (the init_nodes
// step). Internal vertex ids are dense in [0, N).
func NewBuilder(numNodes int) *Builder {
	if numNodes < 0 {
		numNodes = 0
	}
	return &Builder{
		numNodes: numNodes,
		edges:    make([][]int32, numNodes),
		reorder:  make(map[int]int),
	}
}

// Reorder returns the dense internal id assigned to an external vertex id,
// if one has been assigned yet.
func (b *Builder) Reorder(external int) (int, bool) {
	id, ok := b.reorder[external]
	return id, ok
}

// internalID resolves (and lazily assigns, in parse order) the dense
// internal id for an external vertex id. If external already lies in
// [0, numNodes) and has not been explicitly reordered, it is used as-is.
func (b *Builder) internalID(external int) int {
	if id, ok := b.reorder[external]; ok {
		return id
	}
	if external >= 0 && external < b.numNodes && len(b.reorder) == 0 {
		// No reordering in effect yet: fast path, identity mapping.
		return external
	}
	id := b.nextID
	b.nextID++
	b.reorder[external] = id
	return id
}

// AddEdge appends a directed edge src -> dst. Panics if called after
// FinalizeEdgelist.
func (b *Builder) AddEdge(src, dst int) {
	if b.finalized {
		panic("graph: AddEdge called after FinalizeEdgelist")
	}
	id := b.internalID(src)
	b.edges[id] = append(b.edges[id], int32(dst))
}

// SetNodeEdges replaces vertex v's entire neighbour list. Panics if called
// after FinalizeEdgelist.
func (b *Builder) SetNodeEdges(v int, edges []int) {
	if b.finalized {
		panic("graph: SetNodeEdges called after FinalizeEdgelist")
	}
	id := b.internalID(v)
	converted := make([]int32, len(edges))
	for i, e := range edges {
		converted[i] = int32(e)
	}
	b.edges[id] = converted
}

// FinalizeEdgelist freezes mutation and bin-packs every vertex's neighbour
// list into edge blocks via first-fit queries against a segment tree
// tracking remaining per-block capacity, the same query_first_larger/
// update_id pairing a segment tree uses for capacity-aware packing.
//
// The per-node adjacency vectors are released once packing completes —
// only the packed block layout survives to query time.
func (b *Builder) FinalizeEdgelist(cfg PackConfig) (*Graph, error) {
	if b.finalized {
		return nil, fmt.Errorf("graph: FinalizeEdgelist called twice")
	}
	if cfg.EdgeBlockCapacity <= 0 {
		cfg.EdgeBlockCapacity = DefaultPackConfig.EdgeBlockCapacity
	}
	if cfg.VertexBlockCapacity <= 0 {
		cfg.VertexBlockCapacity = DefaultPackConfig.VertexBlockCapacity
	}
	b.finalized = true

	maxDegree := 0
	var numEdges uint64
	for _, e := range b.edges {
		if len(e) > maxDegree {
			maxDegree = len(e)
		}
		numEdges += uint64(len(e))
	}
	if maxDegree > cfg.EdgeBlockCapacity {
		cfg.EdgeBlockCapacity = maxDegree
	}

	numEdgeBlocks := b.numNodes
	if numEdgeBlocks == 0 {
		numEdgeBlocks = 1
	}

	tree := segtree.New(numEdgeBlocks, cfg.EdgeBlockCapacity)
	blocks := make([][]int32, numEdgeBlocks)
	cursor := make([]int, numEdgeBlocks)
	records := make([]VertexRecord, b.numNodes)

	for v, edges := range b.edges {
		deg := len(edges)
		if deg == 0 {
			records[v] = VertexRecord{EdgeBlockID: 0, Offset: 0, Degree: 0}
			continue
		}

		node := tree.QueryFirstGE(deg)
		if node == segtree.None {
			return nil, fmt.Errorf("graph: no edge block with capacity >= %d for vertex %d", deg, v)
		}
		blockID := tree.LeafPos(node)

		if blocks[blockID] == nil {
			blocks[blockID] = make([]int32, cfg.EdgeBlockCapacity)
		}
		offset := cursor[blockID]
		copy(blocks[blockID][offset:offset+deg], edges)
		cursor[blockID] += deg

		remaining := tree.Read(node) - deg
		tree.UpdateNode(node, remaining, blockID)

		records[v] = VertexRecord{
			EdgeBlockID: int32(blockID),
			Offset:      int32(offset),
			Degree:      int32(deg),
		}
	}

	numUsedBlocks := 0
	for _, blk := range blocks {
		if blk != nil {
			numUsedBlocks++
		}
	}

	b.edges = nil // release per-node adjacency; packed layout survives.

	g := &Graph{
		numNodes:            b.numNodes,
		numEdges:            numEdges,
		edgeBlockCapacity:   cfg.EdgeBlockCapacity,
		vertexBlockCapacity: cfg.VertexBlockCapacity,
		numEdgeBlocks:       numUsedBlocks,
		vertexRecords:       records,
		pendingEdgeBlocks:   blocks,
		reorder:             b.reorder,
		cacheMode:           CacheModeNormal,
	}
	g.numVertexBlocks = (g.numNodes + cfg.VertexBlockCapacity - 1) / cfg.VertexBlockCapacity
	if g.numVertexBlocks == 0 {
		g.numVertexBlocks = 1
	}
	return g, nil
}
