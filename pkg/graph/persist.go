package graph

// persist.go implements the dump/reopen half of the Builder/Graph split:
// FinalizeEdgelist only packs blocks in memory; DumpGraph and Open move
// that layout across the Serializer boundary.

import (
	"fmt"

	"github.com/blockgraph/blockgraph/pkg/serializer"
)

// DumpGraph writes every packed edge block, every vertex record (grouped
// into vertex blocks), and the metadata record through ser, which must be
// opened in serializer.ModeWrite. On success, pendingEdgeBlocks is released:
// a freshly dumped Graph must be reopened via Open before it can be
// queried, matching the out-of-core premise that packed edge data does not
// stay resident past construction.
func (g *Graph) DumpGraph(ser serializer.Serializer) error {
	if g.pendingEdgeBlocks == nil {
		return fmt.Errorf("graph: DumpGraph called with no pending edge blocks (already dumped?)")
	}

	edgeBuf := make([]byte, g.edgeBlockCapacity*4)
	for blockID, blk := range g.pendingEdgeBlocks {
		if blk == nil {
			continue
		}
		encodeEdgeBlock(blk, edgeBuf)
		if err := ser.WriteBlock(blockID, edgeBuf); err != nil {
			return fmt.Errorf("graph: write edge block %d: %w", blockID, err)
		}
	}

	vertexBuf := make([]byte, g.vertexBlockCapacity*vertexRecordSize)
	for blockID := 0; blockID < g.numVertexBlocks; blockID++ {
		start := blockID * g.vertexBlockCapacity
		end := start + g.vertexBlockCapacity
		if end > len(g.vertexRecords) {
			end = len(g.vertexRecords)
		}
		encodeVertexBlock(g.vertexRecords[start:end], vertexBuf)
		if err := ser.WriteVertexBlock(blockID, vertexBuf); err != nil {
			return fmt.Errorf("graph: write vertex block %d: %w", blockID, err)
		}
	}

	meta := serializer.MetaBlock{
		NumNodes:        uint32(g.numNodes),
		NumEdges:        g.numEdges,
		NumEdgeBlocks:   uint32(g.numEdgeBlocks),
		NumVertexBlocks: uint32(g.numVertexBlocks),
		EdgeBlockSize:   uint32(g.edgeBlockCapacity * 4),
		VertexBlockSize: uint32(g.vertexBlockCapacity * vertexRecordSize),
	}
	if err := ser.WriteMetadata(meta); err != nil {
		return fmt.Errorf("graph: write metadata: %w", err)
	}

	g.pendingEdgeBlocks = nil
	return nil
}

// ReadMetadata loads the persisted metadata record through ser and sizes
// the graph's block-capacity fields accordingly. It does not touch vertex
// or edge block contents; ReadVertexBlocks must run afterwards before the
// graph is queryable. Exposed as its own step so a caller can inspect
// sizing (numNodes, numEdgeBlocks, ...) without paying for a full vertex
// block load.
func (g *Graph) ReadMetadata(ser serializer.Serializer) error {
	meta, err := ser.ReadMetadata()
	if err != nil {
		return fmt.Errorf("graph: read metadata: %w", err)
	}
	if meta.EdgeBlockSize == 0 || meta.VertexBlockSize == 0 {
		return fmt.Errorf("graph: corrupt or empty metadata")
	}

	g.numNodes = int(meta.NumNodes)
	g.numEdges = meta.NumEdges
	g.edgeBlockCapacity = int(meta.EdgeBlockSize) / 4
	g.vertexBlockCapacity = int(meta.VertexBlockSize) / vertexRecordSize
	g.numEdgeBlocks = int(meta.NumEdgeBlocks)
	g.numVertexBlocks = int(meta.NumVertexBlocks)
	g.reorder = make(map[int]int)
	g.ser = ser
	g.mode = serializer.ModeRead
	g.cacheMode = CacheModeNormal
	return nil
}

// ReadVertexBlocks loads every vertex record block through ser into memory;
// vertex records stay fully resident for the lifetime of the graph. Edge
// blocks are deliberately left on disk, to be paged in on demand by
// PrepGS's cache. ReadMetadata must run first.
func (g *Graph) ReadVertexBlocks(ser serializer.Serializer) error {
	if g.vertexBlockCapacity == 0 {
		return fmt.Errorf("graph: ReadVertexBlocks called before ReadMetadata")
	}

	records := make([]VertexRecord, 0, g.numNodes)
	buf := make([]byte, g.vertexBlockCapacity*vertexRecordSize)
	remaining := g.numNodes
	for blockID := 0; blockID < g.numVertexBlocks && remaining > 0; blockID++ {
		if err := ser.ReadVertexBlock(blockID, buf); err != nil {
			return fmt.Errorf("graph: read vertex block %d: %w", blockID, err)
		}
		n := g.vertexBlockCapacity
		if n > remaining {
			n = remaining
		}
		for i := 0; i < n; i++ {
			records = append(records, decodeVertexRecord(buf[i*vertexRecordSize:]))
		}
		remaining -= n
	}

	g.vertexRecords = records
	return nil
}

// Open reopens a previously dumped graph: ReadMetadata followed by
// ReadVertexBlocks, the sequence every caller needs to get back to a
// queryable Graph.
func Open(ser serializer.Serializer) (*Graph, error) {
	g := &Graph{}
	if err := g.ReadMetadata(ser); err != nil {
		return nil, err
	}
	if err := g.ReadVertexBlocks(ser); err != nil {
		return nil, err
	}
	return g, nil
}

func encodeEdgeBlock(neighbours []int32, buf []byte) {
	for i, n := range neighbours {
		off := i * 4
		v := uint32(n)
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
}

func decodeEdgeBlock(buf []byte, offset, degree int) []uint32 {
	out := make([]uint32, degree)
	for i := 0; i < degree; i++ {
		off := (offset + i) * 4
		out[i] = uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
	}
	return out
}

func encodeVertexBlock(records []VertexRecord, buf []byte) {
	for i, r := range records {
		r.encode(buf[i*vertexRecordSize:])
	}
}
