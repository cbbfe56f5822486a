package graph

import "fmt"

// GetEdges returns a copy of vertex v's neighbour list, paging the backing
// edge block through the configured cache mode.
func (g *Graph) GetEdges(v int) ([]uint32, error) {
	if v < 0 || v >= len(g.vertexRecords) {
		return nil, fmt.Errorf("graph: vertex %d out of range", v)
	}
	rec := g.vertexRecords[v]
	if rec.Degree == 0 {
		return nil, nil
	}

	h, err := g.acquireBlock(int(rec.EdgeBlockID))
	if err != nil {
		return nil, fmt.Errorf("graph: acquire edge block %d for vertex %d: %w", rec.EdgeBlockID, v, err)
	}
	defer g.releaseBlock(h)

	return decodeEdgeBlock(h.buf, int(rec.Offset), int(rec.Degree)), nil
}
