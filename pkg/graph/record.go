package graph

import "encoding/binary"

// VertexRecord is the persisted, immutable-after-finalization record for
// one vertex: which edge block its neighbour list lives in, the element
// offset within that block, and its degree.
type VertexRecord struct {
	EdgeBlockID int32
	Offset      int32
	Degree      int32
}

const vertexRecordSize = 12

func (r VertexRecord) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], uint32(r.EdgeBlockID))
	binary.LittleEndian.PutUint32(buf[4:], uint32(r.Offset))
	binary.LittleEndian.PutUint32(buf[8:], uint32(r.Degree))
}

func decodeVertexRecord(buf []byte) VertexRecord {
	return VertexRecord{
		EdgeBlockID: int32(binary.LittleEndian.Uint32(buf[0:])),
		Offset:      int32(binary.LittleEndian.Uint32(buf[4:])),
		Degree:      int32(binary.LittleEndian.Uint32(buf[8:])),
	}
}
