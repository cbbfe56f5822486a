// Package serializer defines the block-serializer contract and a
// file-backed implementation: a fixed-size page per block id, addressed by
// direct offset arithmetic, plus a single binary-encoded metadata record.
//
// Blocks are addressed by dense integer id rather than an opaque key, so
// direct offset arithmetic over os.File is a more natural fit here than
// routing every fixed-size page through a key-value store.
package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/blockgraph/blockgraph/internal/unsafehelpers"
)

// pageSize is the alignment boundary block offsets are rounded up to, so
// that fixed-size pages never straddle a filesystem block under direct
// ReadAt/WriteAt.
const pageSize = 4096

// Mode selects whether a Serializer is opened for reading or writing.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// MetaBlock is the single persisted metadata record: graph-wide sizing
// information needed to reopen a dumped graph without re-parsing it.
type MetaBlock struct {
	NumNodes        uint32
	NumEdges        uint64
	NumEdgeBlocks   uint32
	NumVertexBlocks uint32
	EdgeBlockSize   uint32
	VertexBlockSize uint32
}

const metaBlockEncodedSize = 4 + 8 + 4 + 4 + 4 + 4

func (m MetaBlock) encode() []byte {
	buf := make([]byte, metaBlockEncodedSize)
	binary.LittleEndian.PutUint32(buf[0:], m.NumNodes)
	binary.LittleEndian.PutUint64(buf[4:], m.NumEdges)
	binary.LittleEndian.PutUint32(buf[12:], m.NumEdgeBlocks)
	binary.LittleEndian.PutUint32(buf[16:], m.NumVertexBlocks)
	binary.LittleEndian.PutUint32(buf[20:], m.EdgeBlockSize)
	binary.LittleEndian.PutUint32(buf[24:], m.VertexBlockSize)
	return buf
}

func decodeMetaBlock(buf []byte) MetaBlock {
	return MetaBlock{
		NumNodes:        binary.LittleEndian.Uint32(buf[0:]),
		NumEdges:        binary.LittleEndian.Uint64(buf[4:]),
		NumEdgeBlocks:   binary.LittleEndian.Uint32(buf[12:]),
		NumVertexBlocks: binary.LittleEndian.Uint32(buf[16:]),
		EdgeBlockSize:   binary.LittleEndian.Uint32(buf[20:]),
		VertexBlockSize: binary.LittleEndian.Uint32(buf[24:]),
	}
}

// Serializer is the narrow sink/source contract the caches and the graph
// index depend on: read/write fixed-size edge blocks and vertex blocks by
// integer id, plus a single metadata record.
type Serializer interface {
	ReadBlock(blockID int, buf []byte) error
	WriteBlock(blockID int, buf []byte) error

	ReadVertexBlock(blockID int, buf []byte) error
	WriteVertexBlock(blockID int, buf []byte) error

	ReadMetadata() (MetaBlock, error)
	WriteMetadata(MetaBlock) error

	Close() error
}

// ErrWrongMode is returned when a write is attempted on a read-mode
// serializer. Reads are permitted in either mode.
var ErrWrongMode = errors.New("serializer: operation not permitted in this mode")

// FileStore is the default on-disk Serializer: three flat files (edge
// blocks, vertex blocks, metadata) under a directory, each block addressed
// by blockID * blockSize.
type FileStore struct {
	mode Mode

	edgeBlockSize   int
	vertexBlockSize int

	edgeFile   *os.File
	vertexFile *os.File
	metaFile   *os.File
}

// Open opens (or creates, in ModeWrite) the three backing files under dir.
// Block sizes are rounded up to pageSize so that offset arithmetic never
// straddles a filesystem block boundary.
func Open(dir string, mode Mode, edgeBlockSize, vertexBlockSize int) (*FileStore, error) {
	if !unsafehelpers.IsPowerOfTwo(pageSize) {
		return nil, fmt.Errorf("serializer: pageSize %d is not a power of two", pageSize)
	}

	edgeBlockSize = int(unsafehelpers.AlignUp(uintptr(edgeBlockSize), pageSize))
	vertexBlockSize = int(unsafehelpers.AlignUp(uintptr(vertexBlockSize), pageSize))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("serializer: mkdir %s: %w", dir, err)
	}

	flags := os.O_RDONLY
	if mode == ModeWrite {
		flags = os.O_RDWR | os.O_CREATE
	}

	edgeFile, err := os.OpenFile(dir+"/edges.blk", flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("serializer: open edges.blk: %w", err)
	}
	vertexFile, err := os.OpenFile(dir+"/vertices.blk", flags, 0o644)
	if err != nil {
		edgeFile.Close()
		return nil, fmt.Errorf("serializer: open vertices.blk: %w", err)
	}
	metaFile, err := os.OpenFile(dir+"/meta.bin", flags, 0o644)
	if err != nil {
		edgeFile.Close()
		vertexFile.Close()
		return nil, fmt.Errorf("serializer: open meta.bin: %w", err)
	}

	return &FileStore{
		mode:            mode,
		edgeBlockSize:   edgeBlockSize,
		vertexBlockSize: vertexBlockSize,
		edgeFile:        edgeFile,
		vertexFile:      vertexFile,
		metaFile:        metaFile,
	}, nil
}

func (fs *FileStore) ReadBlock(blockID int, buf []byte) error {
	return readAt(fs.edgeFile, int64(blockID)*int64(fs.edgeBlockSize), buf)
}

func (fs *FileStore) WriteBlock(blockID int, buf []byte) error {
	if fs.mode != ModeWrite {
		return ErrWrongMode
	}
	return writeAt(fs.edgeFile, int64(blockID)*int64(fs.edgeBlockSize), buf)
}

func (fs *FileStore) ReadVertexBlock(blockID int, buf []byte) error {
	return readAt(fs.vertexFile, int64(blockID)*int64(fs.vertexBlockSize), buf)
}

func (fs *FileStore) WriteVertexBlock(blockID int, buf []byte) error {
	if fs.mode != ModeWrite {
		return ErrWrongMode
	}
	return writeAt(fs.vertexFile, int64(blockID)*int64(fs.vertexBlockSize), buf)
}

func (fs *FileStore) ReadMetadata() (MetaBlock, error) {
	buf := make([]byte, metaBlockEncodedSize)
	if err := readAt(fs.metaFile, 0, buf); err != nil {
		return MetaBlock{}, err
	}
	return decodeMetaBlock(buf), nil
}

func (fs *FileStore) WriteMetadata(m MetaBlock) error {
	if fs.mode != ModeWrite {
		return ErrWrongMode
	}
	return writeAt(fs.metaFile, 0, m.encode())
}

// Close flushes and closes all backing files.
func (fs *FileStore) Close() error {
	errEdge := fs.edgeFile.Close()
	errVertex := fs.vertexFile.Close()
	errMeta := fs.metaFile.Close()
	for _, err := range []error{errEdge, errVertex, errMeta} {
		if err != nil {
			return err
		}
	}
	return nil
}

func readAt(f *os.File, offset int64, buf []byte) error {
	n, err := f.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serializer: read at offset %d: %w", offset, err)
	}
	return fmt.Errorf("serializer: short read at offset %d: got %d of %d bytes", offset, n, len(buf))
}

func writeAt(f *os.File, offset int64, buf []byte) error {
	_, err := f.WriteAt(buf, offset)
	if err != nil {
		return fmt.Errorf("serializer: write at offset %d: %w", offset, err)
	}
	return nil
}
