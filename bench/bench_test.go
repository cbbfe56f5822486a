// Package bench provides reproducible micro-benchmarks for blockgraph.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// We measure:
//  1. BlockCacheRequestGetRelease – the multi-pin cache's hot path
//  2. SimpleCacheRequestFillRelease – the single-pin cache's hot path
//  3. ProcessQueueInBlocks – the per-block frontier executor shape
//
// NOTE: correctness tests live alongside their packages; this file is only
// for performance.
package bench

import (
	"math/rand"
	"os"
	"testing"

	"github.com/blockgraph/blockgraph/internal/blockcache"
	"github.com/blockgraph/blockgraph/internal/simplecache"
	"github.com/blockgraph/blockgraph/pkg/graph"
	"github.com/blockgraph/blockgraph/pkg/serializer"
)

const blockBytes = 4096

type zeroSerializer struct{}

func (zeroSerializer) ReadBlock(blockID int, buf []byte) error {
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func BenchmarkBlockCacheRequestGetRelease(b *testing.B) {
	c := blockcache.New(64, blockBytes, zeroSerializer{})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blockID := i % 64
		slot := c.Request(blockID)
		if _, err := c.Get(slot, blockID); err != nil {
			b.Fatal(err)
		}
		c.Release(slot)
	}
}

func BenchmarkBlockCacheRequestGetReleaseParallel(b *testing.B) {
	c := blockcache.New(64, blockBytes, zeroSerializer{})
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(1))
		for pb.Next() {
			blockID := rnd.Intn(64)
			slot := c.Request(blockID)
			if _, err := c.Get(slot, blockID); err != nil {
				b.Fatal(err)
			}
			c.Release(slot)
		}
	})
}

func BenchmarkSimpleCacheRequestFillRelease(b *testing.B) {
	c := simplecache.New(64, blockBytes, zeroSerializer{})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blockID := i % 64
		slot := c.Request(blockID, 1)
		if !c.IsReady(slot) {
			if err := c.Fill(slot, blockID); err != nil {
				b.Fatal(err)
			}
		}
		c.Release(slot)
	}
}

func buildBenchGraph(b *testing.B, numNodes int) (*graph.Graph, func()) {
	b.Helper()

	bld := graph.NewBuilder(numNodes)
	rnd := rand.New(rand.NewSource(7))
	for v := 0; v < numNodes; v++ {
		deg := rnd.Intn(8)
		for i := 0; i < deg; i++ {
			bld.AddEdge(v, rnd.Intn(numNodes))
		}
	}
	g, err := bld.FinalizeEdgelist(graph.PackConfig{EdgeBlockCapacity: 512, VertexBlockCapacity: 256})
	if err != nil {
		b.Fatalf("finalize: %v", err)
	}

	dir, err := os.MkdirTemp("", "blockgraph-bench-*")
	if err != nil {
		b.Fatalf("tempdir: %v", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	ws, err := serializer.Open(dir, serializer.ModeWrite, 512*4, 256*12)
	if err != nil {
		b.Fatalf("open write store: %v", err)
	}
	if err := g.DumpGraph(ws); err != nil {
		b.Fatalf("dump: %v", err)
	}
	ws.Close()

	rs, err := serializer.Open(dir, serializer.ModeRead, 512*4, 256*12)
	if err != nil {
		b.Fatalf("open read store: %v", err)
	}
	reopened, err := graph.Open(rs)
	if err != nil {
		b.Fatalf("reopen: %v", err)
	}
	if err := reopened.PrepGS(graph.WithCacheSlots(32)); err != nil {
		b.Fatalf("prep: %v", err)
	}
	return reopened, func() { reopened.Close(); cleanup() }
}

func BenchmarkProcessQueueInBlocks(b *testing.B) {
	const numNodes = 20000
	g, cleanup := buildBenchGraph(b, numNodes)
	defer cleanup()

	frontier := make([]int, numNodes)
	for i := range frontier {
		frontier[i] = i
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := g.ProcessQueueInBlocks(frontier, func(v, degree int, neighbours []uint32, push func(uint32)) {
			for _, n := range neighbours {
				push(n)
			}
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}
