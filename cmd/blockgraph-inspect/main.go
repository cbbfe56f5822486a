package main

// cmd/blockgraph-inspect is a CLI that opens a dumped graph directory in
// read mode and prints its metadata, plus (optionally) one vertex's degree
// and neighbour list. It is a thin wrapper over pkg/graph and
// pkg/serializer: no network endpoint, since the core has none to poll.
//
// Usage:
//   go run ./cmd/blockgraph-inspect -dir ./graphdata -vertex 42
import (
	"flag"
	"fmt"
	"os"

	"github.com/blockgraph/blockgraph/pkg/graph"
	"github.com/blockgraph/blockgraph/pkg/serializer"
)

func main() {
	var (
		dir       = flag.String("dir", "", "graph directory produced by DumpGraph (required)")
		vertex    = flag.Int("vertex", -1, "vertex id to inspect; -1 prints metadata only")
		edgeSize  = flag.Int("edge-block-bytes", 4096*4, "edge block size in bytes, must match the dump")
		vertSize  = flag.Int("vertex-block-bytes", 512*12, "vertex block size in bytes, must match the dump")
		cacheMode = flag.String("cache-mode", "normal", "cache mode: none, simple, normal")
	)
	flag.Parse()

	if *dir == "" {
		fatal(fmt.Errorf("-dir is required"))
	}

	ser, err := serializer.Open(*dir, serializer.ModeRead, *edgeSize, *vertSize)
	if err != nil {
		fatal(fmt.Errorf("open: %w", err))
	}

	g, err := graph.Open(ser)
	if err != nil {
		fatal(fmt.Errorf("reopen graph: %w", err))
	}

	mode, err := parseCacheMode(*cacheMode)
	if err != nil {
		fatal(err)
	}
	if err := g.PrepGS(graph.WithCacheMode(mode)); err != nil {
		fatal(fmt.Errorf("prep: %w", err))
	}
	defer g.Close()

	fmt.Printf("num_nodes:        %d\n", g.GetNumNodes())
	fmt.Printf("resident MB:      %.2f\n", g.DataMB())

	if *vertex < 0 {
		return
	}

	degree, err := g.GetDegree(*vertex)
	if err != nil {
		fatal(err)
	}
	edges, err := g.GetEdges(*vertex)
	if err != nil {
		fatal(err)
	}
	key, err := g.EdgeBlockKey(*vertex)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("vertex %d: degree=%d edge_block=%d neighbours=%v\n", *vertex, degree, key, edges)
}

func parseCacheMode(s string) (graph.CacheMode, error) {
	switch s {
	case "none":
		return graph.CacheModeNone, nil
	case "simple":
		return graph.CacheModeSimple, nil
	case "normal":
		return graph.CacheModeNormal, nil
	default:
		return 0, fmt.Errorf("unknown cache mode %q", s)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "blockgraph-inspect:", err)
	os.Exit(1)
}
