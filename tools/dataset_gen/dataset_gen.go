package main

// dataset_gen.go is a tiny helper utility to generate deterministic random
// edge lists for standalone benchmarking of blockgraph (outside `go test`).
// It emits one line per directed edge, "src dst", which can later be fed to
// a Builder via AddEdge.
//
// Usage:
//   go run tools/dataset_gen/dataset_gen.go -nodes 1000000 -dist=zipf -seed=42 -out edges.txt
//
// Flags:
//   -nodes    number of vertices (default 1e6)
//   -avgdeg   average out-degree per vertex (default 8)
//   -dist     destination-degree distribution: "uniform" or "zipf" (default uniform)
//   -zipfs    Zipf s parameter (>1)  (default 1.2)
//   -zipfv    Zipf v parameter (>=1) (default 1.0)
//   -seed     RNG seed (default current time)
//   -out      output file (default stdout)
//
// The program is placed under version control so contributors can
// regenerate the exact dataset used in performance regression hunting.
import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	var (
		nodes   = flag.Int("nodes", 1_000_000, "number of vertices")
		avgDeg  = flag.Int("avgdeg", 8, "average out-degree per vertex")
		dist    = flag.String("dist", "uniform", "destination distribution: uniform or zipf")
		zipfS   = flag.Float64("zipfs", 1.2, "zipf s parameter (>1)")
		zipfV   = flag.Float64("zipfv", 1.0, "zipf v parameter (>=1)")
		seedVal = flag.Int64("seed", time.Now().UnixNano(), "PRNG seed")
		outPath = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	if *nodes <= 0 {
		fmt.Fprintln(os.Stderr, "nodes must be > 0")
		os.Exit(1)
	}

	rnd := rand.New(rand.NewSource(*seedVal))

	var dst func() uint64
	switch *dist {
	case "uniform":
		dst = func() uint64 { return uint64(rnd.Intn(*nodes)) }
	case "zipf":
		if *zipfS <= 1.0 || *zipfV < 1 {
			fmt.Fprintln(os.Stderr, "zipfs must be >1 and zipfv >=1")
			os.Exit(1)
		}
		z := rand.NewZipf(rnd, *zipfS, *zipfV, uint64(*nodes-1))
		dst = z.Uint64
	default:
		fmt.Fprintln(os.Stderr, "unknown dist:", *dist)
		os.Exit(1)
	}

	var out *os.File
	var err error
	if *outPath == "" {
		out = os.Stdout
	} else {
		out, err = os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot create file:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	for src := 0; src < *nodes; src++ {
		degree := *avgDeg/2 + rnd.Intn(*avgDeg+1)
		for i := 0; i < degree; i++ {
			fmt.Fprintf(w, "%d %d\n", src, dst())
		}
	}
}
