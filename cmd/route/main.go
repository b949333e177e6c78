// Command route answers a single shortest-path query from the command
// line and prints the result as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
	"github.com/Khoshkhah/routing-engine/pkg/loader"
	"github.com/Khoshkhah/routing-engine/pkg/query"
)

func main() {
	snapshot := flag.String("snapshot", "", "Path to binary graph snapshot")
	shortcuts := flag.String("shortcuts", "", "Path to shortcut Parquet file")
	metadata := flag.String("metadata", "", "Path to edge metadata CSV file")
	algo := flag.String("algo", "pruned", "Algorithm: classic, pruned or multi")
	source := flag.Uint64("source", 0, "Source edge id (classic/pruned)")
	target := flag.Uint64("target", 0, "Target edge id (classic/pruned)")
	sources := flag.String("sources", "", "Comma-separated source edge ids (multi)")
	sourceDists := flag.String("source-dists", "", "Comma-separated approach costs, one per source (multi)")
	targets := flag.String("targets", "", "Comma-separated target edge ids (multi)")
	targetDists := flag.String("target-dists", "", "Comma-separated egress costs, one per target (multi)")
	flag.Parse()

	store, err := loadStore(*snapshot, *shortcuts, *metadata)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}

	var result query.Result
	switch *algo {
	case "classic":
		result = query.Classic(store, uint32(*source), uint32(*target))
	case "pruned":
		result = query.Pruned(store, uint32(*source), uint32(*target))
	case "multi":
		srcs, err := parseIDList(*sources)
		if err != nil {
			log.Fatalf("Invalid --sources: %v", err)
		}
		tgts, err := parseIDList(*targets)
		if err != nil {
			log.Fatalf("Invalid --targets: %v", err)
		}
		srcDists, err := parseDistList(*sourceDists, len(srcs))
		if err != nil {
			log.Fatalf("Invalid --source-dists: %v", err)
		}
		tgtDists, err := parseDistList(*targetDists, len(tgts))
		if err != nil {
			log.Fatalf("Invalid --target-dists: %v", err)
		}
		result = query.Multi(store, srcs, srcDists, tgts, tgtDists)
	default:
		fmt.Fprintf(os.Stderr, "Unknown algorithm %q (want classic, pruned or multi)\n", *algo)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Encode result: %v", err)
	}
}

func loadStore(snapshot, shortcuts, metadata string) (*graph.Store, error) {
	if snapshot != "" {
		return graph.ReadSnapshot(snapshot)
	}
	if shortcuts == "" || metadata == "" {
		return nil, fmt.Errorf("need --snapshot, or both --shortcuts and --metadata")
	}
	return loader.Load(shortcuts, metadata)
}

func parseIDList(s string) ([]uint32, error) {
	if s == "" {
		return nil, fmt.Errorf("empty id list")
	}
	parts := strings.Split(s, ",")
	ids := make([]uint32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("id %q: %w", p, err)
		}
		ids[i] = uint32(v)
	}
	return ids, nil
}

// parseDistList parses a cost list; empty means all zeros.
func parseDistList(s string, n int) ([]float64, error) {
	if s == "" {
		return make([]float64, n), nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%d costs for %d endpoints", len(parts), n)
	}
	dists := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("cost %q: %w", p, err)
		}
		dists[i] = v
	}
	return dists, nil
}
