package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/Khoshkhah/routing-engine/pkg/api"
	"github.com/Khoshkhah/routing-engine/pkg/graph"
	"github.com/Khoshkhah/routing-engine/pkg/loader"
	"github.com/Khoshkhah/routing-engine/pkg/locate"
)

func main() {
	snapshot := flag.String("snapshot", "", "Path to binary graph snapshot (preferred when present)")
	shortcuts := flag.String("shortcuts", "", "Path to shortcut Parquet file")
	metadata := flag.String("metadata", "", "Path to edge metadata CSV file")
	writeSnapshot := flag.String("write-snapshot", "", "Write a binary snapshot of the loaded graph to this path")
	port := flag.Int("port", 8080, "HTTP port")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	start := time.Now()

	store, err := loadStore(*snapshot, *shortcuts, *metadata)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	stats := store.Stats()
	log.Printf("Loaded: %d edges, %d shortcuts (%d up, %d lateral, %d down, %d edge)",
		stats.NumEdges, stats.NumShortcuts, stats.NumUp, stats.NumLateral, stats.NumDown, stats.NumEdgeSC)

	if *writeSnapshot != "" {
		log.Printf("Writing snapshot to %s...", *writeSnapshot)
		if err := graph.WriteSnapshot(*writeSnapshot, store); err != nil {
			log.Fatalf("Failed to write snapshot: %v", err)
		}
	}

	log.Println("Building spatial index...")
	locator := locate.NewIndex(store)
	log.Printf("Indexed %d positioned edges", locator.Len())

	// Reclaim memory from load-time temporaries before serving.
	runtime.GC()
	debug.FreeOSMemory()

	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	addr := fmt.Sprintf(":%d", *port)
	cfg := api.DefaultConfig(addr)
	cfg.CORSOrigin = *corsOrigin

	handlers := api.NewHandlers(store, locator)
	srv := api.NewServer(cfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}

// loadStore prefers the snapshot and falls back to the raw inputs.
func loadStore(snapshot, shortcuts, metadata string) (*graph.Store, error) {
	if snapshot != "" {
		if _, err := os.Stat(snapshot); err == nil {
			log.Printf("Loading snapshot from %s...", snapshot)
			return graph.ReadSnapshot(snapshot)
		}
	}
	if shortcuts == "" || metadata == "" {
		return nil, fmt.Errorf("need --snapshot, or both --shortcuts and --metadata")
	}
	log.Printf("Loading shortcuts from %s, metadata from %s...", shortcuts, metadata)
	return loader.Load(shortcuts, metadata)
}
