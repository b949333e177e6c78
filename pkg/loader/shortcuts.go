// Package loader reads the two external inputs of the engine: shortcut
// records from Parquet files and edge metadata from CSV files. Malformed
// rows are skipped (invalid shortcut rows are counted and logged). A load
// fails when no valid metadata row remains; an empty shortcut set is not
// an error.
package loader

import (
	"fmt"
	"log"
	"math"

	"github.com/parquet-go/parquet-go"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
)

// shortcutRow mirrors one row of the columnar shortcut input.
type shortcutRow struct {
	IncomingEdge int64   `parquet:"incoming_edge"`
	OutgoingEdge int64   `parquet:"outgoing_edge"`
	ViaEdge      int64   `parquet:"via_edge"`
	Cost         float64 `parquet:"cost"`
	Cell         int64   `parquet:"cell"`
	Inside       int32   `parquet:"inside"`
}

// ReadShortcuts loads the shortcut records from a Parquet file.
func ReadShortcuts(path string) ([]graph.Shortcut, error) {
	rows, err := parquet.ReadFile[shortcutRow](path)
	if err != nil {
		return nil, fmt.Errorf("read shortcuts %s: %w", path, err)
	}
	shortcuts, skipped := convertShortcuts(rows)
	if skipped > 0 {
		log.Printf("Skipped %d invalid shortcut rows in %s", skipped, path)
	}
	return shortcuts, nil
}

// convertShortcuts validates raw rows into graph shortcuts. Rows with an
// unknown inside tag, a negative or non-finite cost, or out-of-range edge
// ids are skipped; the count of skipped rows is returned for logging. An
// empty result is not an error: a store without shortcuts is a valid
// graph whose queries all come back unreachable.
func convertShortcuts(rows []shortcutRow) ([]graph.Shortcut, int) {
	shortcuts := make([]graph.Shortcut, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		if !validEdgeID(r.IncomingEdge) || !validEdgeID(r.OutgoingEdge) || !validEdgeID(r.ViaEdge) {
			skipped++
			continue
		}
		tag := int8(r.Inside)
		if int32(tag) != r.Inside || !graph.ValidInside(tag) {
			skipped++
			continue
		}
		if r.Cost < 0 || math.IsNaN(r.Cost) || math.IsInf(r.Cost, 0) {
			skipped++
			continue
		}
		shortcuts = append(shortcuts, graph.Shortcut{
			From:   uint32(r.IncomingEdge),
			To:     uint32(r.OutgoingEdge),
			Via:    uint32(r.ViaEdge),
			Cost:   r.Cost,
			Cell:   uint64(r.Cell),
			Inside: tag,
		})
	}
	return shortcuts, skipped
}

func validEdgeID(id int64) bool {
	return id >= 0 && id <= math.MaxUint32
}

// Load reads both inputs and assembles the immutable store.
func Load(shortcutsPath, metadataPath string) (*graph.Store, error) {
	shortcuts, err := ReadShortcuts(shortcutsPath)
	if err != nil {
		return nil, err
	}
	meta, err := ReadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	return graph.NewStore(shortcuts, meta), nil
}
