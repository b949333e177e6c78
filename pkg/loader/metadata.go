package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
)

// ErrNoMetadata is returned when the metadata input yields no valid rows.
var ErrNoMetadata = errors.New("no valid edge metadata rows")

// metadata columns the engine requires. Extra columns are ignored.
var metadataColumns = []string{"id", "incoming_cell", "outgoing_cell", "lca_res", "length", "cost"}

// ReadMetadata loads the edge-metadata table from a CSV file.
func ReadMetadata(path string) (map[uint32]graph.EdgeMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", path, err)
	}
	defer f.Close()

	meta, err := parseMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return meta, nil
}

// parseMetadata reads the CSV stream: a header row naming at least the
// required columns, then one row per edge. Malformed rows are skipped
// silently; an empty result is a load failure.
func parseMetadata(r io.Reader) (map[uint32]graph.EdgeMeta, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range metadataColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	meta := make(map[uint32]graph.EdgeMeta)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or unquotable row: skip it, keep reading.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		id, m, ok := parseMetadataRow(rec, cols)
		if !ok {
			continue
		}
		meta[id] = m
	}
	if len(meta) == 0 {
		return nil, ErrNoMetadata
	}
	return meta, nil
}

func parseMetadataRow(rec []string, cols map[string]int) (uint32, graph.EdgeMeta, bool) {
	field := func(name string) (string, bool) {
		i := cols[name]
		if i >= len(rec) {
			return "", false
		}
		return rec[i], true
	}

	idStr, ok := field("id")
	if !ok {
		return 0, graph.EdgeMeta{}, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, graph.EdgeMeta{}, false
	}

	inCell, ok := parseCell(field("incoming_cell"))
	if !ok {
		return 0, graph.EdgeMeta{}, false
	}
	outCell, ok := parseCell(field("outgoing_cell"))
	if !ok {
		return 0, graph.EdgeMeta{}, false
	}

	lcaStr, ok := field("lca_res")
	if !ok {
		return 0, graph.EdgeMeta{}, false
	}
	lcaRes, err := strconv.Atoi(lcaStr)
	if err != nil {
		return 0, graph.EdgeMeta{}, false
	}

	length, ok := parseFinite(field("length"))
	if !ok {
		return 0, graph.EdgeMeta{}, false
	}
	cost, ok := parseFinite(field("cost"))
	if !ok || cost < 0 {
		return 0, graph.EdgeMeta{}, false
	}

	return uint32(id), graph.EdgeMeta{
		IncomingCell: inCell,
		OutgoingCell: outCell,
		LCARes:       lcaRes,
		Length:       length,
		Cost:         cost,
	}, true
}

// parseCell accepts cells as signed or unsigned decimal; the upstream
// pipeline writes int64 columns.
func parseCell(s string, ok bool) (uint64, bool) {
	if !ok {
		return 0, false
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, true
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return uint64(v), true
	}
	return 0, false
}

func parseFinite(s string, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
