// Package locate resolves geographic coordinates to candidate edges of the
// search graph. Edges carry no segment geometry, only an incoming H3 cell,
// so the index stores each edge at its cell center and refines candidates
// by great-circle distance. The output feeds the multi-endpoint query as
// its (edges, approach costs) seed lists.
package locate

import (
	"errors"
	"sort"

	"github.com/tidwall/rtree"

	"github.com/Khoshkhah/routing-engine/pkg/geo"
	"github.com/Khoshkhah/routing-engine/pkg/graph"
	"github.com/Khoshkhah/routing-engine/pkg/h3util"
)

// ErrPointTooFar is returned when no indexed edge lies within the index's
// distance cap (DefaultMaxDistMeters).
var ErrPointTooFar = errors.New("point too far from any known edge")

const (
	// DefaultMaxDistMeters caps how far a query point may sit from the
	// nearest candidate's cell center.
	DefaultMaxDistMeters = 2_000.0

	// Initial half-width of the search window in degrees. 0.01° ≈ 1.1 km
	// at the equator; the window doubles until k candidates are found or
	// it grows past maxWindowDeg.
	initialWindowDeg = 0.01
	maxWindowDeg     = 0.64
)

// Candidate is an edge near a query point.
type Candidate struct {
	Edge       uint32
	DistMeters float64
}

// Index is an R-tree over the H3 cell centers of all metadata edges.
type Index struct {
	tr      rtree.RTree
	maxDist float64
}

// NewIndex builds the locator from the store's edge metadata. Edges with a
// global incoming cell have no position and are not indexed.
func NewIndex(s *graph.Store) *Index {
	ix := &Index{maxDist: DefaultMaxDistMeters}
	for _, id := range s.EdgeIDs() {
		cell := s.EdgeCell(id)
		if cell == h3util.GlobalCell {
			continue
		}
		lat, lng := h3util.CellLatLng(cell)
		pt := [2]float64{lng, lat}
		ix.tr.Insert(pt, pt, id)
	}
	return ix
}

// Len returns the number of indexed edges.
func (ix *Index) Len() int {
	return ix.tr.Len()
}

// Nearest returns up to k candidate edges around (lat, lng), closest
// first, all within the index's distance cap.
func (ix *Index) Nearest(lat, lng float64, k int) []Candidate {
	if k <= 0 {
		return nil
	}

	var cands []Candidate
	for window := initialWindowDeg; window <= maxWindowDeg; window *= 2 {
		cands = cands[:0]
		min := [2]float64{lng - window, lat - window}
		max := [2]float64{lng + window, lat + window}
		ix.tr.Search(min, max, func(pt, _ [2]float64, value interface{}) bool {
			// Cheap equirectangular filter first (with slack for its
			// error); the exact distance is only computed for survivors.
			if geo.EquirectangularDist(lat, lng, pt[1], pt[0]) > ix.maxDist*1.02 {
				return true
			}
			d := geo.Haversine(lat, lng, pt[1], pt[0])
			if d <= ix.maxDist {
				cands = append(cands, Candidate{Edge: value.(uint32), DistMeters: d})
			}
			return true
		})
		if len(cands) >= k {
			break
		}
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].DistMeters != cands[j].DistMeters {
			return cands[i].DistMeters < cands[j].DistMeters
		}
		return cands[i].Edge < cands[j].Edge
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands
}

// Endpoints resolves a point to the seed lists the multi-endpoint query
// expects: candidate edges and their approach costs in meters.
func (ix *Index) Endpoints(lat, lng float64, k int) ([]uint32, []float64, error) {
	cands := ix.Nearest(lat, lng, k)
	if len(cands) == 0 {
		return nil, nil, ErrPointTooFar
	}
	edges := make([]uint32, len(cands))
	dists := make([]float64, len(cands))
	for i, c := range cands {
		edges[i] = c.Edge
		dists[i] = c.DistMeters
	}
	return edges, dists, nil
}
