package query

import (
	"math"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
	"github.com/Khoshkhah/routing-engine/pkg/h3util"
)

// Pruned answers a one-to-one query with H3 popped-node pruning. The
// search is bounded to the ancestor subtree of the query's high cell: the
// forward direction refuses to expand popped nodes outside it, the
// backward direction switches between downward, lateral and direct-edge
// shortcuts depending on where the popped node sits relative to the high
// cell. When the high cell degrades to the disabled sentinel the search
// behaves exactly like Classic.
func Pruned(g *graph.Store, source, target uint32) Result {
	if source == target {
		return Result{Distance: g.EdgeCost(source), Path: []uint32{source}, Reachable: true}
	}

	high := g.HighCell(source, target)

	fwd := newSearchState()
	bwd := newSearchState()
	fwd.seed(source, 0)
	bwd.seed(target, g.EdgeCost(target))

	best := math.Inf(1)
	var meeting uint32
	found := false

	for fwd.pq.Len() > 0 || bwd.pq.Len() > 0 {
		if !math.IsInf(best, 1) {
			fwdDone := fwd.pq.Len() == 0 || fwd.pq.PeekDist() >= best
			bwdDone := bwd.pq.Len() == 0 || bwd.pq.PeekDist() >= best
			if fwdDone && bwdDone {
				break
			}
		}

		if fwd.pq.Len() > 0 {
			if m, ok := prunedForwardStep(g, fwd, bwd, &best, high); ok {
				meeting, found = m, true
			}
		}
		if bwd.pq.Len() > 0 {
			if m, ok := prunedBackwardStep(g, fwd, bwd, &best, high); ok {
				meeting, found = m, true
			}
		}
	}

	if !found || math.IsInf(best, 1) {
		return unreachable()
	}
	return Result{
		Distance:  best,
		Path:      reconstructPath(fwd.parent, bwd.parent, meeting),
		Reachable: true,
	}
}

func prunedForwardStep(g *graph.Store, fwd, bwd *searchState, best *float64, high h3util.HighCell) (uint32, bool) {
	item := fwd.pq.Pop()
	d, u := item.Dist, item.Edge

	var meeting uint32
	found := false

	// Meeting check before staleness and bound checks: a popped node the
	// backward direction already knows must get its chance to improve
	// best, stale or not.
	if bd, ok := bwd.dist[u]; ok && d+bd <= *best {
		*best = d + bd
		meeting, found = u, true
	}

	if d > fwd.dist[u] || d >= *best {
		return meeting, found
	}

	// Popped-node pruning: the forward direction hard-prunes anything
	// outside the high cell's subtree.
	if !h3util.ParentCheck(g.EdgeCell(u), high.Cell, high.Res) {
		return meeting, found
	}

	for _, si := range g.ForwardAdj(u) {
		sc := g.ShortcutAt(si)
		if sc.Inside != graph.InsideUp {
			continue
		}
		nd := d + sc.Cost
		fwd.relax(sc.To, nd, u)
		if bd, ok := bwd.dist[sc.To]; ok && nd+bd < *best {
			*best = nd + bd
			meeting, found = sc.To, true
		}
	}
	return meeting, found
}

func prunedBackwardStep(g *graph.Store, fwd, bwd *searchState, best *float64, high h3util.HighCell) (uint32, bool) {
	item := bwd.pq.Pop()
	d, u := item.Dist, item.Edge

	var meeting uint32
	found := false

	if fd, ok := fwd.dist[u]; ok && d+fd < *best {
		*best = d + fd
		meeting, found = u, true
	}

	if d > bwd.dist[u] || d >= *best {
		return meeting, found
	}

	uCell := g.EdgeCell(u)
	check := h3util.ParentCheck(uCell, high.Cell, high.Res)
	// With pruning disabled every popped node counts as the apex, which
	// keeps lateral shortcuts admitted everywhere and the search identical
	// to Classic.
	atHigh := high.IsDisabled() || uCell == high.Cell

	for _, si := range g.BackwardAdj(u) {
		sc := g.ShortcutAt(si)
		include := false
		switch sc.Inside {
		case graph.InsideDown:
			include = check
		case graph.InsideLateral:
			include = atHigh || !check
		case graph.InsideEdge:
			include = !check
		}
		if !include {
			continue
		}
		nd := d + sc.Cost
		bwd.relax(sc.From, nd, u)
		if fd, ok := fwd.dist[sc.From]; ok && nd+fd < *best {
			*best = nd + fd
			meeting, found = sc.From, true
		}
	}
	return meeting, found
}
