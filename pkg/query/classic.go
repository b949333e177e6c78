package query

import (
	"math"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
)

// Classic answers a one-to-one query with bidirectional Dijkstra and
// direction-typed edge filtering but no spatial pruning: the forward
// search relaxes upward shortcuts only, the backward search downward and
// lateral ones.
func Classic(g *graph.Store, source, target uint32) Result {
	if source == target {
		return Result{Distance: g.EdgeCost(source), Path: []uint32{source}, Reachable: true}
	}

	fwd := newSearchState()
	bwd := newSearchState()
	fwd.seed(source, 0)
	// The backward frontier starts at the target edge's own traversal
	// cost, so a finished distance covers every edge on the path except
	// the source.
	bwd.seed(target, g.EdgeCost(target))

	best := math.Inf(1)
	var meeting uint32
	found := false

	for fwd.pq.Len() > 0 || bwd.pq.Len() > 0 {
		// PeekDist is +Inf on an empty queue, which collapses the three
		// termination cases: both tops at or past best, a drained queue
		// with the survivor's top at or past best, or both drained.
		if fwd.pq.PeekDist() >= best && bwd.pq.PeekDist() >= best {
			break
		}

		if fwd.pq.Len() > 0 {
			if m, ok := forwardStep(g, fwd, bwd, &best); ok {
				meeting, found = m, true
			}
		}
		if bwd.pq.Len() > 0 {
			if m, ok := backwardStep(g, fwd, bwd, &best); ok {
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

// forwardStep pops one forward entry and relaxes its upward shortcuts.
// Returns a new meeting point if best improved.
func forwardStep(g *graph.Store, fwd, bwd *searchState, best *float64) (uint32, bool) {
	item := fwd.pq.Pop()
	d, u := item.Dist, item.Edge
	if d > fwd.dist[u] || d >= *best {
		return 0, false
	}

	var meeting uint32
	found := false
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

// backwardStep mirrors forwardStep on the reverse adjacency: shortcuts
// into u are relaxed toward their From endpoint, admitting downward and
// lateral tags.
func backwardStep(g *graph.Store, fwd, bwd *searchState, best *float64) (uint32, bool) {
	item := bwd.pq.Pop()
	d, u := item.Dist, item.Edge
	if d > bwd.dist[u] || d >= *best {
		return 0, false
	}

	var meeting uint32
	found := false
	for _, si := range g.BackwardAdj(u) {
		sc := g.ShortcutAt(si)
		if sc.Inside != graph.InsideDown && sc.Inside != graph.InsideLateral {
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
