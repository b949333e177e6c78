package query

import (
	"fmt"
	"math"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
)

// Multi answers a many-to-many query: each source edge carries an approach
// cost, each target edge an egress cost, and the result is the cheapest
// source→target combination. Endpoints absent from edge metadata are
// dropped; a side left without endpoints makes the query unreachable.
//
// The search body is Classic's — with multiple endpoints there is no
// single high cell, so spatial pruning cannot be applied safely. The
// termination rule also differs: a queue top at or past best only proves
// that queue exhausted (its remaining entries may belong to other
// endpoints), so that queue is discarded and the loop runs until both
// queues are empty.
func Multi(g *graph.Store, sources []uint32, sourceDists []float64, targets []uint32, targetDists []float64) Result {
	if len(sources) != len(sourceDists) {
		panic(fmt.Sprintf("query: %d sources with %d approach costs", len(sources), len(sourceDists)))
	}
	if len(targets) != len(targetDists) {
		panic(fmt.Sprintf("query: %d targets with %d egress costs", len(targets), len(targetDists)))
	}

	fwd := newSearchState()
	bwd := newSearchState()
	for i, s := range sources {
		if _, ok := g.Meta(s); !ok {
			continue
		}
		fwd.seed(s, sourceDists[i])
	}
	for j, t := range targets {
		if _, ok := g.Meta(t); !ok {
			continue
		}
		bwd.seed(t, g.EdgeCost(t)+targetDists[j])
	}
	if len(fwd.dist) == 0 || len(bwd.dist) == 0 {
		return unreachable()
	}

	best := math.Inf(1)
	var meeting uint32
	found := false

	for fwd.pq.Len() > 0 || bwd.pq.Len() > 0 {
		if !math.IsInf(best, 1) {
			if fwd.pq.PeekDist() >= best {
				fwd.pq.Clear()
			}
			if bwd.pq.PeekDist() >= best {
				bwd.pq.Clear()
			}
			if fwd.pq.Len() == 0 && bwd.pq.Len() == 0 {
				break
			}
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
