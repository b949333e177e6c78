package query

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Khoshkhah/routing-engine/pkg/graph"
)

// buildStore assembles a store from shortcut literals and per-edge costs.
// Every edge named in costs gets a metadata record with a global cell, so
// spatial pruning stays disabled unless a test overrides the metadata.
func buildStore(t *testing.T, shortcuts []graph.Shortcut, costs map[uint32]float64) *graph.Store {
	t.Helper()
	meta := make(map[uint32]graph.EdgeMeta, len(costs))
	for id, c := range costs {
		meta[id] = graph.EdgeMeta{LCARes: -1, Cost: c}
	}
	return graph.NewStore(shortcuts, meta)
}

func TestClassicIdentity(t *testing.T) {
	g := buildStore(t, nil, map[uint32]float64{42: 7.5})

	result := Classic(g, 42, 42)
	if !result.Reachable {
		t.Fatal("identity query not reachable")
	}
	if result.Distance != 7.5 {
		t.Errorf("Distance = %f, want 7.5", result.Distance)
	}
	if len(result.Path) != 1 || result.Path[0] != 42 {
		t.Errorf("Path = %v, want [42]", result.Path)
	}
}

func TestClassicIdentityUnknownEdge(t *testing.T) {
	// An edge without metadata has cost 0; identity still succeeds.
	g := buildStore(t, nil, map[uint32]float64{1: 1})

	result := Classic(g, 99, 99)
	if !result.Reachable || result.Distance != 0 {
		t.Errorf("got {%f, %v}, want {0, true}", result.Distance, result.Reachable)
	}
}

func TestClassicTwoHop(t *testing.T) {
	// 1 --up 2--> 2 --down 3--> 3. The backward frontier starts at edge
	// 3's own cost, so the total is 2 + 3 + cost(3).
	shortcuts := []graph.Shortcut{
		{From: 1, To: 2, Cost: 2, Inside: graph.InsideUp},
		{From: 2, To: 3, Cost: 3, Inside: graph.InsideDown},
	}
	g := buildStore(t, shortcuts, map[uint32]float64{1: 1, 2: 1, 3: 1})

	result := Classic(g, 1, 3)
	if !result.Reachable {
		t.Fatal("not reachable")
	}
	if want := 2.0 + 3.0 + 1.0; result.Distance != want {
		t.Errorf("Distance = %f, want %f", result.Distance, want)
	}
	if len(result.Path) != 3 || result.Path[0] != 1 || result.Path[1] != 2 || result.Path[2] != 3 {
		t.Errorf("Path = %v, want [1 2 3]", result.Path)
	}
}

func TestClassicZeroCostEdges(t *testing.T) {
	// With zero edge costs the distance is the shortcut sum alone.
	shortcuts := []graph.Shortcut{
		{From: 1, To: 2, Cost: 2, Inside: graph.InsideUp},
		{From: 2, To: 3, Cost: 3, Inside: graph.InsideDown},
	}
	g := buildStore(t, shortcuts, map[uint32]float64{1: 0, 2: 0, 3: 0})

	result := Classic(g, 1, 3)
	if !result.Reachable || result.Distance != 5 {
		t.Errorf("got {%f, %v}, want {5, true}", result.Distance, result.Reachable)
	}
}

func TestClassicUnreachable(t *testing.T) {
	g := buildStore(t, nil, map[uint32]float64{1: 1, 5: 1})

	result := Classic(g, 1, 5)
	if result.Reachable {
		t.Fatal("expected unreachable")
	}
	if result.Distance != InvalidDistance {
		t.Errorf("Distance = %f, want %f", result.Distance, InvalidDistance)
	}
	if len(result.Path) != 0 {
		t.Errorf("Path = %v, want empty", result.Path)
	}
}

func TestClassicForwardRejectsNonUpward(t *testing.T) {
	// The only shortcut out of the source is downward, followed by an
	// upward hop 3 -> 2. The backward direction may relax the downward
	// shortcut; the forward direction must not.
	shortcuts := []graph.Shortcut{
		{From: 1, To: 3, Cost: 1, Inside: graph.InsideDown},
		{From: 3, To: 2, Cost: 1, Inside: graph.InsideUp},
	}
	g := buildStore(t, shortcuts, map[uint32]float64{1: 0, 2: 0, 3: 0})

	// 1 -> 3 works through the backward direction (downward admitted
	// there)...
	if result := Classic(g, 1, 3); !result.Reachable {
		t.Error("downward shortcut must be usable by the backward search")
	}
	// ...but 1 -> 2 would need the forward search to take the downward hop
	// before the upward one, so it fails.
	if result := Classic(g, 1, 2); result.Reachable {
		t.Error("forward search must not traverse a downward shortcut")
	}
}

func TestClassicBackwardRejectsEdgeShortcut(t *testing.T) {
	// inside == -2 is a pruned-search fallback; Classic rejects it in
	// both directions.
	shortcuts := []graph.Shortcut{
		{From: 1, To: 2, Cost: 2, Inside: graph.InsideUp},
		{From: 2, To: 3, Cost: 3, Inside: graph.InsideEdge},
	}
	g := buildStore(t, shortcuts, map[uint32]float64{1: 0, 2: 0, 3: 0})

	if result := Classic(g, 1, 3); result.Reachable {
		t.Errorf("Classic used an inside=-2 shortcut: %+v", result)
	}
}

func TestClassicLateralAdmittedBackward(t *testing.T) {
	shortcuts := []graph.Shortcut{
		{From: 1, To: 2, Cost: 2, Inside: graph.InsideUp},
		{From: 2, To: 3, Cost: 4, Inside: graph.InsideLateral},
	}
	g := buildStore(t, shortcuts, map[uint32]float64{1: 0, 2: 0, 3: 0})

	result := Classic(g, 1, 3)
	if !result.Reachable || result.Distance != 6 {
		t.Errorf("got {%f, %v}, want {6, true}", result.Distance, result.Reachable)
	}
}

func TestClassicPicksCheaperAlternative(t *testing.T) {
	shortcuts := []graph.Shortcut{
		{From: 1, To: 2, Cost: 10, Inside: graph.InsideUp},
		{From: 2, To: 5, Cost: 10, Inside: graph.InsideDown},
		{From: 1, To: 3, Cost: 1, Inside: graph.InsideUp},
		{From: 3, To: 4, Cost: 1, Inside: graph.InsideUp},
		{From: 4, To: 5, Cost: 1, Inside: graph.InsideDown},
	}
	g := buildStore(t, shortcuts, map[uint32]float64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0})

	result := Classic(g, 1, 5)
	if !result.Reachable || result.Distance != 3 {
		t.Fatalf("got {%f, %v}, want {3, true}", result.Distance, result.Reachable)
	}
	want := []uint32{1, 3, 4, 5}
	if len(result.Path) != len(want) {
		t.Fatalf("Path = %v, want %v", result.Path, want)
	}
	for i := range want {
		if result.Path[i] != want[i] {
			t.Fatalf("Path = %v, want %v", result.Path, want)
		}
	}
}

func TestClassicZeroCostCycleTerminates(t *testing.T) {
	// Zero-cost upward cycle: relaxations stop improving, so the query
	// must drain its queues and terminate.
	shortcuts := []graph.Shortcut{
		{From: 1, To: 2, Cost: 0, Inside: graph.InsideUp},
		{From: 2, To: 1, Cost: 0, Inside: graph.InsideUp},
		{From: 2, To: 3, Cost: 1, Inside: graph.InsideDown},
	}
	g := buildStore(t, shortcuts, map[uint32]float64{1: 0, 2: 0, 3: 0})

	result := Classic(g, 1, 3)
	if !result.Reachable || result.Distance != 1 {
		t.Errorf("got {%f, %v}, want {1, true}", result.Distance, result.Reachable)
	}
}

// referenceDistance computes the optimal distance with a plain Dijkstra
// over (edge, phase) states: phase 0 paths may still take upward
// shortcuts, the first downward/lateral hop moves to phase 1 for good.
// This is exactly the shape of path the bidirectional search composes
// (upward prefix meeting a downward/lateral suffix), so it serves as an
// independent oracle.
func referenceDistance(g *graph.Store, source, target uint32) float64 {
	if source == target {
		return g.EdgeCost(source)
	}

	type state struct {
		edge  uint32
		phase uint8
	}
	dist := map[state]float64{{source, 0}: 0}
	var pq []struct {
		state
		d float64
	}
	pq = append(pq, struct {
		state
		d float64
	}{state{source, 0}, 0})

	pop := func() (state, float64) {
		minIdx := 0
		for i := 1; i < len(pq); i++ {
			if pq[i].d < pq[minIdx].d {
				minIdx = i
			}
		}
		cur := pq[minIdx]
		pq[minIdx] = pq[len(pq)-1]
		pq = pq[:len(pq)-1]
		return cur.state, cur.d
	}

	best := math.Inf(1)
	for len(pq) > 0 {
		st, d := pop()
		if d > dist[st] {
			continue
		}
		if st.edge == target {
			if d < best {
				best = d
			}
			continue
		}
		for _, si := range g.ForwardAdj(st.edge) {
			sc := g.ShortcutAt(si)
			var next state
			switch {
			case sc.Inside == graph.InsideUp && st.phase == 0:
				next = state{sc.To, 0}
			case sc.Inside == graph.InsideDown || sc.Inside == graph.InsideLateral:
				next = state{sc.To, 1}
			default:
				continue
			}
			nd := d + sc.Cost
			if old, ok := dist[next]; !ok || nd < old {
				dist[next] = nd
				pq = append(pq, struct {
					state
					d float64
				}{next, nd})
			}
		}
	}
	if math.IsInf(best, 1) {
		return InvalidDistance
	}
	return best + g.EdgeCost(target)
}

// randomStore builds a deterministic pseudo-random layered graph.
func randomStore(t *testing.T, seed int64) (*graph.Store, []uint32) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))

	const numEdges = 30
	ids := make([]uint32, numEdges)
	costs := make(map[uint32]float64, numEdges)
	for i := range ids {
		ids[i] = uint32(i + 1)
		costs[ids[i]] = float64(rng.Intn(5))
	}

	var shortcuts []graph.Shortcut
	seen := make(map[[2]uint32]bool)
	tags := []int8{graph.InsideUp, graph.InsideLateral, graph.InsideDown}
	for i := 0; i < 90; i++ {
		from := ids[rng.Intn(numEdges)]
		to := ids[rng.Intn(numEdges)]
		if from == to || seen[[2]uint32{from, to}] {
			continue
		}
		seen[[2]uint32{from, to}] = true
		shortcuts = append(shortcuts, graph.Shortcut{
			From:   from,
			To:     to,
			Cost:   float64(rng.Intn(10)) + 1,
			Inside: tags[rng.Intn(len(tags))],
		})
	}
	return buildStore(t, shortcuts, costs), ids
}

func TestClassicAgainstReference(t *testing.T) {
	for seed := int64(1); seed <= 4; seed++ {
		g, ids := randomStore(t, seed)
		for _, s := range ids {
			for _, d := range ids {
				want := referenceDistance(g, s, d)
				got := Classic(g, s, d)
				if want == InvalidDistance {
					if got.Reachable {
						t.Errorf("seed %d: %d->%d reachable (%f), reference says no", seed, s, d, got.Distance)
					}
					continue
				}
				if !got.Reachable {
					t.Errorf("seed %d: %d->%d unreachable, reference says %f", seed, s, d, want)
					continue
				}
				if math.Abs(got.Distance-want) > 1e-9 {
					t.Errorf("seed %d: %d->%d = %f, reference %f", seed, s, d, got.Distance, want)
				}
			}
		}
	}
}

func TestClassicPathCostConsistency(t *testing.T) {
	// For reachable results the reported distance equals the sum of
	// shortcut costs along the path plus the target edge's own cost.
	g, ids := randomStore(t, 7)
	for _, s := range ids {
		for _, d := range ids {
			result := Classic(g, s, d)
			if !result.Reachable || s == d {
				continue
			}
			sum := g.EdgeCost(d)
			for i := 0; i+1 < len(result.Path); i++ {
				sum += shortcutCost(t, g, result.Path[i], result.Path[i+1])
			}
			if math.Abs(sum-result.Distance) > 1e-9 {
				t.Errorf("%d->%d: path sums to %f, Distance = %f (path %v)", s, d, sum, result.Distance, result.Path)
			}
		}
	}
}

// shortcutCost finds the cheapest shortcut cost for the hop u->v.
func shortcutCost(t *testing.T, g *graph.Store, u, v uint32) float64 {
	t.Helper()
	best := math.Inf(1)
	for _, si := range g.ForwardAdj(u) {
		sc := g.ShortcutAt(si)
		if sc.To == v && sc.Cost < best {
			best = sc.Cost
		}
	}
	if math.IsInf(best, 1) {
		t.Fatalf("path hop %d->%d has no shortcut", u, v)
	}
	return best
}
