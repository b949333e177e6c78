package query

// searchState is the per-direction transient state of one query: best
// known distances, parent links and the priority queue. Edge ids in the
// input are sparse and uncompacted, so maps back the state instead of
// dense slices. parent[x] == x marks an initial frontier node.
type searchState struct {
	dist   map[uint32]float64
	parent map[uint32]uint32
	pq     MinHeap
}

func newSearchState() *searchState {
	return &searchState{
		dist:   make(map[uint32]float64),
		parent: make(map[uint32]uint32),
		pq:     MinHeap{items: make([]PQItem, 0, 64)},
	}
}

// seed installs an initial frontier node. Repeated seeds of the same edge
// keep the minimum distance.
func (st *searchState) seed(u uint32, d float64) {
	if old, ok := st.dist[u]; ok && old <= d {
		return
	}
	st.dist[u] = d
	st.parent[u] = u
	st.pq.Push(u, d)
}

// relax lowers the best known distance of v, recording u as its parent.
// Returns false when v already has an equal or better distance.
func (st *searchState) relax(v uint32, nd float64, u uint32) bool {
	if old, ok := st.dist[v]; ok && nd >= old {
		return false
	}
	st.dist[v] = nd
	st.parent[v] = u
	st.pq.Push(v, nd)
	return true
}
