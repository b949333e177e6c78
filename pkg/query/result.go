// Package query implements the bidirectional Dijkstra variants answering
// one-to-one and many-to-many shortest-path queries over the shortcut
// graph: Classic (no spatial pruning), Pruned (H3 popped-node pruning with
// global fallbacks), and Multi (multi-endpoint initialization).
//
// All per-query state lives in the transient searchState values, so any
// number of queries may run concurrently against the same immutable Store.
package query

// InvalidDistance is the reserved distance of unreachable results.
const InvalidDistance = float64(-1)

// Result is the outcome of a query. Unreachable targets are reported here,
// never as errors: Reachable is false, Distance is InvalidDistance and
// Path is empty.
type Result struct {
	Distance  float64  `json:"distance"`
	Path      []uint32 `json:"path"`
	Reachable bool     `json:"reachable"`
}

func unreachable() Result {
	return Result{Distance: InvalidDistance, Path: []uint32{}, Reachable: false}
}
