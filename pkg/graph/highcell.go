package graph

import "github.com/Khoshkhah/routing-engine/pkg/h3util"

// HighCell derives the LCA cell bounding a (source, target) query. Every
// gap in the inputs degrades to the disabled sentinel instead of failing:
// a missing metadata record, a global incoming cell on either side, or two
// cells with no common ancestor all turn pruning off for the query.
func (s *Store) HighCell(source, target uint32) h3util.HighCell {
	sm, ok := s.meta[source]
	if !ok {
		return h3util.Disabled
	}
	tm, ok := s.meta[target]
	if !ok {
		return h3util.Disabled
	}

	sc := sm.IncomingCell
	tc := tm.IncomingCell
	if sc == h3util.GlobalCell || tc == h3util.GlobalCell {
		return h3util.Disabled
	}

	// Raise each side to its precomputed LCA resolution before meeting in
	// the middle; a negative lca_res leaves the cell at its own level.
	if sm.LCARes >= 0 {
		sc = h3util.Parent(sc, sm.LCARes)
	}
	if tm.LCARes >= 0 {
		tc = h3util.Parent(tc, tm.LCARes)
	}

	lca := h3util.LCA(sc, tc)
	if lca == h3util.GlobalCell {
		return h3util.Disabled
	}
	return h3util.HighCell{Cell: lca, Res: h3util.Resolution(lca)}
}
