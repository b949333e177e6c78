// Package h3util wraps the H3 primitives the query engine depends on.
//
// All operations are total: cell 0 means "absent/global" and resolution -1
// means "no resolution", and every function maps those sentinels through
// instead of failing.
package h3util

import (
	h3 "github.com/uber/h3-go/v4"
)

// GlobalCell is the sentinel for "absent / global" cells.
const GlobalCell = uint64(0)

// GlobalRes is the sentinel for "no resolution".
const GlobalRes = -1

// HighCell bounds a pruned search: the lowest common ancestor cell of the
// query endpoints paired with its resolution. The zero value {0, 0} is NOT
// the disabled sentinel; use Disabled / IsDisabled.
type HighCell struct {
	Cell uint64
	Res  int
}

// Disabled is the "pruning disabled" sentinel.
var Disabled = HighCell{Cell: GlobalCell, Res: GlobalRes}

// IsDisabled reports whether pruning is disabled for this high cell.
func (h HighCell) IsDisabled() bool {
	return h.Cell == GlobalCell || h.Res < 0
}

// Resolution returns the hierarchy level of cell, or -1 for the global cell.
func Resolution(cell uint64) int {
	if cell == GlobalCell {
		return GlobalRes
	}
	return h3.Cell(cell).Resolution()
}

// Parent returns the ancestor of cell at targetRes. The global cell and
// negative resolutions map to the global cell; a targetRes equal to or
// finer than (numerically >=) the cell's own resolution returns the cell
// unchanged.
func Parent(cell uint64, targetRes int) uint64 {
	if cell == GlobalCell || targetRes < 0 {
		return GlobalCell
	}
	if targetRes >= h3.Cell(cell).Resolution() {
		return cell
	}
	return uint64(h3.Cell(cell).Parent(targetRes))
}

// LCA returns the lowest common ancestor of a and b, or the global cell if
// either argument is global or the two share no ancestor (distinct base
// cells). Both cells are raised to the coarser of their resolutions, then
// walked upward in lockstep until they agree or resolution 0 is exhausted.
func LCA(a, b uint64) uint64 {
	if a == GlobalCell || b == GlobalCell {
		return GlobalCell
	}
	res := Resolution(a)
	if rb := Resolution(b); rb < res {
		res = rb
	}
	for ; res >= 0; res-- {
		pa := Parent(a, res)
		pb := Parent(b, res)
		if pa == pb {
			return pa
		}
	}
	return GlobalCell
}

// ParentCheck reports whether nodeCell lies within the ancestor subtree of
// the high cell. Disabled pruning admits every node; a global node cell
// fails against any real high cell, as does a node coarser than highRes.
func ParentCheck(nodeCell, highCell uint64, highRes int) bool {
	if highCell == GlobalCell || highRes < 0 {
		return true
	}
	if nodeCell == GlobalCell {
		return false
	}
	if highRes > Resolution(nodeCell) {
		return false
	}
	return Parent(nodeCell, highRes) == highCell
}

// CellLatLng returns the center of cell in degrees. The global cell maps to
// (0, 0); callers index only real cells.
func CellLatLng(cell uint64) (lat, lng float64) {
	if cell == GlobalCell {
		return 0, 0
	}
	ll := h3.CellToLatLng(h3.Cell(cell))
	return ll.Lat, ll.Lng
}
