package query

// reconstructPath assembles the source→target edge sequence from the two
// parent maps. Initial frontier nodes are their own parents, so each walk
// stops at its root; the meeting point appears once, contributed by the
// forward half.
func reconstructPath(fwdParent, bwdParent map[uint32]uint32, meeting uint32) []uint32 {
	var rev []uint32
	u := meeting
	for {
		rev = append(rev, u)
		p, ok := fwdParent[u]
		if !ok || p == u {
			break
		}
		u = p
	}

	path := make([]uint32, 0, len(rev)+4)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}

	u = meeting
	for {
		p, ok := bwdParent[u]
		if !ok || p == u {
			break
		}
		path = append(path, p)
		u = p
	}
	return path
}
