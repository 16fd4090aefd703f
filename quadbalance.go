package tmr

// quadbalance.go is the 2D analogue of balance.go. A quad has no
// separate edge entity -- its 4 faces already are the 1D boundaries a
// 3D octant's 12 edges would be -- so the edge-and-corner opt-in
// reduces to corners here, and the remote pass only ever exchanges
// face requests, plus corner requests when the runtime opts in.

// Balance refines the quad forest in place until the 2:1 condition
// holds everywhere, including across block and rank boundaries.
func (f *QuadForest) Balance() {
	for {
		local := f.balanceLocalPass()
		remote := f.balanceRemotePass()
		if f.comm.AllReduceSum(local+remote) == 0 {
			return
		}
	}
}

// splitQuadLeaf removes q from set and inserts its 4 children, returning
// them.
func splitQuadLeaf(set *QuadSet, q Quadrant) [4]Quadrant {
	set.Remove(q)
	var children [4]Quadrant
	for k := range 4 {
		c := q.Child(k)
		children[k] = c
		set.Insert(c)
	}
	return children
}

// balanceLocalPass enforces the 2:1 condition between leaves that share
// a block, returning the number of splits performed.
func (f *QuadForest) balanceLocalPass() int {
	splits := 0
	for _, block := range f.OwnedBlocks() {
		t := f.trees[block]
		splits += t.balanceWithinBlock(f.rt.balanceEdgeCorner())
	}
	return splits
}

func (t *QuadTree) balanceWithinBlock(corner bool) int {
	splits := 0
	queue := &QuadQueue{}
	for _, q := range t.leaves.Slice() {
		queue.Push(q)
	}
	for {
		q, ok := queue.Pop()
		if !ok {
			return splits
		}
		if _, stillLeaf := t.leaves.Contains(q, false); !stillLeaf {
			continue // superseded by an earlier split this pass
		}
		for _, nb := range sameLevelQuadNeighbors(q, corner) {
			if !nb.InBounds() {
				continue // crosses a block boundary, handled by balanceRemotePass
			}
			cover, ok := t.leaves.CoveringLeaf(q.Block, nb.X, nb.Y, int(q.Level))
			if !ok || int(q.Level)-int(cover.Level) <= 1 {
				continue
			}
			children := splitQuadLeaf(t.leaves, cover)
			splits++
			for _, c := range children {
				queue.Push(c)
			}
		}
	}
}

// sameLevelQuadNeighbors returns q's same-level face neighbors, plus
// corner neighbors when corner is true.
func sameLevelQuadNeighbors(q Quadrant, corner bool) []Quadrant {
	out := make([]Quadrant, 0, 8)
	for fc := 0; fc < 4; fc++ {
		out = append(out, q.FaceNeighbor(fc))
	}
	if corner {
		for c := 0; c < 4; c++ {
			out = append(out, q.CornerNeighbor(c))
		}
	}
	return out
}

// quadBalanceRequest is a 2:1 enforcement request: the recipient must
// split its covering leaf at (Block,X,Y) down to at least Level-1.
type quadBalanceRequest = Quadrant

// balanceRemotePass collects every owned leaf's out-of-bounds neighbor
// requests, exchanges them with every other rank, and applies whatever
// arrives for this rank's owned blocks. It returns the number of splits
// this rank performed in response to incoming requests.
func (f *QuadForest) balanceRemotePass() int {
	outgoing := make([][]quadBalanceRequest, f.comm.Size())
	for _, block := range f.OwnedBlocks() {
		t := f.trees[block]
		corner := f.rt.balanceEdgeCorner()
		for _, q := range t.leaves.Slice() {
			for fc := 0; fc < 4; fc++ {
				if q.FaceNeighbor(fc).InBounds() {
					continue
				}
				if req, ok := f.crossQuadFaceRequest(q, fc); ok {
					outgoing[f.owner[req.Block]] = append(outgoing[f.owner[req.Block]], req)
				}
			}
			if corner {
				for c := 0; c < 4; c++ {
					if q.CornerNeighbor(c).InBounds() {
						continue
					}
					for _, req := range f.crossQuadCornerRequests(q, c) {
						outgoing[f.owner[req.Block]] = append(outgoing[f.owner[req.Block]], req)
					}
				}
			}
		}
	}

	incoming := f.comm.AllToAll(outgoing)
	applied := 0
	for _, row := range incoming {
		for _, req := range row {
			t := f.trees[req.Block]
			if t == nil {
				continue
			}
			cover, ok := t.leaves.CoveringLeaf(req.Block, req.X, req.Y, int(req.Level))
			if !ok || int(req.Level)-int(cover.Level) <= 1 {
				continue
			}
			splitQuadLeaf(t.leaves, cover)
			applied++
		}
	}
	return applied
}
