package tmr

// balance.go enforces the 2:1 size condition: no leaf may be adjacent,
// by face (and by edge and corner too when the runtime opts in), to
// another leaf more than one level coarser. Each pass walks a worklist
// of octants to examine, splitting any neighbor that is too coarse and
// re-queuing its new children so the split can cascade. Balance loops
// whole rounds (local pass, then a cross-rank boundary exchange) until
// every rank reports no further splits.

// Balance refines the forest in place until the 2:1 condition holds
// everywhere, including across block and rank boundaries.
func (f *Forest) Balance() {
	for {
		local := f.balanceLocalPass()
		remote := f.balanceRemotePass()
		if f.comm.AllReduceSum(local+remote) == 0 {
			return
		}
	}
}

// splitLeaf removes o from set and inserts its 8 children, returning
// them.
func splitLeaf(set *OctantSet, o Octant) [8]Octant {
	set.Remove(o)
	var children [8]Octant
	for k := range 8 {
		c := o.Child(k)
		children[k] = c
		set.Insert(c)
	}
	return children
}

// balanceLocalPass enforces the 2:1 condition between leaves that share
// a block, returning the number of splits performed.
func (f *Forest) balanceLocalPass() int {
	splits := 0
	for _, block := range f.OwnedBlocks() {
		t := f.trees[block]
		splits += t.balanceWithinBlock(f.rt.balanceEdgeCorner())
	}
	return splits
}

func (t *Octree) balanceWithinBlock(edgeCorner bool) int {
	splits := 0
	queue := &OctantQueue{}
	for _, o := range t.leaves.Slice() {
		queue.Push(o)
	}
	for {
		o, ok := queue.Pop()
		if !ok {
			return splits
		}
		if _, stillLeaf := t.leaves.Contains(o, false); !stillLeaf {
			continue // superseded by an earlier split this pass
		}
		for _, nb := range sameLevelNeighbors(o, edgeCorner) {
			if !nb.InBounds() {
				continue // crosses a block boundary, handled by balanceRemotePass
			}
			cover, ok := t.leaves.CoveringLeaf(o.Block, nb.X, nb.Y, nb.Z, int(o.Level))
			if !ok || int(o.Level)-int(cover.Level) <= 1 {
				continue
			}
			children := splitLeaf(t.leaves, cover)
			splits++
			for _, c := range children {
				queue.Push(c)
			}
		}
	}
}

// sameLevelNeighbors returns o's same-level face neighbors, plus edge
// and corner neighbors when edgeCorner is true.
func sameLevelNeighbors(o Octant, edgeCorner bool) []Octant {
	out := make([]Octant, 0, 26)
	for fc := 0; fc < 6; fc++ {
		out = append(out, o.FaceNeighbor(fc))
	}
	if edgeCorner {
		for e := 0; e < 12; e++ {
			out = append(out, o.EdgeNeighbor(e))
		}
		for c := 0; c < 8; c++ {
			out = append(out, o.CornerNeighbor(c))
		}
	}
	return out
}

// balanceRequest is a 2:1 enforcement request: the recipient must split
// its covering leaf at (Block,X,Y,Z) down to at least Level-1.
type balanceRequest = Octant

// balanceRemotePass collects every owned leaf's out-of-bounds neighbor
// requests, exchanges them with every other rank, and applies whatever
// arrives for this rank's owned blocks. It returns the number of splits
// this rank performed in response to incoming requests.
func (f *Forest) balanceRemotePass() int {
	outgoing := make([][]balanceRequest, f.comm.Size())
	for _, block := range f.OwnedBlocks() {
		t := f.trees[block]
		edgeCorner := f.rt.balanceEdgeCorner()
		for _, o := range t.leaves.Slice() {
			for fc := 0; fc < 6; fc++ {
				if o.FaceNeighbor(fc).InBounds() {
					continue
				}
				if req, ok := f.crossFaceRequest(o, fc); ok {
					outgoing[f.owner[req.Block]] = append(outgoing[f.owner[req.Block]], req)
				}
			}
			if edgeCorner {
				for e := 0; e < 12; e++ {
					if o.EdgeNeighbor(e).InBounds() {
						continue
					}
					for _, req := range f.crossEdgeRequests(o, e) {
						outgoing[f.owner[req.Block]] = append(outgoing[f.owner[req.Block]], req)
					}
				}
				for c := 0; c < 8; c++ {
					if o.CornerNeighbor(c).InBounds() {
						continue
					}
					for _, req := range f.crossCornerRequests(o, c) {
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
			cover, ok := t.leaves.CoveringLeaf(req.Block, req.X, req.Y, req.Z, int(req.Level))
			if !ok || int(req.Level)-int(cover.Level) <= 1 {
				continue
			}
			splitLeaf(t.leaves, cover)
			applied++
		}
	}
	return applied
}
