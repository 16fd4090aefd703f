package tmr

// repartition.go redistributes leaves along the forest's space-filling
// curve so every rank holds a contiguous, near-equal slice. It assumes,
// as its starting invariant, that rank r's current leaves all precede
// rank r+1's in global (block, Morton) order -- true after
// AssignBlocksContiguous and maintained by Repartition itself, but not
// by AssignBlocksRoundRobin. Refine and Balance never reassign leaf
// ownership, so the invariant survives any number of those calls
// between two Repartition rounds.

// Repartition reassigns every leaf to a contiguous slice of the global
// space-filling-curve order, split across ranks so per-rank leaf count
// differs by at most one, then re-elects each block's owner by majority
// leaf count (ties go to the lowest rank id). A block whose leaves
// straddle the new cut appears, with a partial octree, on both sides
// until the next Repartition.
func (f *Forest) Repartition() {
	local := f.Leaves()

	n := len(local)
	exclusive, total := f.comm.PrefixSumInt(n)
	size := f.comm.Size()

	base, rem := 0, 0
	if size > 0 {
		base, rem = total/size, total%size
	}
	destRank := func(globalIdx int) int {
		if base == 0 {
			return globalIdx
		}
		cut := rem * (base + 1)
		if globalIdx < cut {
			return globalIdx / (base + 1)
		}
		return rem + (globalIdx-cut)/base
	}

	send := make([][]Octant, size)
	for i, o := range local {
		d := destRank(exclusive + i)
		send[d] = append(send[d], o)
	}
	recv := f.comm.AllToAll(send)

	newTrees := make(map[int32]*Octree)
	for _, row := range recv {
		for _, o := range row {
			t, ok := newTrees[o.Block]
			if !ok {
				t = &Octree{Block: o.Block, leaves: NewOctantSet()}
				newTrees[o.Block] = t
			}
			t.leaves.Insert(o)
		}
	}
	f.trees = newTrees

	f.electBlockOwners()
}

// electBlockOwners recomputes f.owner by broadcasting every rank's
// per-block leaf count to every other rank (an all-gather built from
// AllToAll by sending each rank an identical row) and picking, for each
// block, the rank with the most leaves, lowest rank id breaking a tie.
func (f *Forest) electBlockOwners() {
	size := f.comm.Size()

	summary := make([]Octant, 0, len(f.trees))
	for _, b := range f.OwnedBlocks() {
		summary = append(summary, Octant{Block: b, Tag: int64(f.trees[b].LeafCount())})
	}
	send := make([][]Octant, size)
	for d := range send {
		send[d] = summary
	}
	recv := f.comm.AllToAll(send)

	bestCount := make(map[int32]int)
	bestRank := make(map[int32]int)
	for r, row := range recv {
		for _, o := range row {
			c := int(o.Tag)
			if c > bestCount[o.Block] {
				bestCount[o.Block] = c
				bestRank[o.Block] = r
			}
		}
	}

	owner := make([]int, f.topo.NumBlocks())
	for b := range owner {
		if r, ok := bestRank[int32(b)]; ok {
			owner[b] = r
		} else {
			owner[b] = f.owner[b]
		}
	}
	f.owner = owner
}
