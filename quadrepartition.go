package tmr

// quadrepartition.go is the 2D analogue of repartition.go: same
// space-filling-curve prefix-sum redistribution and majority-vote block
// re-election, specialized to Quadrant/QuadTree.

// Repartition reassigns every leaf to a contiguous slice of the global
// space-filling-curve order, split across ranks so per-rank leaf count
// differs by at most one, then re-elects each block's owner by majority
// leaf count (ties go to the lowest rank id).
func (f *QuadForest) Repartition() {
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

	send := make([][]Quadrant, size)
	for i, q := range local {
		d := destRank(exclusive + i)
		send[d] = append(send[d], q)
	}
	recv := f.comm.AllToAll(send)

	newTrees := make(map[int32]*QuadTree)
	for _, row := range recv {
		for _, q := range row {
			t, ok := newTrees[q.Block]
			if !ok {
				t = &QuadTree{Block: q.Block, leaves: NewQuadSet()}
				newTrees[q.Block] = t
			}
			t.leaves.Insert(q)
		}
	}
	f.trees = newTrees

	f.electBlockOwners()
}

// electBlockOwners recomputes f.owner by broadcasting every rank's
// per-block leaf count to every other rank and picking, for each block,
// the rank with the most leaves, lowest rank id breaking a tie.
func (f *QuadForest) electBlockOwners() {
	size := f.comm.Size()

	summary := make([]Quadrant, 0, len(f.trees))
	for _, b := range f.OwnedBlocks() {
		summary = append(summary, Quadrant{Block: b, Tag: int64(f.trees[b].LeafCount())})
	}
	send := make([][]Quadrant, size)
	for d := range send {
		send[d] = summary
	}
	recv := f.comm.AllToAll(send)

	bestCount := make(map[int32]int)
	bestRank := make(map[int32]int)
	for r, row := range recv {
		for _, q := range row {
			c := int(q.Tag)
			if c > bestCount[q.Block] {
				bestCount[q.Block] = c
				bestRank[q.Block] = r
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
