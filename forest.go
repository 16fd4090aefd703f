package tmr

import (
	"math/rand/v2"
	"slices"
)

// Forest owns the octrees for the subset of blocks this rank holds, plus
// the shared, replicated block-topology graph. Every block is owned by
// exactly one rank; the union of all ranks' leaves partitions the
// domain.
type Forest struct {
	rt    *Runtime
	comm  Comm
	topo  *BlockTopology
	owner []int // owner[block] = owning rank

	trees map[int32]*Octree // only this rank's owned blocks
}

// NewForest validates a block ownership assignment and constructs an
// (initially empty, pre-CreateTrees) Forest for the calling rank.
func NewForest(rt *Runtime, comm Comm, topo *BlockTopology, owner []int) (*Forest, error) {
	if topo == nil {
		return nil, wrapf(ErrInvalidConn, "NewForest: topology is nil")
	}
	if len(owner) != topo.NumBlocks() {
		return nil, wrapf(ErrInvalidConn, "NewForest: owner has %d entries, want %d", len(owner), topo.NumBlocks())
	}
	if rt != nil && rt.size() != comm.Size() {
		return nil, wrapf(ErrInvalidConn, "NewForest: runtime size %d does not match comm size %d", rt.size(), comm.Size())
	}
	for b, r := range owner {
		if r < 0 || r >= comm.Size() {
			return nil, wrapf(ErrInvalidConn, "NewForest: block %d assigned to out-of-range rank %d", b, r)
		}
	}

	f := &Forest{
		rt:    rt,
		comm:  comm,
		topo:  topo,
		owner: append([]int(nil), owner...),
		trees: make(map[int32]*Octree),
	}
	for b, r := range owner {
		if r == comm.Rank() {
			f.trees[int32(b)] = NewOctree(int32(b))
		}
	}
	return f, nil
}

// Topology returns the forest's shared block-topology graph.
func (f *Forest) Topology() *BlockTopology {
	return f.topo
}

// Comm returns the forest's message layer.
func (f *Forest) Comm() Comm {
	return f.comm
}

// OwnerOf returns the rank owning block.
func (f *Forest) OwnerOf(block int32) int {
	return f.owner[block]
}

// OwnedBlocks returns the sorted block ids this rank owns.
func (f *Forest) OwnedBlocks() []int32 {
	blocks := make([]int32, 0, len(f.trees))
	for b := range f.trees {
		blocks = append(blocks, b)
	}
	slices.Sort(blocks)
	return blocks
}

// Tree returns the owned Octree for block, or nil if this rank doesn't
// own it.
func (f *Forest) Tree(block int32) *Octree {
	return f.trees[block]
}

// CreateTrees initializes every owned block's octree as a single
// level-0 octant and refines it uniformly to depth.
func (f *Forest) CreateTrees(depth int) {
	if depth < 0 || depth > f.rt.effectiveMaxLevel() {
		abort(f.rt.rank(), "CreateTrees: depth out of range")
	}
	for _, block := range f.OwnedBlocks() {
		t := NewOctree(block)
		f.trees[block] = t
		for range depth {
			t.RefineUniform()
		}
	}
}

// CreateTreesLevels is CreateTrees with a heterogeneous per-block depth,
// depthByBlock[b] giving block b's uniform refinement depth.
func (f *Forest) CreateTreesLevels(depthByBlock map[int32]int) {
	for _, block := range f.OwnedBlocks() {
		depth := depthByBlock[block]
		t := NewOctree(block)
		f.trees[block] = t
		for range depth {
			t.RefineUniform()
		}
	}
}

// CreateRandomTrees replaces each owned block's leaf set with n random
// octants at levels in [minLev,maxLev], uniquified (any octant covered
// by a strictly finer one is dropped), completed so the leaves partition
// the block, and coarsened by one Octree.Coarsen pass. Intended for
// testing.
func (f *Forest) CreateRandomTrees(n, minLev, maxLev int, rng *rand.Rand) {
	for _, block := range f.OwnedBlocks() {
		set := NewOctantSet()
		for range n {
			lvl := minLev
			if maxLev > minLev {
				lvl += rng.IntN(maxLev - minLev + 1)
			}
			set.Insert(randomOctantAtLevel(block, lvl, rng))
		}
		dropCoveredAncestors(set)
		completeRegion(set, Octant{Block: block})
		t := &Octree{Block: block, leaves: set}
		t.Coarsen()
		f.trees[block] = t
	}
}

// dropCoveredAncestors removes every octant that strictly contains
// another stored octant, leaving an antichain.
func dropCoveredAncestors(s *OctantSet) {
	var drop []Octant
	for _, o := range s.Slice() {
		if s.hasDescendant(o) {
			drop = append(drop, o)
		}
	}
	for _, o := range drop {
		s.Remove(o)
	}
}

// completeRegion fills the gaps of o's cube with the coarsest octants
// that do not overlap anything already stored, so the stored leaves
// partition o.
func completeRegion(s *OctantSet, o Octant) {
	if _, ok := s.Contains(o, false); ok {
		return
	}
	if !s.hasDescendant(o) {
		s.Insert(o)
		return
	}
	if o.Level >= MaxLevel {
		return
	}
	for k := range 8 {
		completeRegion(s, o.Child(k))
	}
}

func randomOctantAtLevel(block int32, level int, rng *rand.Rand) Octant {
	h := uint32(1) << (MaxLevel - uint(level))
	n := uint32(1) << uint(level)
	return Octant{
		X:     uint32(rng.IntN(int(n))) * h,
		Y:     uint32(rng.IntN(int(n))) * h,
		Z:     uint32(rng.IntN(int(n))) * h,
		Level: uint8(level),
		Block: block,
	}
}

// Refine refines every owned leaf one level uniformly across every
// owned block. It is a purely local operation.
func (f *Forest) Refine() {
	for _, t := range f.trees {
		t.RefineUniform()
	}
}

// Coarsen collapses complete sibling groups into their parents across
// every owned block and returns the total number of parents created --
// the forest-level counterpart to Refine, implied by the round-trip law
// coarsen(refine_uniform(F,1)) == F.
func (f *Forest) Coarsen() int {
	total := 0
	for _, t := range f.trees {
		total += t.Coarsen()
	}
	return total
}

// LeafCount returns the number of leaves owned by this rank across every
// owned block.
func (f *Forest) LeafCount() int {
	total := 0
	for _, t := range f.trees {
		total += t.LeafCount()
	}
	return total
}

// Leaves returns every owned leaf octant, in SFC (block, Morton) order.
func (f *Forest) Leaves() []Octant {
	blocks := f.OwnedBlocks()
	var out []Octant
	for _, b := range blocks {
		out = append(out, f.trees[b].leaves.Slice()...)
	}
	return out
}

// spansBlock reports whether a sorted leaf slice reaches from the
// block's Morton start (the origin corner) to its Morton end (the far
// corner), i.e. whether this rank holds the block's full SFC range.
func spansBlock(leaves []Octant) bool {
	first, last := leaves[0], leaves[len(leaves)-1]
	h := last.SideLength()
	return first.X == 0 && first.Y == 0 && first.Z == 0 &&
		last.X+h == H && last.Y+h == H && last.Z+h == H
}

// CheckInvariants verifies, for every owned block, that the leaves
// partition the block: no leaf contains another distinct leaf, and the
// leaves together tile the whole block cube. It is meant to be called by
// tests after every forest-mutating operation, the explicit-method
// equivalent of a debug build's automatic invariant checking.
func (f *Forest) CheckInvariants() error {
	for _, block := range f.OwnedBlocks() {
		set := f.trees[block].leaves
		leaves := set.Slice()
		for i := range leaves {
			for j := range leaves {
				if i == j {
					continue
				}
				if leaves[i].Contains(leaves[j]) {
					return wrapf(ErrInvalidConn, "block %d: leaf %+v contains leaf %+v", block, leaves[i], leaves[j])
				}
			}
		}
		// Coverage can only be asserted when this rank holds the whole
		// block; after a repartition a block may straddle the cut, in
		// which case the local slice is a partial SFC segment.
		if len(leaves) > 0 && spansBlock(leaves) && !set.Covers(Octant{Block: block}) {
			return wrapf(ErrInvalidConn, "block %d: leaves do not cover the block", block)
		}
	}
	return nil
}
