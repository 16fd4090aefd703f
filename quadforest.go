package tmr

import (
	"math/rand/v2"
	"slices"
)

// QuadForest is the 2D analogue of Forest: the subset of quad-block
// octrees this rank owns, plus the shared, replicated quad-block
// topology graph.
type QuadForest struct {
	rt    *Runtime
	comm  QuadComm
	topo  *QuadBlockTopology
	owner []int

	trees map[int32]*QuadTree
}

// NewQuadForest validates a block ownership assignment and constructs an
// (initially empty) QuadForest for the calling rank.
func NewQuadForest(rt *Runtime, comm QuadComm, topo *QuadBlockTopology, owner []int) (*QuadForest, error) {
	if topo == nil {
		return nil, wrapf(ErrInvalidConn, "NewQuadForest: topology is nil")
	}
	if len(owner) != topo.NumBlocks() {
		return nil, wrapf(ErrInvalidConn, "NewQuadForest: owner has %d entries, want %d", len(owner), topo.NumBlocks())
	}
	if rt != nil && rt.size() != comm.Size() {
		return nil, wrapf(ErrInvalidConn, "NewQuadForest: runtime size %d does not match comm size %d", rt.size(), comm.Size())
	}
	for b, r := range owner {
		if r < 0 || r >= comm.Size() {
			return nil, wrapf(ErrInvalidConn, "NewQuadForest: block %d assigned to out-of-range rank %d", b, r)
		}
	}

	f := &QuadForest{
		rt:    rt,
		comm:  comm,
		topo:  topo,
		owner: append([]int(nil), owner...),
		trees: make(map[int32]*QuadTree),
	}
	for b, r := range owner {
		if r == comm.Rank() {
			f.trees[int32(b)] = NewQuadTree(int32(b))
		}
	}
	return f, nil
}

// Topology returns the forest's shared quad-block topology graph.
func (f *QuadForest) Topology() *QuadBlockTopology {
	return f.topo
}

// Comm returns the forest's message layer.
func (f *QuadForest) Comm() QuadComm {
	return f.comm
}

// OwnerOf returns the rank owning block.
func (f *QuadForest) OwnerOf(block int32) int {
	return f.owner[block]
}

// OwnedBlocks returns the sorted block ids this rank owns.
func (f *QuadForest) OwnedBlocks() []int32 {
	blocks := make([]int32, 0, len(f.trees))
	for b := range f.trees {
		blocks = append(blocks, b)
	}
	slices.Sort(blocks)
	return blocks
}

// Tree returns the owned QuadTree for block, or nil if this rank doesn't
// own it.
func (f *QuadForest) Tree(block int32) *QuadTree {
	return f.trees[block]
}

// CreateTrees initializes every owned block's quadtree as a single
// level-0 quadrant and refines it uniformly to depth.
func (f *QuadForest) CreateTrees(depth int) {
	if depth < 0 || depth > f.rt.effectiveMaxLevel() {
		abort(f.rt.rank(), "CreateTrees: depth out of range")
	}
	for _, block := range f.OwnedBlocks() {
		t := NewQuadTree(block)
		f.trees[block] = t
		for range depth {
			t.RefineUniform()
		}
	}
}

// CreateTreesLevels is CreateTrees with a heterogeneous per-block depth.
func (f *QuadForest) CreateTreesLevels(depthByBlock map[int32]int) {
	for _, block := range f.OwnedBlocks() {
		depth := depthByBlock[block]
		t := NewQuadTree(block)
		f.trees[block] = t
		for range depth {
			t.RefineUniform()
		}
	}
}

// CreateRandomTrees replaces each owned block's leaf set with n random
// quadrants at levels in [minLev,maxLev], uniquified (any quadrant
// covered by a strictly finer one is dropped), completed so the leaves
// partition the block, and coarsened by one QuadTree.Coarsen pass.
// Intended for testing.
func (f *QuadForest) CreateRandomTrees(n, minLev, maxLev int, rng *rand.Rand) {
	for _, block := range f.OwnedBlocks() {
		set := NewQuadSet()
		for range n {
			lvl := minLev
			if maxLev > minLev {
				lvl += rng.IntN(maxLev - minLev + 1)
			}
			set.Insert(randomQuadAtLevel(block, lvl, rng))
		}
		dropCoveredQuadAncestors(set)
		completeQuadRegion(set, Quadrant{Block: block})
		t := &QuadTree{Block: block, leaves: set}
		t.Coarsen()
		f.trees[block] = t
	}
}

// dropCoveredQuadAncestors removes every quadrant that strictly contains
// another stored quadrant, leaving an antichain.
func dropCoveredQuadAncestors(s *QuadSet) {
	var drop []Quadrant
	for _, q := range s.Slice() {
		if s.hasDescendant(q) {
			drop = append(drop, q)
		}
	}
	for _, q := range drop {
		s.Remove(q)
	}
}

// completeQuadRegion fills the gaps of q's square with the coarsest
// quadrants that do not overlap anything already stored, so the stored
// leaves partition q.
func completeQuadRegion(s *QuadSet, q Quadrant) {
	if _, ok := s.Contains(q, false); ok {
		return
	}
	if !s.hasDescendant(q) {
		s.Insert(q)
		return
	}
	if q.Level >= MaxLevel {
		return
	}
	for k := range 4 {
		completeQuadRegion(s, q.Child(k))
	}
}

func randomQuadAtLevel(block int32, level int, rng *rand.Rand) Quadrant {
	h := uint32(1) << (MaxLevel - uint(level))
	mask := ^(h - 1)
	return Quadrant{
		Block: block,
		X:     rng.Uint32() & (H - 1) & mask,
		Y:     rng.Uint32() & (H - 1) & mask,
		Level: uint8(level),
	}
}

// Refine refines every leaf of every owned block by one level.
func (f *QuadForest) Refine() {
	for _, block := range f.OwnedBlocks() {
		f.trees[block].RefineUniform()
	}
}

// Coarsen collapses complete sibling groups across every owned block,
// returning the number of parent quadrants created.
func (f *QuadForest) Coarsen() int {
	created := 0
	for _, block := range f.OwnedBlocks() {
		created += f.trees[block].Coarsen()
	}
	return created
}

// LeafCount returns the total number of leaves across every owned block.
func (f *QuadForest) LeafCount() int {
	n := 0
	for _, t := range f.trees {
		n += t.LeafCount()
	}
	return n
}

// Leaves returns every local leaf across every owned block, sorted by
// (block, Morton, level).
func (f *QuadForest) Leaves() []Quadrant {
	var out []Quadrant
	for _, block := range f.OwnedBlocks() {
		out = append(out, f.trees[block].leaves.Slice()...)
	}
	return out
}

// spansQuadBlock is the 2D analogue of spansBlock.
func spansQuadBlock(leaves []Quadrant) bool {
	first, last := leaves[0], leaves[len(leaves)-1]
	h := last.SideLength()
	return first.X == 0 && first.Y == 0 && last.X+h == H && last.Y+h == H
}

// CheckInvariants verifies that every owned block's leaves pairwise
// partition the block (no overlap, no gaps at any single point tested),
// the 2D analogue of Forest.CheckInvariants.
func (f *QuadForest) CheckInvariants() error {
	for _, block := range f.OwnedBlocks() {
		set := f.trees[block].leaves
		leaves := set.Slice()
		for i, a := range leaves {
			for _, b := range leaves[i+1:] {
				if a.Contains(b) || b.Contains(a) {
					return wrapf(ErrInvalidConn, "block %d leaves %+v and %+v overlap", block, a, b)
				}
			}
		}
		// As in Forest.CheckInvariants, coverage is only asserted when
		// this rank's slice spans the whole block.
		if len(leaves) > 0 && spansQuadBlock(leaves) && !set.Covers(Quadrant{Block: block}) {
			return wrapf(ErrInvalidConn, "block %d: leaves do not cover the block", block)
		}
	}
	return nil
}
