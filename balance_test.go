package tmr

import (
	"math/rand/v2"
	"sync"
	"testing"
)

func TestBalanceLocalCascadeWithinBlock(t *testing.T) {
	f := singleBlockForest(t)
	tr := f.Tree(0)

	root := Octant{Block: 0}
	tr.leaves.Remove(root)
	for k := range 8 {
		child := root.Child(k)
		if k == 0 {
			refineOctantTo(child, 3, tr.leaves)
		} else {
			tr.leaves.Insert(child)
		}
	}

	f.Balance()

	if err := f.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}

	minAdjacent := uint8(255)
	for _, o := range f.Leaves() {
		// leaves face-adjacent to the refined corner cube
		if o.X == H/2 && o.Y < H/2 && o.Z < H/2 && o.Level < minAdjacent {
			minAdjacent = o.Level
		}
	}
	if minAdjacent < 2 {
		t.Errorf("leaves face-adjacent to the level-3 corner should be refined to at least level 2, min found = %d", minAdjacent)
	}
}

func TestBalanceEdgeCornerFlagGatesEdgeRefinement(t *testing.T) {
	build := func(edgeCorner bool) *Forest {
		topo, err := NewBlockTopology(8, [][8]int32{{0, 1, 2, 3, 4, 5, 6, 7}})
		if err != nil {
			t.Fatalf("NewBlockTopology: %v", err)
		}
		rt := NewRuntime(0, 1, MaxLevel)
		rt.BalanceEdgeCorner = edgeCorner
		f, err := NewForest(rt, &SerialComm{}, topo, []int{0})
		if err != nil {
			t.Fatalf("NewForest: %v", err)
		}
		tr := f.Tree(0)
		root := Octant{Block: 0}
		tr.leaves.Remove(root)
		for k := range 8 {
			child := root.Child(k)
			if k == 0 {
				refineOctantTo(child, 3, tr.leaves)
			} else {
				tr.leaves.Insert(child)
			}
		}
		f.Balance()
		return f
	}

	levelAt := func(f *Forest, x, y, z uint32) uint8 {
		cover, ok := f.Tree(0).Leaves().CoveringLeaf(0, x, y, z, MaxLevel)
		if !ok {
			t.Fatalf("no leaf covers (%d,%d,%d)", x, y, z)
		}
		return cover.Level
	}

	// (H/2,H/2,0) touches the refined corner cube along an edge only, so
	// the face-only default must leave it at level 1.
	if lvl := levelAt(build(false), H/2, H/2, 0); lvl != 1 {
		t.Errorf("face-only balance refined an edge-adjacent leaf to level %d, want 1", lvl)
	}
	if lvl := levelAt(build(true), H/2, H/2, 0); lvl < 2 {
		t.Errorf("edge+corner balance left an edge-adjacent leaf at level %d, want >= 2", lvl)
	}
}

func TestBalanceIsIdempotentOnRandomForest(t *testing.T) {
	topo, err := NewBlockTopology(8, [][8]int32{{0, 1, 2, 3, 4, 5, 6, 7}})
	if err != nil {
		t.Fatalf("NewBlockTopology: %v", err)
	}
	rt := NewRuntime(0, 1, MaxLevel)
	rt.BalanceEdgeCorner = true
	f, err := NewForest(rt, &SerialComm{}, topo, []int{0})
	if err != nil {
		t.Fatalf("NewForest: %v", err)
	}
	rng := rand.New(rand.NewPCG(42, 43))
	f.CreateRandomTrees(100, 0, 6, rng)

	f.Balance()
	first := f.Leaves()
	if err := f.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants after first Balance: %v", err)
	}

	f.Balance()
	second := f.Leaves()
	if len(first) != len(second) {
		t.Fatalf("second Balance changed leaf count: %d -> %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("leaf %d changed across a repeated Balance: %+v -> %+v", i, first[i], second[i])
		}
	}
}

func TestBalanceAcrossSharedFaceEnforcesTwoToOne(t *testing.T) {
	conn := twoBlocksSharingFace()
	topo, err := NewBlockTopology(12, conn)
	if err != nil {
		t.Fatalf("NewBlockTopology: %v", err)
	}
	comms := NewChannelCommGroup(2)

	f0, err := NewForest(NewRuntime(0, 2, MaxLevel), comms[0], topo, []int{0, 1})
	if err != nil {
		t.Fatalf("NewForest rank0: %v", err)
	}
	f1, err := NewForest(NewRuntime(1, 2, MaxLevel), comms[1], topo, []int{0, 1})
	if err != nil {
		t.Fatalf("NewForest rank1: %v", err)
	}

	f0.CreateTrees(0)
	f1.Tree(1).Refine([]int{3})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); f0.Balance() }()
	go func() { defer wg.Done(); f1.Balance() }()
	wg.Wait()

	if err := f0.CheckInvariants(); err != nil {
		t.Errorf("block0 CheckInvariants: %v", err)
	}
	if err := f1.CheckInvariants(); err != nil {
		t.Errorf("block1 CheckInvariants: %v", err)
	}

	for _, o := range f0.Leaves() {
		if o.X+o.SideLength() == H && o.Level < 2 {
			t.Errorf("block0 leaf %+v touches the shared face and should be refined to at least level 2, got level %d", o, o.Level)
		}
	}
}
