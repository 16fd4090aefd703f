package tmr

import (
	"math/rand/v2"
	"testing"
)

func singleBlockForest(t *testing.T) *Forest {
	t.Helper()
	topo, err := NewBlockTopology(8, [][8]int32{{0, 1, 2, 3, 4, 5, 6, 7}})
	if err != nil {
		t.Fatalf("NewBlockTopology: %v", err)
	}
	f, err := NewForest(NewRuntime(0, 1, MaxLevel), &SerialComm{}, topo, []int{0})
	if err != nil {
		t.Fatalf("NewForest: %v", err)
	}
	return f
}

func TestForestCreateTreesDepth2HasSixtyFourLeaves(t *testing.T) {
	f := singleBlockForest(t)
	f.CreateTrees(2)
	if got := f.LeafCount(); got != 64 {
		t.Errorf("LeafCount() = %d, want 64", got)
	}
	if err := f.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
}

func TestForestCoarsenUndoesUniformRefine(t *testing.T) {
	f := singleBlockForest(t)
	f.CreateTrees(3)
	before := f.LeafCount()

	f.Refine()
	if got := f.LeafCount(); got != before*8 {
		t.Fatalf("after Refine: LeafCount() = %d, want %d", got, before*8)
	}

	created := f.Coarsen()
	if created != before {
		t.Errorf("Coarsen() created %d parents, want %d", created, before)
	}
	if got := f.LeafCount(); got != before {
		t.Errorf("after Coarsen: LeafCount() = %d, want %d", got, before)
	}
	if err := f.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
}

func TestForestCreateRandomTreesRespectsLevelRange(t *testing.T) {
	f := singleBlockForest(t)
	rng := rand.New(rand.NewPCG(1, 2))
	f.CreateRandomTrees(50, 1, 4, rng)

	if err := f.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
	for _, o := range f.Leaves() {
		if o.Level < 1 || o.Level > 4 {
			t.Errorf("leaf %+v has level outside [1,4]", o)
		}
	}
}

func TestForestOwnedBlocksAndLeavesAreSorted(t *testing.T) {
	f := singleBlockForest(t)
	f.CreateTrees(1)

	leaves := f.Leaves()
	for i := 1; i < len(leaves); i++ {
		if Compare(leaves[i-1], leaves[i]) > 0 {
			t.Fatalf("Leaves() not sorted at index %d: %+v > %+v", i, leaves[i-1], leaves[i])
		}
	}
}

func TestNewForestRejectsBadOwnerLength(t *testing.T) {
	topo, _ := NewBlockTopology(8, [][8]int32{{0, 1, 2, 3, 4, 5, 6, 7}})
	if _, err := NewForest(NewRuntime(0, 1, MaxLevel), &SerialComm{}, topo, []int{0, 0}); err == nil {
		t.Fatalf("expected an error for mismatched owner length")
	}
}

func TestNewForestRejectsOutOfRangeRank(t *testing.T) {
	topo, _ := NewBlockTopology(8, [][8]int32{{0, 1, 2, 3, 4, 5, 6, 7}})
	if _, err := NewForest(NewRuntime(0, 1, MaxLevel), &SerialComm{}, topo, []int{5}); err == nil {
		t.Fatalf("expected an error for an owner rank outside comm size")
	}
}

func TestForestMultiBlockOwnershipPartitionsTrees(t *testing.T) {
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

	if got := f0.OwnedBlocks(); len(got) != 1 || got[0] != 0 {
		t.Errorf("rank0 OwnedBlocks() = %v, want [0]", got)
	}
	if got := f1.OwnedBlocks(); len(got) != 1 || got[0] != 1 {
		t.Errorf("rank1 OwnedBlocks() = %v, want [1]", got)
	}
	if f0.Tree(1) != nil {
		t.Errorf("rank0 should not own block 1")
	}
}
