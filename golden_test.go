package tmr

import (
	"math/rand/v2"
	"testing"

	"github.com/gjkennedy/tmr/internal/golden"
)

// toGolden converts a fast Octant slice into golden's neutral value type.
func toGolden(leaves []Octant) golden.OctantSet {
	out := make(golden.OctantSet, len(leaves))
	for i, o := range leaves {
		out[i] = golden.Octant{Block: o.Block, X: o.X, Y: o.Y, Z: o.Z, Level: o.Level}
	}
	return out
}

func TestGoldenPartitionsAgreesAfterRandomRefine(t *testing.T) {
	f := singleBlockForest(t)
	rng := rand.New(rand.NewPCG(7, 11))
	f.CreateRandomTrees(60, 0, 5, rng)

	if err := f.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
	g := toGolden(f.Leaves())
	if !g.Partitions(MaxLevel) {
		t.Errorf("golden model disagrees: leaves do not pairwise-partition the block")
	}
}

func TestGoldenBalanced2to1AfterBalance(t *testing.T) {
	f := singleBlockForest(t)
	rng := rand.New(rand.NewPCG(3, 4))
	f.CreateRandomTrees(40, 0, 5, rng)
	f.Balance()

	if err := f.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
	g := toGolden(f.Leaves())
	if !golden.Balanced2to1(g, MaxLevel) {
		t.Errorf("golden model reports a 2:1 violation after Balance")
	}
}

func TestGoldenCoveringLeafAgreesWithOctantSet(t *testing.T) {
	f := singleBlockForest(t)
	f.CreateTrees(3)

	g := toGolden(f.Leaves())
	tr := f.Tree(0)
	for _, o := range f.Leaves() {
		fast, ok := tr.Leaves().CoveringLeaf(o.Block, o.X, o.Y, o.Z, MaxLevel)
		if !ok {
			t.Fatalf("fast CoveringLeaf missed %+v", o)
		}
		slow, ok := g.CoveringLeaf(o.Block, o.X, o.Y, o.Z, MaxLevel)
		if !ok {
			t.Fatalf("golden CoveringLeaf missed %+v", o)
		}
		if fast.Level != slow.Level || fast.X != slow.X || fast.Y != slow.Y || fast.Z != slow.Z {
			t.Errorf("CoveringLeaf disagreement for %+v: fast=%+v slow=%+v", o, fast, slow)
		}
	}
}

func TestGoldenInsertDedupAgreesWithOctantSet(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	fast := NewOctantSet()
	var slow golden.OctantSet
	for _, o := range golden.RandomOctants(rng, MaxLevel, 0, 0, 4, 300) {
		fastAdded := fast.Insert(Octant{Block: o.Block, X: o.X, Y: o.Y, Z: o.Z, Level: o.Level})
		slowAdded := slow.Insert(o)
		if fastAdded != slowAdded {
			t.Fatalf("insert disagreement for %+v: fast=%v slow=%v", o, fastAdded, slowAdded)
		}
	}
	if fast.Size() != len(slow) {
		t.Errorf("set sizes diverged: fast=%d slow=%d", fast.Size(), len(slow))
	}
}

func TestGoldenRandomOctantRespectsLevelRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		o := golden.RandomOctant(rng, MaxLevel, 0, 2, 6)
		if o.Level < 2 || o.Level > 6 {
			t.Fatalf("RandomOctant level %d outside [2,6]", o.Level)
		}
		h := o.SideLength(MaxLevel)
		if o.X%h != 0 || o.Y%h != 0 || o.Z%h != 0 {
			t.Errorf("RandomOctant %+v not aligned to its own side length %d", o, h)
		}
	}
}
