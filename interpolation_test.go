package tmr

import "testing"

type capturingReceiver struct {
	cols map[int64][]InterpEntry
}

func (r *capturingReceiver) AddInterpolation(target int64, entries []InterpEntry) {
	if r.cols == nil {
		r.cols = make(map[int64][]InterpEntry)
	}
	r.cols[target] = append([]InterpEntry(nil), entries...)
}

func TestCreateInterpolationCoarseToFineReproducesCorners(t *testing.T) {
	coarse := singleBlockForest(t)
	coarse.CreateTrees(0) // single level-0 leaf
	srcNodes, err := coarse.CreateNodes(2)
	if err != nil {
		t.Fatalf("coarse CreateNodes: %v", err)
	}

	fine := singleBlockForest(t)
	fine.CreateTrees(2) // 64 leaves
	targetNodes, err := fine.CreateNodes(2)
	if err != nil {
		t.Fatalf("fine CreateNodes: %v", err)
	}

	recv := &capturingReceiver{}
	if err := coarse.CreateInterpolation(srcNodes, targetNodes, recv); err != nil {
		t.Fatalf("CreateInterpolation: %v", err)
	}

	if len(recv.cols) != targetNodes.Len() {
		t.Fatalf("got %d interpolated targets, want %d", len(recv.cols), targetNodes.Len())
	}
	for target, entries := range recv.cols {
		sum := 0.0
		for _, e := range entries {
			sum += e.Weight
			if e.SourceGlobal < 0 {
				t.Errorf("target %d has an unnumbered source entry", target)
			}
		}
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("target %d weights sum to %v, want 1", target, sum)
		}
	}

	// A fine corner node coincides exactly with a coarse corner node, so
	// its interpolation should collapse to a single weight-1 entry.
	var cornerNode *Node
	for _, n := range targetNodes.All() {
		if n.X == 0 && n.Y == 0 && n.Z == 0 {
			cornerNode = n
			break
		}
	}
	if cornerNode == nil {
		t.Fatalf("expected a fine node at the block origin")
	}
	entries := recv.cols[cornerNode.Global]
	if len(entries) != 1 || entries[0].Weight < 0.999 {
		t.Errorf("corner node interpolation = %+v, want a single weight-1 entry", entries)
	}
}
