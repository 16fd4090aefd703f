package tmr

import "testing"

// twoBlocksSharingFace builds two unit cubes glued on block 0's face 1
// (+x) to block 1's face 0 (-x), in matching orientation (shared nodes
// 1,3,5,7 of block 0 equal nodes 0,2,4,6 of block 1).
func twoBlocksSharingFace() [][8]int32 {
	// block 0 corners: 0..7
	// block 1 corners: reuses block 0's +x face nodes (1,3,5,7) as its
	// -x face nodes, and allocates 4 fresh nodes for its +x face.
	b0 := [8]int32{0, 1, 2, 3, 4, 5, 6, 7}
	b1 := [8]int32{1, 8, 3, 9, 5, 10, 7, 11}
	return [][8]int32{b0, b1}
}

func TestFaceNeighborShared(t *testing.T) {
	conn := twoBlocksSharingFace()
	topo, err := NewBlockTopology(12, conn)
	if err != nil {
		t.Fatalf("NewBlockTopology: %v", err)
	}

	adj, ok := topo.FaceNeighbor(0, 1)
	if !ok {
		t.Fatalf("expected block 0 face 1 to have a neighbor")
	}
	if adj.Block != 1 || adj.Face != 0 {
		t.Errorf("got %+v, want Block=1 Face=0", adj)
	}

	back, ok := topo.FaceNeighbor(1, 0)
	if !ok || back.Block != 0 || back.Face != 1 {
		t.Errorf("reverse adjacency = %+v, ok=%v", back, ok)
	}
}

func TestFaceNeighborBoundary(t *testing.T) {
	conn := twoBlocksSharingFace()
	topo, _ := NewBlockTopology(12, conn)
	if _, ok := topo.FaceNeighbor(0, 0); ok {
		t.Errorf("block 0 face 0 (-x) is a domain boundary, expected ok=false")
	}
}

func TestFaceSharedByMoreThanTwoBlocksIsError(t *testing.T) {
	b0 := [8]int32{0, 1, 2, 3, 4, 5, 6, 7}
	b1 := [8]int32{1, 8, 3, 9, 5, 10, 7, 11}
	b2 := [8]int32{1, 8, 3, 9, 5, 10, 7, 11} // duplicates b1's face exactly
	if _, err := NewBlockTopology(12, [][8]int32{b0, b1, b2}); err == nil {
		t.Fatalf("expected an error for a face shared by 3 blocks")
	}
}

// twoBlocksSharingEdgeOpposite builds two cubes sharing only edge 0
// (corners 0,1) of block 0 with edge 1 (corners 2,3) of block 1, in
// opposite node order -- the scenario from the node-uniqueness test.
func twoBlocksSharingEdgeOpposite() [][8]int32 {
	b0 := [8]int32{0, 1, 2, 3, 4, 5, 6, 7}
	// block 1's edge-1 corners (2,3) are block 0's edge-0 corners (0,1)
	// but reversed: corner2=1, corner3=0.
	b1 := [8]int32{8, 9, 1, 0, 10, 11, 12, 13}
	return [][8]int32{b0, b1}
}

func TestEdgeNeighborOrientation(t *testing.T) {
	conn := twoBlocksSharingEdgeOpposite()
	topo, err := NewBlockTopology(14, conn)
	if err != nil {
		t.Fatalf("NewBlockTopology: %v", err)
	}

	neighbors := topo.EdgeNeighbors(0, 0)
	if len(neighbors) != 1 {
		t.Fatalf("expected exactly one edge neighbor, got %d", len(neighbors))
	}
	n := neighbors[0]
	if n.Block != 1 || n.Edge != 1 || n.Orientation != 1 {
		t.Errorf("got %+v, want Block=1 Edge=1 Orientation=1 (opposite)", n)
	}
}

func TestCornerNeighborsSharedNode(t *testing.T) {
	conn := twoBlocksSharingFace()
	topo, _ := NewBlockTopology(12, conn)
	// corner 1 of block 0 (node 1) is corner 0 of block 1 (node 1)
	neighbors := topo.CornerNeighbors(0, 1)
	if len(neighbors) != 1 || neighbors[0].Block != 1 || neighbors[0].Corner != 0 {
		t.Errorf("got %+v, want a single neighbor {Block:1 Corner:0}", neighbors)
	}
}

func TestFaceOrientationRoundTrip(t *testing.T) {
	ids := [4]int32{10, 20, 30, 40}
	for o := range 8 {
		permuted := applyFaceOrientation(o, ids)
		got, ok := faceOrientation(permuted, ids)
		if !ok {
			t.Fatalf("orientation %d: no symmetry matched its own permutation", o)
		}
		if got != o {
			t.Errorf("orientation %d round-tripped to %d", o, got)
		}
	}
}

func TestAssignBlocksRoundRobin(t *testing.T) {
	owner := AssignBlocksRoundRobin(5, 2)
	want := []int{0, 1, 0, 1, 0}
	for i := range want {
		if owner[i] != want[i] {
			t.Errorf("owner[%d] = %d, want %d", i, owner[i], want[i])
		}
	}
}
