package tmr

import "testing"

func TestCreateMeshConnLinearSingleBlockDepth1(t *testing.T) {
	f := singleBlockForest(t)
	f.CreateTrees(1) // 8 leaves

	nl, err := f.CreateNodes(2)
	if err != nil {
		t.Fatalf("CreateNodes: %v", err)
	}

	conn, elems, err := f.CreateMeshConn(nl, nil)
	if err != nil {
		t.Fatalf("CreateMeshConn: %v", err)
	}
	if elems != nil {
		t.Errorf("elems should be nil when create is nil, got %v", elems)
	}
	if got, want := len(conn), 8*8; got != want {
		t.Fatalf("len(conn) = %d, want %d", got, want)
	}

	seen := make(map[int64]bool)
	for _, idx := range conn {
		if idx < 0 {
			t.Fatalf("negative global index %d in connectivity", idx)
		}
		seen[idx] = true
	}
	_, _, total := nl.GetOwnedNodeRange()
	if int64(len(seen)) != total {
		t.Errorf("connectivity references %d distinct nodes, want all %d", len(seen), total)
	}
	for i := int64(0); i < total; i++ {
		if !seen[i] {
			t.Errorf("global index %d never appears in the connectivity", i)
		}
	}
}

func TestCreateMeshConnInvokesElementCreator(t *testing.T) {
	f := singleBlockForest(t)
	f.CreateTrees(0) // single leaf

	nl, err := f.CreateNodes(2)
	if err != nil {
		t.Fatalf("CreateNodes: %v", err)
	}

	type elem struct {
		order   int
		octant  Octant
		indices []int64
	}
	create := func(order int, o Octant, indices []int64, weights [][]float64) any {
		return elem{order: order, octant: o, indices: append([]int64(nil), indices...)}
	}

	conn, elems, err := f.CreateMeshConn(nl, create)
	if err != nil {
		t.Fatalf("CreateMeshConn: %v", err)
	}
	if len(elems) != 1 {
		t.Fatalf("len(elems) = %d, want 1", len(elems))
	}
	e := elems[0].(elem)
	if e.order != 2 {
		t.Errorf("order = %d, want 2", e.order)
	}
	if len(e.indices) != 8 || len(conn) != 8 {
		t.Errorf("indices/conn length = %d/%d, want 8/8", len(e.indices), len(conn))
	}
}

func TestDependentNodeConnWeightsSumToOne(t *testing.T) {
	f := singleBlockForest(t)
	f.CreateTrees(0)
	tree := f.Tree(0)
	tree.Refine(nil) // 8 children at level 1
	leaves := tree.Leaves().Slice()
	var target Octant
	for _, o := range leaves {
		if o.X == 0 && o.Y == 0 && o.Z == 0 {
			target = o
			break
		}
	}
	refined := NewOctantSet()
	for _, o := range leaves {
		if o == target {
			for k := range 8 {
				refined.Insert(o.Child(k))
			}
			continue
		}
		refined.Insert(o)
	}
	*tree = Octree{Block: 0, leaves: refined}

	nl, err := f.CreateNodes(3)
	if err != nil {
		t.Fatalf("CreateNodes: %v", err)
	}

	ptr, conn, weights, err := nl.DependentNodeConn()
	if err != nil {
		t.Fatalf("DependentNodeConn: %v", err)
	}
	if len(ptr) < 2 {
		t.Fatalf("expected at least one dependent node, ptr = %v", ptr)
	}
	for i := 1; i < len(ptr); i++ {
		lo, hi := ptr[i-1], ptr[i]
		sum := 0.0
		for _, w := range weights[lo:hi] {
			sum += w
		}
		if sum < 0.99 || sum > 1.01 {
			t.Errorf("dependent node %d weights sum to %v, want ~1", i-1, sum)
		}
		for _, idx := range conn[lo:hi] {
			if idx < 0 {
				t.Errorf("dependent node %d references unnumbered independent", i-1)
			}
		}
	}
}
