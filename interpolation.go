package tmr

// interpolation.go builds a sparse nodal interpolation between two
// forests covering the same domain at different refinement levels: for
// every node of a target forest, find the leaf of this (source) forest
// containing that node's point and evaluate the leaf's trilinear corner
// shape functions at the node's parametric position within it.

// InterpEntry is one (source-node, weight) pair contributing to a
// target node's interpolated value.
type InterpEntry struct {
	SourceGlobal int64
	Weight       float64
}

// InterpolationReceiver accumulates the sparse interpolation operator
// CreateInterpolation builds, one target node at a time, mirroring the
// assembler collaborator's role of consuming connectivity without the
// core depending on its concrete representation.
type InterpolationReceiver interface {
	AddInterpolation(targetGlobal int64, entries []InterpEntry)
}

// CreateInterpolation evaluates, for every node in target that lies in a
// block this (source) forest owns, the trilinear shape functions of the
// owning leaf of src at that node's parametric position, and reports the
// resulting weighted combination of src's corner nodes to receiver.
// Target nodes in a block this forest does not own are skipped: the
// source forest has no octree to search them against without a ghost
// layer this operation does not build.
//
// src must be the NodeLayer this forest produced via CreateNodes; target
// is the NodeLayer of the other forest (coarser or finer) whose nodes
// are being interpolated onto src's element shape functions.
func (f *Forest) CreateInterpolation(src *NodeLayer, target *NodeLayer, receiver InterpolationReceiver) error {
	if src == nil || target == nil {
		return wrapf(ErrEmptyForest, "CreateInterpolation: nil node layer")
	}

	for _, tn := range target.All() {
		t, ok := f.trees[tn.Block]
		if !ok {
			continue // block not owned locally; no octree to search
		}

		// Clamp so a node on the block's far boundary still resolves to
		// the leaf whose closed cube contains it.
		leaf, ok := t.leaves.CoveringLeaf(tn.Block, min(tn.X, H-1), min(tn.Y, H-1), min(tn.Z, H-1), MaxLevel)
		if !ok {
			return wrapf(ErrEmptyForest, "CreateInterpolation: no leaf of block %d covers (%d,%d,%d)", tn.Block, tn.X, tn.Y, tn.Z)
		}

		entries, err := f.trilinearWeights(src, leaf, tn.X, tn.Y, tn.Z)
		if err != nil {
			return err
		}
		if tn.Global < 0 {
			return wrapf(ErrEmptyForest, "CreateInterpolation: target node %+v has no global index", tn)
		}
		receiver.AddInterpolation(tn.Global, entries)
	}
	return nil
}

// trilinearWeights evaluates leaf's 8 corner shape functions at point
// (x,y,z), which must lie inside or on the boundary of leaf, and looks
// up each corner's global index in src.
func (f *Forest) trilinearWeights(src *NodeLayer, leaf Octant, x, y, z uint32) ([]InterpEntry, error) {
	h := float64(leaf.SideLength())
	u := float64(x-leaf.X) / h
	v := float64(y-leaf.Y) / h
	w := float64(z-leaf.Z) / h

	entries := make([]InterpEntry, 0, 8)
	for k := range 8 {
		nu, nv, nw := shapeFactor(k&1, u), shapeFactor((k>>1)&1, v), shapeFactor((k>>2)&1, w)
		weight := nu * nv * nw
		if weight == 0 {
			continue
		}

		ch := leaf.SideLength()
		cx, cy, cz := leaf.X, leaf.Y, leaf.Z
		if k&1 != 0 {
			cx += ch
		}
		if (k>>1)&1 != 0 {
			cy += ch
		}
		if (k>>2)&1 != 0 {
			cz += ch
		}
		canon := f.canonicalNodePos(leaf.Block, cx, cy, cz)
		n, ok := src.byPos[canon]
		if !ok || n.Global < 0 {
			return nil, wrapf(ErrEmptyForest, "CreateInterpolation: source corner (%d,%d,%d) of block %d has no numbered node", cx, cy, cz, leaf.Block)
		}
		entries = append(entries, InterpEntry{SourceGlobal: n.Global, Weight: weight})
	}
	return entries, nil
}

// shapeFactor returns the 1D linear Lagrange factor for bit (0 = low end,
// 1 = high end) at parametric coordinate t in [0,1].
func shapeFactor(bit int, t float64) float64 {
	if bit == 0 {
		return 1 - t
	}
	return t
}
