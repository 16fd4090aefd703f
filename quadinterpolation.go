package tmr

// quadinterpolation.go is the 2D analogue of interpolation.go: bilinear
// (4-corner) shape functions in place of trilinear.

// CreateInterpolation evaluates, for every node in target that lies in a
// block this (source) forest owns, the bilinear shape functions of the
// owning leaf of src at that node's parametric position, and reports the
// resulting weighted combination of src's corner nodes to receiver.
func (f *QuadForest) CreateInterpolation(src *QuadNodeLayer, target *QuadNodeLayer, receiver InterpolationReceiver) error {
	if src == nil || target == nil {
		return wrapf(ErrEmptyForest, "CreateInterpolation: nil node layer")
	}

	for _, tn := range target.All() {
		t, ok := f.trees[tn.Block]
		if !ok {
			continue // block not owned locally; no quadtree to search
		}

		// Clamp so a node on the block's far boundary still resolves to
		// the leaf whose closed square contains it.
		leaf, ok := t.leaves.CoveringLeaf(tn.Block, min(tn.X, H-1), min(tn.Y, H-1), MaxLevel)
		if !ok {
			return wrapf(ErrEmptyForest, "CreateInterpolation: no leaf of block %d covers (%d,%d)", tn.Block, tn.X, tn.Y)
		}

		entries, err := f.bilinearWeights(src, leaf, tn.X, tn.Y)
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

// bilinearWeights evaluates leaf's 4 corner shape functions at point
// (x,y), which must lie inside or on the boundary of leaf, and looks up
// each corner's global index in src.
func (f *QuadForest) bilinearWeights(src *QuadNodeLayer, leaf Quadrant, x, y uint32) ([]InterpEntry, error) {
	h := float64(leaf.SideLength())
	u := float64(x-leaf.X) / h
	v := float64(y-leaf.Y) / h

	entries := make([]InterpEntry, 0, 4)
	for k := range 4 {
		nu, nv := shapeFactor(k&1, u), shapeFactor((k>>1)&1, v)
		weight := nu * nv
		if weight == 0 {
			continue
		}

		ch := leaf.SideLength()
		cx, cy := leaf.X, leaf.Y
		if k&1 != 0 {
			cx += ch
		}
		if (k>>1)&1 != 0 {
			cy += ch
		}
		canon := f.canonicalQuadNodePos(leaf.Block, cx, cy)
		n, ok := src.byPos[canon]
		if !ok || n.Global < 0 {
			return nil, wrapf(ErrEmptyForest, "CreateInterpolation: source corner (%d,%d) of block %d has no numbered node", cx, cy, leaf.Block)
		}
		entries = append(entries, InterpEntry{SourceGlobal: n.Global, Weight: weight})
	}
	return entries, nil
}
