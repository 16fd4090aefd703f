package tmr

// quadelement.go is the 2D analogue of element.go: the same pluggable
// element-creation hook and CSR dependent-node output, specialized to
// Quadrant/QuadNodeLayer and order^2 nodes per leaf instead of order^3.

// QuadElementCreator builds an opaque element handle from a quadrant's
// order, its p^2 node indices (in the local canonical order
// CreateMeshConn enumerates them), and the interpolation weights of any
// dependent node among them (nil entries for independent nodes).
type QuadElementCreator func(order int, q Quadrant, indices []int64, weights [][]float64) any

// CreateMeshConn emits, for every local leaf in SFC (sorted) order, the
// order^2 global node indices of its nodes as found in nl (which must
// have been built by a prior CreateNodes(order) call on f).
func (f *QuadForest) CreateMeshConn(nl *QuadNodeLayer, create QuadElementCreator) (conn []int64, elems []any, err error) {
	if nl == nil {
		return nil, nil, wrapf(ErrEmptyForest, "CreateMeshConn: nil node layer")
	}
	order := nl.order
	d := order * order

	var leaves []Quadrant
	for _, block := range f.OwnedBlocks() {
		leaves = append(leaves, f.trees[block].leaves.Slice()...)
	}

	conn = make([]int64, 0, d*len(leaves))
	if create != nil {
		elems = make([]any, 0, len(leaves))
	}

	for _, q := range leaves {
		indices := make([]int64, 0, d)
		var weights [][]float64
		if create != nil {
			weights = make([][]float64, 0, d)
		}

		h := q.SideLength()
		step := h / uint32(order-1)
		for ix := range order {
			for iy := range order {
				x := q.X + uint32(ix)*step
				y := q.Y + uint32(iy)*step
				canon := f.canonicalQuadNodePos(q.Block, x, y)
				n, ok := nl.byPos[canon]
				if !ok || n.Global < 0 {
					return nil, nil, wrapf(ErrEmptyForest, "CreateMeshConn: leaf %+v has an unnumbered node at (%d,%d)", q, x, y)
				}
				indices = append(indices, n.Global)
				if create != nil {
					if n.Dependent {
						weights = append(weights, n.Weights)
					} else {
						weights = append(weights, nil)
					}
				}
			}
		}

		conn = append(conn, indices...)
		if create != nil {
			elems = append(elems, create(order, q, indices, weights))
		}
	}

	return conn, elems, nil
}

// DependentNodeConn emits the CSR-style dependent-node constraint
// connectivity: ptr has one entry per dependent node plus a trailing
// total, conn holds each dependent node's independent-node global
// indices concatenated, and weights holds the matching interpolation
// weight for each conn entry.
func (nl *QuadNodeLayer) DependentNodeConn() (ptr []int32, conn []int64, weights []float64, err error) {
	ptr = make([]int32, 1, 8)
	for _, n := range nl.All() {
		if !n.Dependent {
			continue
		}
		for i, ind := range n.Independent {
			dep, ok := nl.byPos[ind]
			if !ok || dep.Global < 0 {
				return nil, nil, nil, wrapf(ErrEmptyForest, "DependentNodeConn: dependent node %+v references an unnumbered independent %+v", n, ind)
			}
			conn = append(conn, dep.Global)
			weights = append(weights, n.Weights[i])
		}
		ptr = append(ptr, int32(len(conn)))
	}
	return ptr, conn, weights, nil
}
