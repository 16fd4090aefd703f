package tmr

// element.go carries the pluggable create-element hook. The forest core
// never interprets the returned value; it only threads it through
// CreateMeshConn so a caller outside the core (the FE assembler) can
// build whatever element representation it needs.

// ElementCreator builds an opaque element handle from an octant's order,
// its p^d node indices (in the local canonical order CreateMeshConn
// enumerates them), and the interpolation weights of any dependent node
// among them (nil entries for independent nodes). The forest core stores
// this function value and calls it once per local leaf from
// CreateMeshConn; it never inspects or depends on the returned type.
type ElementCreator func(order int, o Octant, indices []int64, weights [][]float64) any

// CreateMeshConn emits, for every local leaf in SFC (sorted) order, the
// order^3 global node indices of its nodes as found in nl (which must
// have been built by a prior CreateNodes(order) call on f). The returned
// conn slice has length order^3 * n, where n is the number of local
// leaves across all of f's owned blocks; the indices for leaf i occupy
// conn[i*order^3 : (i+1)*order^3].
//
// If create is non-nil, it is additionally invoked once per leaf and its
// results collected into elems.
func (f *Forest) CreateMeshConn(nl *NodeLayer, create ElementCreator) (conn []int64, elems []any, err error) {
	if nl == nil {
		return nil, nil, wrapf(ErrEmptyForest, "CreateMeshConn: nil node layer")
	}
	order := nl.order
	d := order * order * order

	var leaves []Octant
	for _, block := range f.OwnedBlocks() {
		leaves = append(leaves, f.trees[block].leaves.Slice()...)
	}

	conn = make([]int64, 0, d*len(leaves))
	if create != nil {
		elems = make([]any, 0, len(leaves))
	}

	for _, o := range leaves {
		indices := make([]int64, 0, d)
		var weights [][]float64
		if create != nil {
			weights = make([][]float64, 0, d)
		}

		h := o.SideLength()
		step := h / uint32(order-1)
		for ix := range order {
			for iy := range order {
				for iz := range order {
					x := o.X + uint32(ix)*step
					y := o.Y + uint32(iy)*step
					z := o.Z + uint32(iz)*step
					canon := f.canonicalNodePos(o.Block, x, y, z)
					n, ok := nl.byPos[canon]
					if !ok || n.Global < 0 {
						return nil, nil, wrapf(ErrEmptyForest, "CreateMeshConn: leaf %+v has an unnumbered node at (%d,%d,%d)", o, x, y, z)
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
		}

		conn = append(conn, indices...)
		if create != nil {
			elems = append(elems, create(order, o, indices, weights))
		}
	}

	return conn, elems, nil
}

// DependentNodeConn emits the CSR-style dependent-node constraint
// connectivity: ptr has one entry per
// dependent node plus a trailing total, conn holds each dependent node's
// independent-node global indices concatenated, and weights holds the
// matching interpolation weight for each conn entry. Independent nodes
// referenced by a dependent node must already carry a valid Global index
// (i.e. nl came from a completed CreateNodes pass).
func (nl *NodeLayer) DependentNodeConn() (ptr []int32, conn []int64, weights []float64, err error) {
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
