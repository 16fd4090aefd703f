package tmr

import "slices"

// quadnodelayer.go is the 2D analogue of nodelayer.go. A quad leaf of
// order o contributes o^2 candidate nodes instead of o^3, and a
// dependent node's stencil is resolved along the single coarser edge it
// sits on -- a 2D "edge" already being what the 3D code calls a face.

// quadNodePos identifies a candidate or finalized node: a block plus
// exact coordinates, level omitted since a node is a point.
type quadNodePos struct {
	block int32
	x, y  uint32
}

// QuadNode is one globally numbered mesh node in a quad forest.
type QuadNode struct {
	Block  int32
	X, Y   uint32
	Owner  int
	Global int64 // -1 until CreateNodes has run its numbering pass

	Dependent   bool
	Independent []quadNodePos // populated only when Dependent
	Weights     []float64     // parallel to Independent
}

// QuadNodeLayer is the result of QuadForest.CreateNodes.
type QuadNodeLayer struct {
	order int
	byPos map[quadNodePos]*QuadNode

	ownedExclusive int64
	ownedCount     int64
	totalNodes     int64
}

// Order returns the element order (2 or 3) this layer was built with.
func (nl *QuadNodeLayer) Order() int {
	return nl.order
}

// Len returns the number of nodes (owned and non-owning copies) known
// to this rank.
func (nl *QuadNodeLayer) Len() int {
	return len(nl.byPos)
}

// Lookup returns the node at (block,x,y), if known to this rank.
func (nl *QuadNodeLayer) Lookup(block int32, x, y uint32) (*QuadNode, bool) {
	n, ok := nl.byPos[quadNodePos{block, x, y}]
	return n, ok
}

// GetOwnedNodeRange returns this rank's contiguous range of owned
// global indices [exclusive, exclusive+count), and the process-wide
// total.
func (nl *QuadNodeLayer) GetOwnedNodeRange() (exclusive, count, total int64) {
	return nl.ownedExclusive, nl.ownedCount, nl.totalNodes
}

// All returns every node known to this rank, sorted by (block, coords).
func (nl *QuadNodeLayer) All() []*QuadNode {
	out := make([]*QuadNode, 0, len(nl.byPos))
	for _, n := range nl.byPos {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *QuadNode) int {
		return CompareQuad(Quadrant{Block: a.Block, X: a.X, Y: a.Y}, Quadrant{Block: b.Block, X: b.X, Y: b.Y})
	})
	return out
}

// CreateNodes is the 2D analogue of Forest.CreateNodes.
func (f *QuadForest) CreateNodes(order int) (*QuadNodeLayer, error) {
	if order != 2 && order != 3 {
		return nil, wrapf(ErrInvalidOrder, "got order %d", order)
	}

	nl := &QuadNodeLayer{order: order, byPos: make(map[quadNodePos]*QuadNode)}
	for _, block := range f.OwnedBlocks() {
		for _, q := range f.trees[block].leaves.Slice() {
			f.collectLeafNodes(nl, q, order)
		}
	}

	f.numberNodes(nl)
	return nl, nil
}

func (f *QuadForest) collectLeafNodes(nl *QuadNodeLayer, q Quadrant, order int) {
	h := q.SideLength()
	step := h / uint32(order-1)
	for ix := range order {
		for iy := range order {
			x := q.X + uint32(ix)*step
			y := q.Y + uint32(iy)*step
			canon := f.canonicalQuadNodePos(q.Block, x, y)

			n, ok := nl.byPos[canon]
			if !ok {
				n = &QuadNode{Block: canon.block, X: canon.x, Y: canon.y, Global: -1}
				nl.byPos[canon] = n
			}
			f.classifyDependent(n, q, x, y, order)
		}
	}
}

func (n *QuadNode) setDependent(independent []quadNodePos, weights []float64) {
	n.Dependent = true
	n.Independent = independent
	n.Weights = weights
}

// coarserCover finds the coarsest leaf in block whose closure contains
// the node position (x,y) at a level of at most maxLevel, probing the
// cell on each side of any plane the position sits on.
func (f *QuadForest) coarserCover(block int32, x, y uint32, maxLevel int) (Quadrant, bool) {
	t := f.trees[block]
	if t == nil {
		return Quadrant{}, false
	}
	var best Quadrant
	found := false
	for _, qx := range probeCoords(x) {
		for _, qy := range probeCoords(y) {
			cover, ok := t.leaves.CoveringLeaf(block, qx, qy, maxLevel)
			if ok && (!found || cover.Level < best.Level) {
				best, found = cover, true
			}
		}
	}
	return best, found
}

// classifyDependent marks n dependent if the candidate position (x,y)
// generated by leaf q lies on the edge of a coarser leaf without
// coinciding with one of that leaf's own nodes; the constraint stencil
// is the trace of the coarser element's shape functions at the position.
func (f *QuadForest) classifyDependent(n *QuadNode, q Quadrant, x, y uint32, order int) {
	if q.Level == 0 || n.Dependent {
		return
	}
	maxLevel := int(q.Level) - 1
	block, cx, cy := q.Block, x, y
	cover, ok := f.coarserCover(block, cx, cy, maxLevel)
	if !ok {
		block, cx, cy, cover, ok = f.coarserCoverAcrossFace(q, x, y, maxLevel)
		if !ok {
			return
		}
	}
	f.markDependent(n, block, cover, [2]uint32{cx - cover.X, cy - cover.Y}, order)
}

// coarserCoverAcrossFace maps a candidate on one of q's block-boundary
// planes into each face-adjacent block and searches there.
func (f *QuadForest) coarserCoverAcrossFace(q Quadrant, x, y uint32, maxLevel int) (int32, uint32, uint32, Quadrant, bool) {
	coords := [2]uint32{x, y}
	for axis := range 2 {
		if coords[axis] != 0 && coords[axis] != H {
			continue
		}
		face := 2 * axis
		if coords[axis] == H {
			face++
		}
		adj, ok := f.topo.FaceNeighbor(q.Block, face)
		if !ok || f.trees[adj.Block] == nil {
			continue
		}
		tangent := quadTangentAxis[face]
		t2 := coords[tangent]
		if adj.Orientation == 1 {
			t2 = H - t2
		}
		mapped := coords
		mapped[axis] = H - coords[axis]
		mapped[tangent] = t2
		if cover, ok := f.coarserCover(adj.Block, mapped[0], mapped[1], maxLevel); ok {
			return adj.Block, mapped[0], mapped[1], cover, true
		}
	}
	return 0, 0, 0, Quadrant{}, false
}

// markDependent records the tensor-product trace stencil of cover's
// shape functions at offset offs from cover's anchor. A position landing
// exactly on cover's own node lattice is independent and left untouched.
func (f *QuadForest) markDependent(n *QuadNode, block int32, cover Quadrant, offs [2]uint32, order int) {
	ch := cover.SideLength()
	step := ch / uint32(order-1)
	onLattice := true
	for _, off := range offs {
		if off%step != 0 {
			onLattice = false
			break
		}
	}
	if onLattice {
		return
	}

	anchor := [2]uint32{cover.X, cover.Y}
	type axis1D struct {
		coords []uint32
		w      []float64
	}
	var per [2]axis1D
	for a, off := range offs {
		if off%step == 0 {
			per[a] = axis1D{[]uint32{anchor[a] + off}, []float64{1}}
			continue
		}
		t := float64(off) / float64(ch)
		coords := make([]uint32, order)
		w := make([]float64, order)
		for i := range order {
			coords[i] = anchor[a] + uint32(i)*step
			w[i] = lagrange1D(order, i, t)
		}
		per[a] = axis1D{coords, w}
	}

	var independent []quadNodePos
	var weights []float64
	for i0, px := range per[0].coords {
		for i1, py := range per[1].coords {
			w := per[0].w[i0] * per[1].w[i1]
			if w == 0 {
				continue
			}
			independent = append(independent, f.canonicalQuadNodePos(block, px, py))
			weights = append(weights, w)
		}
	}
	n.setDependent(independent, weights)
}

// numberNodes assigns global indices: each rank counts the nodes it
// owns, exchanges one prefix sum for its starting offset, assigns
// sequential indices, then broadcasts every owned assignment so
// non-owning holders of the same node learn its index.
func (f *QuadForest) numberNodes(nl *QuadNodeLayer) {
	owned := make([]*QuadNode, 0)
	for _, n := range nl.All() {
		n.Owner = f.owner[n.Block]
		if n.Owner == f.comm.Rank() {
			owned = append(owned, n)
		}
	}

	exclusive, total := f.comm.PrefixSumInt(len(owned))
	nl.ownedExclusive = int64(exclusive)
	nl.ownedCount = int64(len(owned))
	nl.totalNodes = int64(total)

	next := int64(exclusive)
	assigned := make([]Quadrant, 0, len(owned))
	for _, n := range owned {
		n.Global = next
		assigned = append(assigned, Quadrant{Block: n.Block, X: n.X, Y: n.Y, Tag: next})
		next++
	}

	size := f.comm.Size()
	send := make([][]Quadrant, size)
	for d := range send {
		send[d] = assigned
	}
	recv := f.comm.AllToAll(send)
	for _, row := range recv {
		for _, a := range row {
			if n, ok := nl.byPos[quadNodePos{a.Block, a.X, a.Y}]; ok && n.Global < 0 {
				n.Global = a.Tag
			}
		}
	}
}
