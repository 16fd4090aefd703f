package tmr

import "slices"

// nodelayer.go assigns globally unique node indices across block
// boundaries and classifies hanging (dependent) nodes produced where a
// 2:1-balanced interface is non-conforming. Grounded on the
// prefix-sum-then-broadcast equation-numbering pattern used by
// FE-assembly domains (see dependency table): count what this rank
// owns, exchange a single prefix sum for the starting offset, then push
// the assigned numbers out to every rank holding a non-owned copy.

// nodePos identifies a candidate or finalized node: a block plus exact
// coordinates. Unlike an Octant it carries no level -- a node is a
// point, not a region.
type nodePos struct {
	block   int32
	x, y, z uint32
}

// Node is one globally numbered mesh node.
type Node struct {
	Block  int32
	X, Y, Z uint32
	Owner  int
	Global int64 // -1 until CreateNodes has run its numbering pass

	Dependent   bool
	Independent []nodePos // populated only when Dependent
	Weights     []float64 // parallel to Independent
}

// NodeLayer is the result of Forest.CreateNodes: every node this rank
// knows about (owned or a non-owning copy on a shared boundary),
// indexed by position, plus the per-rank owned-node range from the
// numbering pass.
type NodeLayer struct {
	order int
	byPos map[nodePos]*Node

	ownedExclusive int64
	ownedCount     int64
	totalNodes     int64
}

// Order returns the element order (2 or 3) this layer was built with.
func (nl *NodeLayer) Order() int {
	return nl.order
}

// Len returns the number of nodes (owned and non-owning copies) known
// to this rank.
func (nl *NodeLayer) Len() int {
	return len(nl.byPos)
}

// Lookup returns the node at (block,x,y,z), if known to this rank.
func (nl *NodeLayer) Lookup(block int32, x, y, z uint32) (*Node, bool) {
	n, ok := nl.byPos[nodePos{block, x, y, z}]
	return n, ok
}

// GetOwnedNodeRange returns this rank's contiguous range of owned
// global indices [exclusive, exclusive+count), and the process-wide
// total.
func (nl *NodeLayer) GetOwnedNodeRange() (exclusive, count, total int64) {
	return nl.ownedExclusive, nl.ownedCount, nl.totalNodes
}

// All returns every node known to this rank, sorted by (block, coords).
func (nl *NodeLayer) All() []*Node {
	out := make([]*Node, 0, len(nl.byPos))
	for _, n := range nl.byPos {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int {
		return Compare(Octant{Block: a.Block, X: a.X, Y: a.Y, Z: a.Z}, Octant{Block: b.Block, X: b.X, Y: b.Y, Z: b.Z})
	})
	return out
}

// CreateNodes assigns a globally consistent node numbering for element
// order order (2 = linear, 3 = quadratic). Every owned leaf contributes
// order^3 candidate nodes; candidates on a shared block boundary are
// canonicalized to a single representative position via the topology's
// orientation maps so both sides agree on identity without
// communication, then numbered by a prefix-sum-and-broadcast pass.
//
// Node ownership is simplified to the elected owner of the candidate's
// canonical block (f.owner), rather than the minimum rank among every
// rank holding any incident block: correct whenever blocks are not
// currently split across ranks (see balance.go's equivalent
// simplification and its DESIGN.md entry), which holds immediately
// after CreateTrees/CreateRandomTrees and after a block-aligned
// Repartition.
func (f *Forest) CreateNodes(order int) (*NodeLayer, error) {
	if order != 2 && order != 3 {
		return nil, wrapf(ErrInvalidOrder, "got order %d", order)
	}

	nl := &NodeLayer{order: order, byPos: make(map[nodePos]*Node)}
	for _, block := range f.OwnedBlocks() {
		for _, o := range f.trees[block].leaves.Slice() {
			f.collectLeafNodes(nl, o, order)
		}
	}

	f.numberNodes(nl)
	return nl, nil
}

func (f *Forest) collectLeafNodes(nl *NodeLayer, o Octant, order int) {
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
				if !ok {
					n = &Node{Block: canon.block, X: canon.x, Y: canon.y, Z: canon.z, Global: -1}
					nl.byPos[canon] = n
				}
				f.classifyDependent(n, o, x, y, z, order)
			}
		}
	}
}

func (n *Node) setDependent(independent []nodePos, weights []float64) {
	n.Dependent = true
	n.Independent = independent
	n.Weights = weights
}

// probeCoords returns the coordinate(s) whose covering cell touches the
// plane v: the cell on each side of v for an interior plane, only the
// inward cell at a block boundary.
func probeCoords(v uint32) []uint32 {
	switch {
	case v == 0:
		return []uint32{0}
	case v >= H:
		return []uint32{H - 1}
	default:
		return []uint32{v - 1, v}
	}
}

// coarserCover finds the coarsest leaf in block whose closure contains
// the node position (x,y,z) at a level of at most maxLevel. Every cell
// touching the position is probed, so a coarser neighbor on either side
// of the planes the position sits on is found.
func (f *Forest) coarserCover(block int32, x, y, z uint32, maxLevel int) (Octant, bool) {
	t := f.trees[block]
	if t == nil {
		return Octant{}, false
	}
	var best Octant
	found := false
	for _, qx := range probeCoords(x) {
		for _, qy := range probeCoords(y) {
			for _, qz := range probeCoords(z) {
				cover, ok := t.leaves.CoveringLeaf(block, qx, qy, qz, maxLevel)
				if ok && (!found || cover.Level < best.Level) {
					best, found = cover, true
				}
			}
		}
	}
	return best, found
}

// classifyDependent marks n dependent if the candidate position (x,y,z)
// generated by leaf o lies on the face or edge of a coarser leaf without
// coinciding with one of that leaf's own nodes, and records the trace of
// the coarser element's shape functions at the position as the
// constraint stencil. The coarser leaf may sit in o's own block or, for
// a candidate on a shared block face, in the adjacent block's tree when
// that tree is held locally.
func (f *Forest) classifyDependent(n *Node, o Octant, x, y, z uint32, order int) {
	if o.Level == 0 || n.Dependent {
		return
	}
	maxLevel := int(o.Level) - 1
	block, cx, cy, cz := o.Block, x, y, z
	cover, ok := f.coarserCover(block, cx, cy, cz, maxLevel)
	if !ok {
		block, cx, cy, cz, cover, ok = f.coarserCoverAcrossFace(o, x, y, z, maxLevel)
		if !ok {
			return
		}
	}
	f.markDependent(n, block, cover, [3]uint32{cx - cover.X, cy - cover.Y, cz - cover.Z}, order)
}

// coarserCoverAcrossFace maps a candidate on one of o's block-boundary
// planes into each face-adjacent block and searches there. A coarser
// leaf reachable only diagonally across a block edge or corner is not
// found; see DESIGN.md.
func (f *Forest) coarserCoverAcrossFace(o Octant, x, y, z uint32, maxLevel int) (int32, uint32, uint32, uint32, Octant, bool) {
	coords := [3]uint32{x, y, z}
	for axis := range 3 {
		if coords[axis] != 0 && coords[axis] != H {
			continue
		}
		face := 2 * axis
		if coords[axis] == H {
			face++
		}
		adj, ok := f.topo.FaceNeighbor(o.Block, face)
		if !ok || f.trees[adj.Block] == nil {
			continue
		}
		axes := faceUVAxes[face]
		u2, v2 := applyFaceSymmetryCoord(adj.Orientation, coords[axes[0]], coords[axes[1]], H)
		mapped := coords
		mapped[axis] = H - coords[axis]
		mapped[axes[0]] = u2
		mapped[axes[1]] = v2
		if cover, ok := f.coarserCover(adj.Block, mapped[0], mapped[1], mapped[2], maxLevel); ok {
			return adj.Block, mapped[0], mapped[1], mapped[2], cover, true
		}
	}
	return 0, 0, 0, 0, Octant{}, false
}

// lagrange1D evaluates the i-th 1D Lagrange basis over order equispaced
// nodes on [0,1] at parametric position t.
func lagrange1D(order, i int, t float64) float64 {
	if order == 2 {
		if i == 0 {
			return 1 - t
		}
		return t
	}
	// order 3, nodes at 0, 1/2, 1
	switch i {
	case 0:
		return (2*t - 1) * (t - 1)
	case 1:
		return 4 * t * (1 - t)
	default:
		return t * (2*t - 1)
	}
}

// markDependent records the tensor-product trace stencil of cover's
// shape functions at offset offs from cover's anchor. A position landing
// exactly on cover's own node lattice is independent and left untouched.
func (f *Forest) markDependent(n *Node, block int32, cover Octant, offs [3]uint32, order int) {
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

	anchor := [3]uint32{cover.X, cover.Y, cover.Z}
	type axis1D struct {
		coords []uint32
		w      []float64
	}
	var per [3]axis1D
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

	var independent []nodePos
	var weights []float64
	for i0, px := range per[0].coords {
		for i1, py := range per[1].coords {
			for i2, pz := range per[2].coords {
				w := per[0].w[i0] * per[1].w[i1] * per[2].w[i2]
				if w == 0 {
					continue
				}
				independent = append(independent, f.canonicalNodePos(block, px, py, pz))
				weights = append(weights, w)
			}
		}
	}
	n.setDependent(independent, weights)
}

// numberNodes assigns global indices: each rank counts the nodes it
// owns, exchanges one prefix sum for its starting offset, assigns
// sequential indices, then broadcasts every owned assignment so
// non-owning holders of the same node learn its index.
func (f *Forest) numberNodes(nl *NodeLayer) {
	owned := make([]*Node, 0)
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
	assigned := make([]Octant, 0, len(owned))
	for _, n := range owned {
		n.Global = next
		assigned = append(assigned, Octant{Block: n.Block, X: n.X, Y: n.Y, Z: n.Z, Tag: next})
		next++
	}

	size := f.comm.Size()
	send := make([][]Octant, size)
	for d := range send {
		send[d] = assigned
	}
	recv := f.comm.AllToAll(send)
	for _, row := range recv {
		for _, a := range row {
			if n, ok := nl.byPos[nodePos{a.Block, a.X, a.Y, a.Z}]; ok && n.Global < 0 {
				n.Global = a.Tag
			}
		}
	}
}
