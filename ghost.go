package tmr

// ghost.go maps a leaf's position across a block boundary into a
// neighboring block's coordinate frame, using the orientation codes
// BlockTopology derives from the node connectivity. Balance's boundary
// exchange sends requests in the sender's own frame; the receiver must
// reinterpret the coordinates in its own block before looking up a
// covering leaf.

// faceUVAxes[f] gives the two axis indices (0=X,1=Y,2=Z) spanning face f
// tangentially, in the same (u,v) order as corner2D/faceCorners.
var faceUVAxes = [6][2]int{
	{1, 2}, {1, 2}, // -x,+x
	{0, 2}, {0, 2}, // -y,+y
	{0, 1}, {0, 1}, // -z,+z
}

func axisValue(o Octant, axis int) uint32 {
	switch axis {
	case 0:
		return o.X
	case 1:
		return o.Y
	default:
		return o.Z
	}
}

func withAxisValue(o Octant, axis int, v uint32) Octant {
	switch axis {
	case 0:
		o.X = v
	case 1:
		o.Y = v
	default:
		o.Z = v
	}
	return o
}

// applyFaceSymmetryCoord maps a continuous (u,v) position in [0,extent]
// on one face to its image under orientation o -- the same dihedral
// symmetry faceOrientation matches against the 4 corners, generalized
// from the corner domain {0,1} to the full [0,extent] range so a leaf's
// exact position, not just which corner it touches, can cross a
// boundary.
func applyFaceSymmetryCoord(o int, u, v, extent uint32) (uint32, uint32) {
	switch o {
	case 0:
		return u, v
	case 1:
		return v, u
	case 2:
		return extent - u, v
	case 3:
		return u, extent - v
	case 4:
		return extent - u, extent - v
	case 5:
		return v, extent - u
	case 6:
		return extent - v, u
	case 7:
		return extent - v, extent - u
	default:
		return u, v
	}
}

// crossFaceRequest maps o's position across its out-of-bounds face face
// into the neighboring block's frame. ok is false at a true domain
// boundary (no registered neighbor).
func (f *Forest) crossFaceRequest(o Octant, face int) (Octant, bool) {
	adj, ok := f.topo.FaceNeighbor(o.Block, face)
	if !ok {
		return Octant{}, false
	}
	h := o.SideLength()
	axes := faceUVAxes[face]
	u2, v2 := applyFaceSymmetryCoord(adj.Orientation, axisValue(o, axes[0]), axisValue(o, axes[1]), H-h)

	req := Octant{Block: adj.Block, Level: o.Level}
	req = withAxisValue(req, axes[0], u2)
	req = withAxisValue(req, axes[1], v2)

	normalAxis := faceOffsets[face].axis
	normalCoord := H - h
	if faceOffsets[face].positive {
		normalCoord = 0
	}
	return withAxisValue(req, normalAxis, normalCoord), true
}

// edgeAxis returns the axis (0=X,1=Y,2=Z) local edge e runs parallel to,
// matching Octant.EdgeNeighbor's e/4 grouping.
func edgeAxis(e int) int {
	return e / 4
}

// edgeTransverseCoords returns the two fixed boundary coordinates (axis
// index and value, each 0 or H-h) of local edge e's two non-parallel
// axes, read directly off edgeCorners' corner-index bits.
func edgeTransverseCoords(e int, h uint32) (int, uint32, int, uint32) {
	axis := edgeAxis(e)
	axes := faceUVAxes[axis*2]
	c := edgeCorners[e][0]
	coord := func(a int) uint32 {
		if (c>>uint(a))&1 == 1 {
			return H - h
		}
		return 0
	}
	return axes[0], coord(axes[0]), axes[1], coord(axes[1])
}

// crossEdgeRequests maps o's position across its out-of-bounds edge e
// into every other block sharing that edge. It assumes connected edges
// run along geometrically corresponding axes, matching an axis-aligned
// block grid; edgeOrientation only distinguishes same/opposite
// direction, not an axis permutation, so a block mesh with edges
// rotated onto a different axis is out of scope.
func (f *Forest) crossEdgeRequests(o Octant, e int) []Octant {
	neighbors := f.topo.EdgeNeighbors(o.Block, e)
	if len(neighbors) == 0 {
		return nil
	}
	h := o.SideLength()
	axis := edgeAxis(e)
	along := axisValue(o, axis)

	out := make([]Octant, 0, len(neighbors))
	for _, n := range neighbors {
		pos := along
		if n.Orientation == 1 {
			pos = H - h - along
		}
		a1, v1, a2, v2 := edgeTransverseCoords(n.Edge, h)
		req := Octant{Block: n.Block, Level: o.Level}
		req = withAxisValue(req, axis, pos)
		req = withAxisValue(req, a1, v1)
		req = withAxisValue(req, a2, v2)
		out = append(out, req)
	}
	return out
}

// crossCornerRequests maps o's position across its out-of-bounds corner
// c into every other block sharing that corner. A corner has no
// continuous coordinate to map, only a fixed boundary point, read
// directly off c's bit pattern.
func (f *Forest) crossCornerRequests(o Octant, c int) []Octant {
	neighbors := f.topo.CornerNeighbors(o.Block, c)
	if len(neighbors) == 0 {
		return nil
	}
	h := o.SideLength()
	out := make([]Octant, 0, len(neighbors))
	for _, n := range neighbors {
		req := Octant{Block: n.Block, Level: o.Level}
		for axis := 0; axis < 3; axis++ {
			v := uint32(0)
			if (n.Corner>>uint(axis))&1 == 1 {
				v = H - h
			}
			req = withAxisValue(req, axis, v)
		}
		out = append(out, req)
	}
	return out
}

// canonicalNodePos maps a node candidate at (x,y,z) in block to the same
// representative position every block sharing that boundary would
// independently compute, so node identity across a block boundary needs
// no communication: it falls straight out of the topology's static
// orientation maps. Unlike crossFaceRequest/crossEdgeRequests, this
// operates on exact node coordinates in [0,H] (a node can legitimately
// sit at the block's far edge H, which no octant anchor -- always <H --
// ever reaches), so the boundary test and mirrored coordinate use H
// directly rather than H-h.
func (f *Forest) canonicalNodePos(block int32, x, y, z uint32) nodePos {
	self := nodePos{block, x, y, z}
	coords := [3]uint32{x, y, z}

	var onAxis []int
	for axis, v := range coords {
		if v == 0 || v == H {
			onAxis = append(onAxis, axis)
		}
	}

	var candidates []nodePos
	switch len(onAxis) {
	case 0:
		return self
	case 1:
		candidates = f.faceNodeCandidates(block, coords, onAxis[0])
	case 2:
		candidates = f.edgeNodeCandidates(block, coords, onAxis)
	default:
		candidates = f.cornerNodeCandidates(block, coords)
	}

	best := self
	for _, c := range candidates {
		if nodePosLess(c, best) {
			best = c
		}
	}
	return best
}

func nodePosLess(a, b nodePos) bool {
	if a.block != b.block {
		return a.block < b.block
	}
	if a.x != b.x {
		return a.x < b.x
	}
	if a.y != b.y {
		return a.y < b.y
	}
	return a.z < b.z
}

func (f *Forest) faceNodeCandidates(block int32, coords [3]uint32, axis int) []nodePos {
	face := 2 * axis
	if coords[axis] == H {
		face++
	}
	adj, ok := f.topo.FaceNeighbor(block, face)
	if !ok {
		return nil
	}
	axes := faceUVAxes[face]
	u2, v2 := applyFaceSymmetryCoord(adj.Orientation, coords[axes[0]], coords[axes[1]], H)

	mapped := coords
	mapped[axis] = H - coords[axis]
	mapped[axes[0]] = u2
	mapped[axes[1]] = v2
	return []nodePos{{adj.Block, mapped[0], mapped[1], mapped[2]}}
}

func (f *Forest) edgeNodeCandidates(block int32, coords [3]uint32, onAxis []int) []nodePos {
	free := 3 - onAxis[0] - onAxis[1]
	bit := func(a int) int {
		if coords[a] == H {
			return 1
		}
		return 0
	}
	axes := faceUVAxes[free*2]
	b0, b1 := bit(axes[0]), bit(axes[1])
	e := free*4 + b0 + 2*b1

	neighbors := f.topo.EdgeNeighbors(block, e)
	out := make([]nodePos, 0, len(neighbors))
	for _, n := range neighbors {
		along := coords[free]
		if n.Orientation == 1 {
			along = H - along
		}
		nAxis := edgeAxis(n.Edge)
		nAxes := faceUVAxes[nAxis*2]
		nBit := n.Edge % 4
		v0, v1 := uint32(0), uint32(0)
		if nBit&1 == 1 {
			v0 = H
		}
		if (nBit>>1)&1 == 1 {
			v1 = H
		}
		mapped := [3]uint32{}
		mapped[nAxis] = along
		mapped[nAxes[0]] = v0
		mapped[nAxes[1]] = v1
		out = append(out, nodePos{n.Block, mapped[0], mapped[1], mapped[2]})
	}
	return out
}

func (f *Forest) cornerNodeCandidates(block int32, coords [3]uint32) []nodePos {
	c := 0
	for axis, v := range coords {
		if v == H {
			c |= 1 << uint(axis)
		}
	}
	neighbors := f.topo.CornerNeighbors(block, c)
	out := make([]nodePos, 0, len(neighbors))
	for _, n := range neighbors {
		mapped := [3]uint32{}
		for axis := 0; axis < 3; axis++ {
			if (n.Corner>>uint(axis))&1 == 1 {
				mapped[axis] = H
			}
		}
		out = append(out, nodePos{n.Block, mapped[0], mapped[1], mapped[2]})
	}
	return out
}
