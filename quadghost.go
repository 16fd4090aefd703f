package tmr

// quadghost.go is the 2D analogue of ghost.go: mapping a quadrant's
// position across a quad-block boundary into a neighboring block's
// frame, and computing the canonical node position a candidate on a
// shared boundary maps to.

// quadTangentAxis[f] gives the single axis (0=X,1=Y) running tangentially
// along face f -- the 2D analogue of faceUVAxes, with only one
// tangential axis since a quad face is a 1D edge.
var quadTangentAxis = [4]int{1, 1, 0, 0}

func quadAxisValue(q Quadrant, axis int) uint32 {
	if axis == 0 {
		return q.X
	}
	return q.Y
}

func withQuadAxisValue(q Quadrant, axis int, v uint32) Quadrant {
	if axis == 0 {
		q.X = v
	} else {
		q.Y = v
	}
	return q
}

// crossQuadFaceRequest maps q's position across its out-of-bounds face
// face into the neighboring block's frame. ok is false at a true domain
// boundary.
func (f *QuadForest) crossQuadFaceRequest(q Quadrant, face int) (Quadrant, bool) {
	adj, ok := f.topo.FaceNeighbor(q.Block, face)
	if !ok {
		return Quadrant{}, false
	}
	h := q.SideLength()
	axis := quadTangentAxis[face]
	along := quadAxisValue(q, axis)
	extent := H - h
	pos := along
	if adj.Orientation == 1 {
		pos = extent - along
	}

	req := Quadrant{Block: adj.Block, Level: q.Level}
	req = withQuadAxisValue(req, axis, pos)

	normalAxis := quadFaceOffsets[face].axis
	normalCoord := H - h
	if quadFaceOffsets[face].positive {
		normalCoord = 0
	}
	return withQuadAxisValue(req, normalAxis, normalCoord), true
}

// crossQuadCornerRequests maps q's position across its out-of-bounds
// corner c into every other block sharing that corner.
func (f *QuadForest) crossQuadCornerRequests(q Quadrant, c int) []Quadrant {
	neighbors := f.topo.CornerNeighbors(q.Block, c)
	if len(neighbors) == 0 {
		return nil
	}
	h := q.SideLength()
	out := make([]Quadrant, 0, len(neighbors))
	for _, n := range neighbors {
		req := Quadrant{Block: n.Block, Level: q.Level}
		for axis := 0; axis < 2; axis++ {
			v := uint32(0)
			if (n.Corner>>uint(axis))&1 == 1 {
				v = H - h
			}
			req = withQuadAxisValue(req, axis, v)
		}
		out = append(out, req)
	}
	return out
}

// canonicalQuadNodePos is the 2D analogue of Forest.canonicalNodePos.
func (f *QuadForest) canonicalQuadNodePos(block int32, x, y uint32) quadNodePos {
	self := quadNodePos{block, x, y}
	coords := [2]uint32{x, y}

	var onAxis []int
	for axis, v := range coords {
		if v == 0 || v == H {
			onAxis = append(onAxis, axis)
		}
	}

	var candidates []quadNodePos
	switch len(onAxis) {
	case 0:
		return self
	case 1:
		candidates = f.quadFaceNodeCandidates(block, coords, onAxis[0])
	default:
		candidates = f.quadCornerNodeCandidates(block, coords)
	}

	best := self
	for _, c := range candidates {
		if quadNodePosLess(c, best) {
			best = c
		}
	}
	return best
}

func quadNodePosLess(a, b quadNodePos) bool {
	if a.block != b.block {
		return a.block < b.block
	}
	if a.x != b.x {
		return a.x < b.x
	}
	return a.y < b.y
}

func (f *QuadForest) quadFaceNodeCandidates(block int32, coords [2]uint32, axis int) []quadNodePos {
	face := 2 * axis
	if coords[axis] == H {
		face++
	}
	adj, ok := f.topo.FaceNeighbor(block, face)
	if !ok {
		return nil
	}
	tangent := quadTangentAxis[face]
	t2 := coords[tangent]
	if adj.Orientation == 1 {
		t2 = H - t2
	}

	mapped := coords
	mapped[axis] = H - coords[axis]
	mapped[tangent] = t2
	return []quadNodePos{{adj.Block, mapped[0], mapped[1]}}
}

func (f *QuadForest) quadCornerNodeCandidates(block int32, coords [2]uint32) []quadNodePos {
	c := 0
	for axis, v := range coords {
		if v == H {
			c |= 1 << uint(axis)
		}
	}
	neighbors := f.topo.CornerNeighbors(block, c)
	out := make([]quadNodePos, 0, len(neighbors))
	for _, n := range neighbors {
		mapped := [2]uint32{}
		for axis := 0; axis < 2; axis++ {
			if (n.Corner>>uint(axis))&1 == 1 {
				mapped[axis] = H
			}
		}
		out = append(out, quadNodePos{n.Block, mapped[0], mapped[1]})
	}
	return out
}
