package tmr

// quadtopology.go is the 2D analogue of topology.go/connectivity.go: the
// mesh of connected quad blocks derived from a user-supplied block-node
// connectivity, 4 corners per block instead of 8. A quad's 4 faces are
// themselves edges of the square, so (unlike the 3D BlockTopology) there
// is no separate edge table: face adjacency already carries the 2-way
// same/opposite orientation a 1D boundary can have, via the same
// edgeOrientation helper topology_orient.go uses for hex edges.

// quadFaceCorners[f] lists the 2 local corner indices (0..3, using the
// (xbit|ybit<<1) convention matching Quadrant.Child) bounding local face
// f of a quad block.
var quadFaceCorners = [4][2]int{
	{0, 2}, // face 0: -x
	{1, 3}, // face 1: +x
	{0, 1}, // face 2: -y
	{2, 3}, // face 3: +y
}

// QuadFaceAdjacency describes the block on the other side of a shared
// quad-block face (edge), with orientation 0 (same direction) or 1
// (opposite), from edgeOrientation.
type QuadFaceAdjacency struct {
	Block       int32
	Face        int
	Orientation int
}

// QuadCornerAdjacency describes one other block sharing a quad-block
// corner. Corners carry no orientation.
type QuadCornerAdjacency struct {
	Block  int32
	Corner int
}

// QuadBlockTopology is the mesh of connected quad blocks, the 2D
// analogue of BlockTopology.
type QuadBlockTopology struct {
	numNodes int
	nodes    [][4]int32 // nodes[block][corner] = global node id

	faceAdj   []map[int]QuadFaceAdjacency
	cornerAdj []map[int][]QuadCornerAdjacency
}

// NewQuadBlockTopology derives a QuadBlockTopology from a user-supplied
// block-node connectivity: blockNodeConn[b] lists the 4 global node
// indices of block b's corners in (xbit|ybit<<1) order.
func NewQuadBlockTopology(numNodes int, blockNodeConn [][4]int32) (*QuadBlockTopology, error) {
	if numNodes <= 0 {
		return nil, wrapf(ErrInvalidConn, "numNodes must be positive, got %d", numNodes)
	}
	for b, conn := range blockNodeConn {
		for _, n := range conn {
			if n < 0 || int(n) >= numNodes {
				return nil, wrapf(ErrInvalidConn, "block %d references node %d outside [0,%d)", b, n, numNodes)
			}
		}
	}

	t := &QuadBlockTopology{
		numNodes:  numNodes,
		nodes:     append([][4]int32(nil), blockNodeConn...),
		faceAdj:   make([]map[int]QuadFaceAdjacency, len(blockNodeConn)),
		cornerAdj: make([]map[int][]QuadCornerAdjacency, len(blockNodeConn)),
	}
	for b := range blockNodeConn {
		t.faceAdj[b] = make(map[int]QuadFaceAdjacency)
		t.cornerAdj[b] = make(map[int][]QuadCornerAdjacency)
	}

	if err := t.buildFaces(); err != nil {
		return nil, err
	}
	t.buildCorners()
	return t, nil
}

type quadFaceOccurrence struct {
	block int32
	face  int
	ids   [2]int32
}

func (t *QuadBlockTopology) buildFaces() error {
	byKey := make(map[[2]int32][]quadFaceOccurrence)
	for b := range t.nodes {
		for f, corners := range quadFaceCorners {
			ids := [2]int32{t.nodes[b][corners[0]], t.nodes[b][corners[1]]}
			byKey[sorted2(ids)] = append(byKey[sorted2(ids)], quadFaceOccurrence{int32(b), f, ids})
		}
	}
	for key, occ := range byKey {
		switch len(occ) {
		case 1:
			// boundary face, no neighbor
		case 2:
			o01, ok := edgeOrientation(occ[0].ids, occ[1].ids)
			if !ok {
				return wrapf(ErrInvalidConn, "quad face %v shared by blocks %d,%d has no matching orientation", key, occ[0].block, occ[1].block)
			}
			o10, _ := edgeOrientation(occ[1].ids, occ[0].ids)
			t.faceAdj[occ[0].block][occ[0].face] = QuadFaceAdjacency{Block: occ[1].block, Face: occ[1].face, Orientation: o01}
			t.faceAdj[occ[1].block][occ[1].face] = QuadFaceAdjacency{Block: occ[0].block, Face: occ[0].face, Orientation: o10}
		default:
			return wrapf(ErrInvalidConn, "quad face %v shared by %d blocks, want at most 2", key, len(occ))
		}
	}
	return nil
}

func (t *QuadBlockTopology) buildCorners() {
	byNode := make(map[int32][]cornerOccurrence)
	for b := range t.nodes {
		for c, n := range t.nodes[b] {
			byNode[n] = append(byNode[n], cornerOccurrence{int32(b), c})
		}
	}
	for _, occ := range byNode {
		if len(occ) < 2 {
			continue
		}
		for i, a := range occ {
			for j, b := range occ {
				if i == j {
					continue
				}
				t.cornerAdj[a.block][a.corner] = append(t.cornerAdj[a.block][a.corner], QuadCornerAdjacency{Block: b.block, Corner: b.corner})
			}
		}
	}
}

// NumBlocks returns the number of blocks.
func (t *QuadBlockTopology) NumBlocks() int {
	return len(t.nodes)
}

// NumNodes returns the number of distinct global node indices.
func (t *QuadBlockTopology) NumNodes() int {
	return t.numNodes
}

// NodeID returns the global node index at local corner c (0..3) of
// block.
func (t *QuadBlockTopology) NodeID(block int32, c int) int32 {
	return t.nodes[block][c]
}

// FaceNeighbor returns the adjacent block across local face f of block,
// or ok=false if f is a domain boundary.
func (t *QuadBlockTopology) FaceNeighbor(block int32, f int) (QuadFaceAdjacency, bool) {
	adj, ok := t.faceAdj[block][f]
	return adj, ok
}

// CornerNeighbors returns every other block sharing local corner c of
// block.
func (t *QuadBlockTopology) CornerNeighbors(block int32, c int) []QuadCornerAdjacency {
	return t.cornerAdj[block][c]
}
