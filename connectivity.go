package tmr

// NewBlockTopology derives a BlockTopology from a user-supplied
// block-node connectivity: blockNodeConn[b] lists the 8 global node
// indices of block b's corners, in the standard hexahedral ordering
// (z-then-y-then-x, i.e. corner index = xbit | ybit<<1 | zbit<<2).
//
// Shared faces, edges, and corners are discovered by matching node-id
// sets across blocks: two local faces sharing all 4 node ids are the
// same geometric face, and the relative listing order of those node ids
// determines the orientation code (see topology_orient.go). A face
// matched by more than two blocks is a malformed connectivity and
// returns an error; edges and corners may legitimately be shared by more
// than two blocks.
func NewBlockTopology(numNodes int, blockNodeConn [][8]int32) (*BlockTopology, error) {
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

	t := &BlockTopology{
		numNodes:  numNodes,
		nodes:     append([][8]int32(nil), blockNodeConn...),
		faceAdj:   make([]map[int]FaceAdjacency, len(blockNodeConn)),
		edgeAdj:   make([]map[int][]EdgeAdjacency, len(blockNodeConn)),
		cornerAdj: make([]map[int][]CornerAdjacency, len(blockNodeConn)),
	}
	for b := range blockNodeConn {
		t.faceAdj[b] = make(map[int]FaceAdjacency)
		t.edgeAdj[b] = make(map[int][]EdgeAdjacency)
		t.cornerAdj[b] = make(map[int][]CornerAdjacency)
	}

	if err := t.buildFaces(); err != nil {
		return nil, err
	}
	t.buildEdges()
	t.buildCorners()
	return t, nil
}

type faceOccurrence struct {
	block int32
	face  int
	ids   [4]int32
}

func (t *BlockTopology) buildFaces() error {
	byKey := make(map[[4]int32][]faceOccurrence)
	for b := range t.nodes {
		for f, corners := range faceCorners {
			var ids [4]int32
			for i, c := range corners {
				ids[i] = t.nodes[b][c]
			}
			key := sorted4(ids)
			byKey[key] = append(byKey[key], faceOccurrence{int32(b), f, ids})
		}
	}
	for key, occ := range byKey {
		switch len(occ) {
		case 1:
			// boundary face, no neighbor
		case 2:
			o01, ok := faceOrientation(occ[0].ids, occ[1].ids)
			if !ok {
				return wrapf(ErrInvalidConn, "face %v shared by blocks %d,%d has no matching orientation", key, occ[0].block, occ[1].block)
			}
			o10, _ := faceOrientation(occ[1].ids, occ[0].ids)
			t.faceAdj[occ[0].block][occ[0].face] = FaceAdjacency{Block: occ[1].block, Face: occ[1].face, Orientation: o01}
			t.faceAdj[occ[1].block][occ[1].face] = FaceAdjacency{Block: occ[0].block, Face: occ[0].face, Orientation: o10}
		default:
			return wrapf(ErrInvalidConn, "face %v shared by %d blocks, want at most 2", key, len(occ))
		}
	}
	return nil
}

type edgeOccurrence struct {
	block int32
	edge  int
	ids   [2]int32
}

func (t *BlockTopology) buildEdges() {
	byKey := make(map[[2]int32][]edgeOccurrence)
	for b := range t.nodes {
		for e, corners := range edgeCorners {
			ids := [2]int32{t.nodes[b][corners[0]], t.nodes[b][corners[1]]}
			key := sorted2(ids)
			byKey[key] = append(byKey[key], edgeOccurrence{int32(b), e, ids})
		}
	}
	for _, occ := range byKey {
		if len(occ) < 2 {
			continue
		}
		for i, a := range occ {
			for j, b := range occ {
				if i == j {
					continue
				}
				o, ok := edgeOrientation(a.ids, b.ids)
				if !ok {
					continue
				}
				t.edgeAdj[a.block][a.edge] = append(t.edgeAdj[a.block][a.edge], EdgeAdjacency{Block: b.block, Edge: b.edge, Orientation: o})
			}
		}
	}
}

type cornerOccurrence struct {
	block  int32
	corner int
}

func (t *BlockTopology) buildCorners() {
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
				t.cornerAdj[a.block][a.corner] = append(t.cornerAdj[a.block][a.corner], CornerAdjacency{Block: b.block, Corner: b.corner})
			}
		}
	}
}

// AssignBlocksRoundRobin assigns each of numBlocks blocks to a rank in
// [0,numRanks) by simple round robin. It stands in for an external
// SCOTCH/METIS-style graph partitioner: swap this function out for a
// real partitioner call (weighted by block leaf counts) without
// touching anything else in the forest. Round-robin does not preserve the
// SFC-contiguous-per-rank ownership that Repartition assumes as its
// starting invariant; use AssignBlocksContiguous for a forest that will
// call Repartition.
func AssignBlocksRoundRobin(numBlocks, numRanks int) []int {
	if numRanks <= 0 {
		abort(0, "AssignBlocksRoundRobin: numRanks must be positive")
	}
	owner := make([]int, numBlocks)
	for b := range numBlocks {
		owner[b] = b % numRanks
	}
	return owner
}

// AssignBlocksContiguous assigns contiguous runs of block ids to each
// rank in increasing order, splitting as evenly as possible. Unlike
// AssignBlocksRoundRobin, this preserves the invariant Repartition
// relies on: rank r's leaves all precede rank r+1's in global
// (block, Morton) order.
func AssignBlocksContiguous(numBlocks, numRanks int) []int {
	if numRanks <= 0 {
		abort(0, "AssignBlocksContiguous: numRanks must be positive")
	}
	owner := make([]int, numBlocks)
	base, rem := numBlocks/numRanks, numBlocks%numRanks
	b := 0
	for r := range numRanks {
		count := base
		if r < rem {
			count++
		}
		for range count {
			if b >= numBlocks {
				break
			}
			owner[b] = r
			b++
		}
	}
	return owner
}
