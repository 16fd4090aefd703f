package tmr

import "sort"

// faceCorners[f] lists the 4 local corner indices (0..7, using the same
// (xbit|ybit<<1|zbit<<2) convention as Octant.Child) bounding local face
// f, listed in (u,v) = (0,0),(1,0),(0,1),(1,1) order so two blocks'
// corner-id lists can be compared directly by faceOrientation.
var faceCorners = [6][4]int{
	{0, 2, 4, 6}, // face 0: -x
	{1, 3, 5, 7}, // face 1: +x
	{0, 1, 4, 5}, // face 2: -y
	{2, 3, 6, 7}, // face 3: +y
	{0, 1, 2, 3}, // face 4: -z
	{4, 5, 6, 7}, // face 5: +z
}

// edgeCorners[e] lists the 2 local corner indices bounding local edge e,
// grouped exactly as Octant.EdgeNeighbor groups its 12 edges (0-3
// parallel to x, 4-7 parallel to y, 8-11 parallel to z).
var edgeCorners = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // parallel to x
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // parallel to y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // parallel to z
}

// FaceAdjacency describes the block on the other side of a shared face.
type FaceAdjacency struct {
	Block       int32
	Face        int
	Orientation int
}

// EdgeAdjacency describes one other block sharing an edge.
type EdgeAdjacency struct {
	Block       int32
	Edge        int
	Orientation int
}

// CornerAdjacency describes one other block sharing a corner.
type CornerAdjacency struct {
	Block  int32
	Corner int
}

// BlockTopology is the mesh of connected hex blocks derived from a
// user-supplied block-node connectivity: for every inter-block face,
// edge, or corner, it records which other block(s) share it and, for
// faces and edges, the orientation code mapping local parametric
// coordinates between the two sides.
//
// Unlike a face (shared by exactly two blocks in a conforming hex mesh),
// an edge or corner may be shared by more than two blocks where several
// blocks meet around it, so EdgeNeighbors and CornerNeighbors return a
// list rather than a single adjacency.
type BlockTopology struct {
	numNodes int
	nodes    [][8]int32 // nodes[block][corner] = global node id

	faceAdj   []map[int]FaceAdjacency    // faceAdj[block][face]
	edgeAdj   []map[int][]EdgeAdjacency  // edgeAdj[block][edge]
	cornerAdj []map[int][]CornerAdjacency // cornerAdj[block][corner]
}

// NumBlocks returns the number of blocks in the topology.
func (t *BlockTopology) NumBlocks() int {
	return len(t.nodes)
}

// NumNodes returns the number of distinct global node indices.
func (t *BlockTopology) NumNodes() int {
	return t.numNodes
}

// NodeID returns the global node index at local corner c (0..7) of
// block.
func (t *BlockTopology) NodeID(block int32, c int) int32 {
	return t.nodes[block][c]
}

// FaceNeighbor returns the adjacent block across local face f of block,
// or ok=false if f is a domain boundary.
func (t *BlockTopology) FaceNeighbor(block int32, f int) (FaceAdjacency, bool) {
	adj, ok := t.faceAdj[block][f]
	return adj, ok
}

// EdgeNeighbors returns every other block sharing local edge e of block.
func (t *BlockTopology) EdgeNeighbors(block int32, e int) []EdgeAdjacency {
	return t.edgeAdj[block][e]
}

// CornerNeighbors returns every other block sharing local corner c of
// block.
func (t *BlockTopology) CornerNeighbors(block int32, c int) []CornerAdjacency {
	return t.cornerAdj[block][c]
}

func sorted4(a [4]int32) [4]int32 {
	b := a
	sort.Slice(b[:], func(i, j int) bool { return b[i] < b[j] })
	return b
}

func sorted2(a [2]int32) [2]int32 {
	if a[0] > a[1] {
		a[0], a[1] = a[1], a[0]
	}
	return a
}
