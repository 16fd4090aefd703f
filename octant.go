package tmr

import (
	"cmp"

	"github.com/gjkennedy/tmr/internal/morton"
)

// Octant is a coordinate + level + block-id + tag value (plain fields),
// identifying a cubic region of one block of the forest's topology. Its
// zero value is the level-0 octant of block 0 and is never itself a
// useful leaf outside of a freshly created single-block tree.
//
// Coordinates are multiples of the octant's side length, each in
// [0, 1<<MaxLevel). The 2D analogue is Quadrant, in quadrant.go.
type Octant struct {
	X, Y, Z uint32
	Level   uint8
	Block   int32
	Tag     int64
}

// SideLength returns h = 1<<(MaxLevel-Level), the octant's edge length in
// the block's integer coordinate space.
func (o Octant) SideLength() uint32 {
	return 1 << (MaxLevel - uint(o.Level))
}

// InBounds reports whether every coordinate lies in [0, H). FaceNeighbor,
// EdgeNeighbor, and CornerNeighbor rely on unsigned wraparound to signal
// out-of-range results, so callers must check InBounds before trusting a
// neighbor query's coordinates.
func (o Octant) InBounds() bool {
	return o.X < H && o.Y < H && o.Z < H
}

// Parent returns the octant at Level-1 containing o.
func (o Octant) Parent() (Octant, error) {
	if o.Level == 0 {
		return Octant{}, ErrNoParent
	}
	ph := o.SideLength() * 2
	return Octant{
		X:     o.X &^ (ph - 1),
		Y:     o.Y &^ (ph - 1),
		Z:     o.Z &^ (ph - 1),
		Level: o.Level - 1,
		Block: o.Block,
	}, nil
}

// Child returns the k-th child (k in [0,8)) of o, offset by
// ((k&1), (k>>1)&1, (k>>2)&1) * h/2.
func (o Octant) Child(k int) Octant {
	ch := o.SideLength() / 2
	return Octant{
		X:     o.X + uint32(k&1)*ch,
		Y:     o.Y + uint32((k>>1)&1)*ch,
		Z:     o.Z + uint32((k>>2)&1)*ch,
		Level: o.Level + 1,
		Block: o.Block,
	}
}

// Sibling returns the sibling with local index k within o's parent. o
// itself may be any of the 8 siblings, not necessarily index 0.
func (o Octant) Sibling(k int) (Octant, error) {
	p, err := o.Parent()
	if err != nil {
		return Octant{}, err
	}
	return p.Child(k), nil
}

// ChildID returns o's local index (0..7) within its parent.
func (o Octant) ChildID() int {
	h := o.SideLength()
	var id int
	if o.X&h != 0 {
		id |= 1
	}
	if o.Y&h != 0 {
		id |= 2
	}
	if o.Z&h != 0 {
		id |= 4
	}
	return id
}

func addSigned(x, h uint32, positive bool) uint32 {
	if positive {
		return x + h
	}
	return x - h
}

// faceOffsets[f] gives (axis, positive) for face f in [0,6): 0=-x,1=+x,
// 2=-y,3=+y,4=-z,5=+z.
var faceOffsets = [6]struct {
	axis     int
	positive bool
}{
	{0, false}, {0, true},
	{1, false}, {1, true},
	{2, false}, {2, true},
}

// FaceNeighbor returns the same-level octant across face f (f in [0,6)).
// The result may have InBounds() == false, in which case the
// block-topology graph must be consulted to find the neighboring block.
func (o Octant) FaceNeighbor(f int) Octant {
	if f < 0 || f >= 6 {
		abort(0, "FaceNeighbor: face index out of range")
	}
	h := o.SideLength()
	n := o
	fo := faceOffsets[f]
	switch fo.axis {
	case 0:
		n.X = addSigned(o.X, h, fo.positive)
	case 1:
		n.Y = addSigned(o.Y, h, fo.positive)
	case 2:
		n.Z = addSigned(o.Z, h, fo.positive)
	}
	return n
}

// EdgeNeighbor returns the same-level octant across edge e (e in [0,12)).
// Edges 0-3 run parallel to x (offset in y,z); 4-7 parallel to y (offset
// in x,z); 8-11 parallel to z (offset in x,y). Within each group of 4,
// bit 0 of (e%4) selects the sign of the first offset axis and bit 1 the
// sign of the second.
func (o Octant) EdgeNeighbor(e int) Octant {
	if e < 0 || e >= 12 {
		abort(0, "EdgeNeighbor: edge index out of range")
	}
	h := o.SideLength()
	group := e / 4
	bits := e % 4
	pos1 := bits&1 != 0
	pos2 := (bits>>1)&1 != 0

	n := o
	switch group {
	case 0: // parallel to x, offset y then z
		n.Y = addSigned(o.Y, h, pos1)
		n.Z = addSigned(o.Z, h, pos2)
	case 1: // parallel to y, offset x then z
		n.X = addSigned(o.X, h, pos1)
		n.Z = addSigned(o.Z, h, pos2)
	case 2: // parallel to z, offset x then y
		n.X = addSigned(o.X, h, pos1)
		n.Y = addSigned(o.Y, h, pos2)
	}
	return n
}

// CornerNeighbor returns the same-level octant diagonally across corner c
// (c in [0,8)), offset by (2*(c&1)-1, 2*((c>>1)&1)-1, 2*((c>>2)&1)-1) * h
// in each axis.
func (o Octant) CornerNeighbor(c int) Octant {
	if c < 0 || c >= 8 {
		abort(0, "CornerNeighbor: corner index out of range")
	}
	h := o.SideLength()
	n := o
	n.X = addSigned(o.X, h, c&1 != 0)
	n.Y = addSigned(o.Y, h, (c>>1)&1 != 0)
	n.Z = addSigned(o.Z, h, (c>>2)&1 != 0)
	return n
}

// Contains reports whether a is an ancestor of, or equal to, b (same
// block, b's cube nested inside or equal to a's).
func (a Octant) Contains(b Octant) bool {
	if a.Block != b.Block || a.Level > b.Level {
		return false
	}
	h := a.SideLength()
	return b.X >= a.X && b.X < a.X+h &&
		b.Y >= a.Y && b.Y < a.Y+h &&
		b.Z >= a.Z && b.Z < a.Z+h
}

// EqualAsNode reports whether a and b identify the same node location:
// same block and coordinates, level ignored.
func (a Octant) EqualAsNode(b Octant) bool {
	return a.Block == b.Block && a.X == b.X && a.Y == b.Y && a.Z == b.Z
}

// MortonCode returns o's Morton (Z-order) interleave of (X,Y,Z), the
// space-filling-curve key Compare orders by within a block.
func (o Octant) MortonCode() morton.Code {
	return morton.Encode3(o.X, o.Y, o.Z, mortonBits)
}

// Compare orders octants by (Block, Morton(X,Y,Z), Level), matching
// spec's ordering requirement: siblings are contiguous and a descendant
// sorts immediately after the ancestor that covers it.
func Compare(a, b Octant) int {
	if c := cmp.Compare(a.Block, b.Block); c != 0 {
		return c
	}
	if morton.Less3(a.X, a.Y, a.Z, b.X, b.Y, b.Z, mortonBits) {
		return -1
	}
	if morton.Less3(b.X, b.Y, b.Z, a.X, a.Y, a.Z, mortonBits) {
		return 1
	}
	return cmp.Compare(a.Level, b.Level)
}
