package tmr

import (
	"cmp"

	"github.com/gjkennedy/tmr/internal/morton"
)

// Quadrant is the 2D analogue of Octant, identical with z omitted: a
// coordinate + level + block-id + tag value (plain fields) identifying a
// square region of one block of a quad-block
// topology. It is written as its own type rather than Octant with Z
// pinned to zero so a Quadrant can never silently acquire a nonzero Z
// and so 2D-only callers never carry an unused field.
type Quadrant struct {
	X, Y  uint32
	Level uint8
	Block int32
	Tag   int64
}

// SideLength returns h = 1<<(MaxLevel-Level).
func (q Quadrant) SideLength() uint32 {
	return 1 << (MaxLevel - uint(q.Level))
}

// InBounds reports whether both coordinates lie in [0, H).
func (q Quadrant) InBounds() bool {
	return q.X < H && q.Y < H
}

// Parent returns the quadrant at Level-1 containing q.
func (q Quadrant) Parent() (Quadrant, error) {
	if q.Level == 0 {
		return Quadrant{}, ErrNoParent
	}
	ph := q.SideLength() * 2
	return Quadrant{
		X:     q.X &^ (ph - 1),
		Y:     q.Y &^ (ph - 1),
		Level: q.Level - 1,
		Block: q.Block,
	}, nil
}

// Child returns the k-th child (k in [0,4)) of q, offset by
// ((k&1), (k>>1)&1) * h/2.
func (q Quadrant) Child(k int) Quadrant {
	ch := q.SideLength() / 2
	return Quadrant{
		X:     q.X + uint32(k&1)*ch,
		Y:     q.Y + uint32((k>>1)&1)*ch,
		Level: q.Level + 1,
		Block: q.Block,
	}
}

// Sibling returns the sibling with local index k within q's parent.
func (q Quadrant) Sibling(k int) (Quadrant, error) {
	p, err := q.Parent()
	if err != nil {
		return Quadrant{}, err
	}
	return p.Child(k), nil
}

// ChildID returns q's local index (0..3) within its parent.
func (q Quadrant) ChildID() int {
	h := q.SideLength()
	var id int
	if q.X&h != 0 {
		id |= 1
	}
	if q.Y&h != 0 {
		id |= 2
	}
	return id
}

// quadFaceOffsets[f] gives (axis, positive) for face f in [0,4): 0=-x,
// 1=+x, 2=-y, 3=+y.
var quadFaceOffsets = [4]struct {
	axis     int
	positive bool
}{
	{0, false}, {0, true},
	{1, false}, {1, true},
}

// FaceNeighbor returns the same-level quadrant across face f (f in
// [0,4)). The result may have InBounds() == false, in which case the
// block-topology graph must be consulted.
func (q Quadrant) FaceNeighbor(f int) Quadrant {
	if f < 0 || f >= 4 {
		abort(0, "Quadrant.FaceNeighbor: face index out of range")
	}
	h := q.SideLength()
	n := q
	fo := quadFaceOffsets[f]
	switch fo.axis {
	case 0:
		n.X = addSigned(q.X, h, fo.positive)
	case 1:
		n.Y = addSigned(q.Y, h, fo.positive)
	}
	return n
}

// CornerNeighbor returns the same-level quadrant diagonally across
// corner c (c in [0,4)), offset by (2*(c&1)-1, 2*((c>>1)&1)-1) * h.
func (q Quadrant) CornerNeighbor(c int) Quadrant {
	if c < 0 || c >= 4 {
		abort(0, "Quadrant.CornerNeighbor: corner index out of range")
	}
	h := q.SideLength()
	n := q
	n.X = addSigned(q.X, h, c&1 != 0)
	n.Y = addSigned(q.Y, h, (c>>1)&1 != 0)
	return n
}

// Contains reports whether q is an ancestor of, or equal to, b.
func (q Quadrant) Contains(b Quadrant) bool {
	if q.Block != b.Block || q.Level > b.Level {
		return false
	}
	h := q.SideLength()
	return b.X >= q.X && b.X < q.X+h && b.Y >= q.Y && b.Y < q.Y+h
}

// EqualAsNode reports whether q and b identify the same node position:
// same block and coordinates, level ignored.
func (q Quadrant) EqualAsNode(b Quadrant) bool {
	return q.Block == b.Block && q.X == b.X && q.Y == b.Y
}

// MortonCode returns q's Morton (Z-order) interleave of (X,Y), the
// space-filling-curve key CompareQuad orders by within a block.
func (q Quadrant) MortonCode() morton.Code {
	return morton.Encode2(q.X, q.Y, mortonBits)
}

// CompareQuad orders quadrants by (Block, Morton(X,Y), Level), the 2D
// analogue of Compare.
func CompareQuad(a, b Quadrant) int {
	if c := cmp.Compare(a.Block, b.Block); c != 0 {
		return c
	}
	if morton.Less2(a.X, a.Y, b.X, b.Y, mortonBits) {
		return -1
	}
	if morton.Less2(b.X, b.Y, a.X, a.Y, mortonBits) {
		return 1
	}
	return cmp.Compare(a.Level, b.Level)
}
