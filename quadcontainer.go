package tmr

import (
	"iter"
	"slices"

	"github.com/gjkennedy/tmr/internal/bitset"
)

type quadNodeKey struct {
	block int32
	x, y  uint32
}

func quadNodeKeyOf(q Quadrant) quadNodeKey {
	return quadNodeKey{q.Block, q.X, q.Y}
}

type quadLevelKey struct {
	block int32
	x, y  uint32
	level uint8
}

func quadLevelKeyOf(q Quadrant) quadLevelKey {
	return quadLevelKey{q.Block, q.X, q.Y, q.Level}
}

func quadAsNodeCompare(a, b Quadrant) int {
	return CompareQuad(Quadrant{X: a.X, Y: a.Y, Block: a.Block}, Quadrant{X: b.X, Y: b.Y, Block: b.Block})
}

// QuadSet is the 2D analogue of OctantSet: a sorted, uniquified dynamic
// array of quadrants with a hash index for O(1) membership checks,
// written as its own type (not OctantSet[Quadrant]) per the decision to
// keep the quadtree path a separate, thinner implementation rather than
// a shared generic engine with the octree path.
type QuadSet struct {
	items     []Quadrant
	byLevel   map[quadLevelKey]struct{}
	nodeCount map[quadNodeKey]int
}

// NewQuadSet returns an empty set.
func NewQuadSet() *QuadSet {
	return &QuadSet{
		byLevel:   make(map[quadLevelKey]struct{}),
		nodeCount: make(map[quadNodeKey]int),
	}
}

// Size returns the number of quadrants stored.
func (s *QuadSet) Size() int {
	return len(s.items)
}

// Insert adds q if no quadrant with the same block, coordinates, and
// level is already present. It reports whether q was newly inserted.
func (s *QuadSet) Insert(q Quadrant) bool {
	lk := quadLevelKeyOf(q)
	if _, ok := s.byLevel[lk]; ok {
		return false
	}
	pos, _ := slices.BinarySearchFunc(s.items, q, CompareQuad)
	s.items = slices.Insert(s.items, pos, q)
	s.byLevel[lk] = struct{}{}
	s.nodeCount[quadNodeKeyOf(q)]++
	return true
}

// Remove deletes the exact (block, coordinates, level) match of q, if
// present.
func (s *QuadSet) Remove(q Quadrant) bool {
	lk := quadLevelKeyOf(q)
	if _, ok := s.byLevel[lk]; !ok {
		return false
	}
	pos, found := slices.BinarySearchFunc(s.items, q, CompareQuad)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, pos, pos+1)
	delete(s.byLevel, lk)
	nk := quadNodeKeyOf(q)
	if s.nodeCount[nk]--; s.nodeCount[nk] <= 0 {
		delete(s.nodeCount, nk)
	}
	return true
}

// Contains looks up q; if asNode is true level is ignored.
func (s *QuadSet) Contains(q Quadrant, asNode bool) (Quadrant, bool) {
	if !asNode {
		pos, found := slices.BinarySearchFunc(s.items, q, CompareQuad)
		if !found {
			return Quadrant{}, false
		}
		return s.items[pos], true
	}
	if s.nodeCount[quadNodeKeyOf(q)] == 0 {
		return Quadrant{}, false
	}
	pos, found := slices.BinarySearchFunc(s.items, q, quadAsNodeCompare)
	if !found {
		return Quadrant{}, false
	}
	return s.items[pos], true
}

// Merge inserts every quadrant of other into s.
func (s *QuadSet) Merge(other *QuadSet) {
	for _, q := range other.items {
		s.Insert(q)
	}
}

// Coarsen collapses any group of 4 siblings present at the same level
// into their parent, repeating until no group of 4 remains. It returns
// the number of parent quadrants created.
func (s *QuadSet) Coarsen() int {
	created := 0
	for {
		type pkey struct {
			block int32
			x, y  uint32
			level uint8
		}
		groups := make(map[pkey][]Quadrant)
		for _, q := range s.items {
			if q.Level == 0 {
				continue
			}
			p, err := q.Parent()
			if err != nil {
				continue
			}
			k := pkey{p.Block, p.X, p.Y, p.Level}
			groups[k] = append(groups[k], q)
		}

		progress := false
		for k, children := range groups {
			if len(children) != 4 {
				continue
			}
			var occ bitset.BitSet
			for _, c := range children {
				occ.Set(uint(c.ChildID()))
			}
			if occ.Count() != 4 {
				continue
			}
			for _, c := range children {
				s.Remove(c)
			}
			s.Insert(Quadrant{Block: k.block, X: k.x, Y: k.y, Level: k.level})
			created++
			progress = true
		}
		if !progress {
			return created
		}
	}
}

// CoveringLeaf returns the quadrant currently covering node position
// (block,x,y): the one level, among the ancestor chain, stored as a leaf.
func (s *QuadSet) CoveringLeaf(block int32, x, y uint32, maxLevel int) (Quadrant, bool) {
	for lvl := maxLevel; lvl >= 0; lvl-- {
		h := uint32(1) << (uint(MaxLevel) - uint(lvl))
		mask := ^(h - 1)
		k := quadLevelKey{block, x & mask, y & mask, uint8(lvl)}
		if _, ok := s.byLevel[k]; ok {
			return Quadrant{Block: block, X: x & mask, Y: y & mask, Level: uint8(lvl)}, true
		}
	}
	return Quadrant{}, false
}

// hasDescendant reports whether the set holds any strict descendant of
// q; descendants occupy a contiguous Morton range immediately after q.
func (s *QuadSet) hasDescendant(q Quadrant) bool {
	pos, found := slices.BinarySearchFunc(s.items, q, CompareQuad)
	if found {
		pos++
	}
	return pos < len(s.items) && q.Contains(s.items[pos])
}

// Covers reports whether the leaves in the set exactly tile q's square:
// either q itself is stored, or all 4 child squares are recursively
// covered.
func (s *QuadSet) Covers(q Quadrant) bool {
	if _, ok := s.Contains(q, false); ok {
		return true
	}
	if !s.hasDescendant(q) {
		return false
	}
	var occ bitset.BitSet
	for k := range 4 {
		if s.Covers(q.Child(k)) {
			occ.Set(uint(k))
		}
	}
	return occ.Count() == 4
}

// All iterates over the stored quadrants in sorted order.
func (s *QuadSet) All() iter.Seq[Quadrant] {
	return func(yield func(Quadrant) bool) {
		for _, q := range s.items {
			if !yield(q) {
				return
			}
		}
	}
}

// Slice returns a copy of the stored quadrants in sorted order.
func (s *QuadSet) Slice() []Quadrant {
	return slices.Clone(s.items)
}

// Clone returns a deep copy of s.
func (s *QuadSet) Clone() *QuadSet {
	c := NewQuadSet()
	c.items = slices.Clone(s.items)
	for k := range s.byLevel {
		c.byLevel[k] = struct{}{}
	}
	for k, v := range s.nodeCount {
		c.nodeCount[k] = v
	}
	return c
}

// QuadQueue is a plain FIFO worklist of quadrants, the 2D analogue of
// OctantQueue, used by Balance's local-propagation step.
type QuadQueue struct {
	items []Quadrant
	head  int
}

// NewQuadQueue returns an empty queue.
func NewQuadQueue() *QuadQueue {
	return &QuadQueue{}
}

// Push appends q to the back of the queue.
func (q *QuadQueue) Push(v Quadrant) {
	q.items = append(q.items, v)
}

// Pop removes and returns the front of the queue.
func (q *QuadQueue) Pop() (Quadrant, bool) {
	if q.head >= len(q.items) {
		return Quadrant{}, false
	}
	v := q.items[q.head]
	q.items[q.head] = Quadrant{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v, true
}

// Len returns the number of items still queued.
func (q *QuadQueue) Len() int {
	return len(q.items) - q.head
}

// Empty reports whether the queue has no items left.
func (q *QuadQueue) Empty() bool {
	return q.Len() == 0
}
