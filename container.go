package tmr

import (
	"iter"
	"slices"

	"github.com/gjkennedy/tmr/internal/bitset"
)

// nodeKey identifies an octant's node position: block and coordinates,
// level ignored. Two octants that are EqualAsNode share a nodeKey.
type nodeKey struct {
	block   int32
	x, y, z uint32
}

func nodeKeyOf(o Octant) nodeKey {
	return nodeKey{o.Block, o.X, o.Y, o.Z}
}

// levelKey identifies an octant exactly: block, coordinates, and level.
type levelKey struct {
	block   int32
	x, y, z uint32
	level   uint8
}

func levelKeyOf(o Octant) levelKey {
	return levelKey{o.Block, o.X, o.Y, o.Z, o.Level}
}

// asNodeCompare orders octants the same way Compare does except it
// ignores Level. Because Compare already breaks block+coordinate ties on
// Level, a slice sorted by Compare is also non-decreasing under
// asNodeCompare, so binary search with this comparator finds the
// contiguous run of every level sharing a node position.
func asNodeCompare(a, b Octant) int {
	return Compare(Octant{X: a.X, Y: a.Y, Z: a.Z, Block: a.Block}, Octant{X: b.X, Y: b.Y, Z: b.Z, Block: b.Block})
}

// OctantSet is a sorted, uniquified dynamic array of octants with an
// open-addressed (Go map) hash index for O(1) existence checks by
// coordinate+block. The octant coordinate keyspace is far too large for
// a fixed-width occupancy bitset, so membership is tracked with a map
// and the sorted slice serves range and order queries.
type OctantSet struct {
	items     []Octant
	byLevel   map[levelKey]struct{}
	nodeCount map[nodeKey]int
}

// NewOctantSet returns an empty set.
func NewOctantSet() *OctantSet {
	return &OctantSet{
		byLevel:   make(map[levelKey]struct{}),
		nodeCount: make(map[nodeKey]int),
	}
}

// Size returns the number of octants stored.
func (s *OctantSet) Size() int {
	return len(s.items)
}

// Insert adds o if no octant with the same block, coordinates, and level
// is already present. It reports whether o was newly inserted.
func (s *OctantSet) Insert(o Octant) bool {
	lk := levelKeyOf(o)
	if _, ok := s.byLevel[lk]; ok {
		return false
	}
	pos, _ := slices.BinarySearchFunc(s.items, o, Compare)
	s.items = slices.Insert(s.items, pos, o)
	s.byLevel[lk] = struct{}{}
	s.nodeCount[nodeKeyOf(o)]++
	return true
}

// Remove deletes the exact (block, coordinates, level) match of o, if
// present. It reports whether anything was removed.
func (s *OctantSet) Remove(o Octant) bool {
	lk := levelKeyOf(o)
	if _, ok := s.byLevel[lk]; !ok {
		return false
	}
	pos, found := slices.BinarySearchFunc(s.items, o, Compare)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, pos, pos+1)
	delete(s.byLevel, lk)
	nk := nodeKeyOf(o)
	if s.nodeCount[nk]--; s.nodeCount[nk] <= 0 {
		delete(s.nodeCount, nk)
	}
	return true
}

// Contains looks up o. If asNode is false it requires an exact level
// match; if true, level is ignored and any octant occupying the same
// node position is returned.
func (s *OctantSet) Contains(o Octant, asNode bool) (Octant, bool) {
	if !asNode {
		pos, found := slices.BinarySearchFunc(s.items, o, Compare)
		if !found {
			return Octant{}, false
		}
		return s.items[pos], true
	}
	if s.nodeCount[nodeKeyOf(o)] == 0 {
		return Octant{}, false
	}
	pos, found := slices.BinarySearchFunc(s.items, o, asNodeCompare)
	if !found {
		return Octant{}, false
	}
	return s.items[pos], true
}

// Merge inserts every octant of other into s, deduplicating exact
// (block, coordinates, level) matches. The result is the union of the
// two sorted lists.
func (s *OctantSet) Merge(other *OctantSet) {
	for _, o := range other.items {
		s.Insert(o)
	}
}

// Coarsen collapses any group of 8 siblings present at the same level
// into their parent, repeating until no group of 8 remains (a single
// round can expose a new complete group one level up). It returns the
// number of parent octants created.
func (s *OctantSet) Coarsen() int {
	created := 0
	for {
		type pkey struct {
			block   int32
			x, y, z uint32
			level   uint8
		}
		groups := make(map[pkey][]Octant)
		for _, o := range s.items {
			if o.Level == 0 {
				continue
			}
			p, err := o.Parent()
			if err != nil {
				continue
			}
			k := pkey{p.Block, p.X, p.Y, p.Z, p.Level}
			groups[k] = append(groups[k], o)
		}

		progress := false
		for k, children := range groups {
			if len(children) != 8 {
				continue
			}
			var occ bitset.BitSet
			for _, c := range children {
				occ.Set(uint(c.ChildID()))
			}
			if occ.Count() != 8 {
				continue
			}
			for _, c := range children {
				s.Remove(c)
			}
			s.Insert(Octant{Block: k.block, X: k.x, Y: k.y, Z: k.z, Level: k.level})
			created++
			progress = true
		}
		if !progress {
			return created
		}
	}
}

// CoveringLeaf returns the octant that currently covers the node
// position (block,x,y,z): the one level, among the ancestor chain from
// level 0 down to maxLevel, present in the set as a leaf. The
// partition-by-leaves invariant guarantees at most one level of that
// chain matches exactly, so the walk stops at the first hit.
func (s *OctantSet) CoveringLeaf(block int32, x, y, z uint32, maxLevel int) (Octant, bool) {
	for lvl := maxLevel; lvl >= 0; lvl-- {
		h := uint32(1) << (uint(MaxLevel) - uint(lvl))
		mask := ^(h - 1)
		k := levelKey{block, x & mask, y & mask, z & mask, uint8(lvl)}
		if _, ok := s.byLevel[k]; ok {
			return Octant{Block: block, X: x & mask, Y: y & mask, Z: z & mask, Level: uint8(lvl)}, true
		}
	}
	return Octant{}, false
}

// hasDescendant reports whether the set holds any strict descendant of
// o. Descendants occupy a contiguous Morton range immediately after o in
// the sorted order, so one binary search suffices.
func (s *OctantSet) hasDescendant(o Octant) bool {
	pos, found := slices.BinarySearchFunc(s.items, o, Compare)
	if found {
		pos++
	}
	return pos < len(s.items) && o.Contains(s.items[pos])
}

// Covers reports whether the leaves in the set exactly tile o's cube:
// either o itself is stored, or all 8 child cubes are recursively
// covered. Child coverage is tracked in an occupancy bitset.
func (s *OctantSet) Covers(o Octant) bool {
	if _, ok := s.Contains(o, false); ok {
		return true
	}
	if !s.hasDescendant(o) {
		return false
	}
	var occ bitset.BitSet
	for k := range 8 {
		if s.Covers(o.Child(k)) {
			occ.Set(uint(k))
		}
	}
	return occ.Count() == 8
}

// All iterates over the stored octants in sorted (block, Morton, level)
// order.
func (s *OctantSet) All() iter.Seq[Octant] {
	return func(yield func(Octant) bool) {
		for _, o := range s.items {
			if !yield(o) {
				return
			}
		}
	}
}

// Slice returns a copy of the stored octants in sorted order.
func (s *OctantSet) Slice() []Octant {
	return slices.Clone(s.items)
}

// Clone returns a deep copy of s.
func (s *OctantSet) Clone() *OctantSet {
	c := NewOctantSet()
	c.items = slices.Clone(s.items)
	for k := range s.byLevel {
		c.byLevel[k] = struct{}{}
	}
	for k, v := range s.nodeCount {
		c.nodeCount[k] = v
	}
	return c
}
