// Package golden is a deliberately slow, obviously-correct reference
// model for the octant containers and neighbor searches the rest of the
// module implements with sorted slices, hash indices, and popcount-style
// bit tricks. Tests check the fast implementation's results against this
// package's linear-scan equivalents. A golden OctantSet is a plain
// []Octant searched with a for loop against this package's own neutral
// Octant value (never the root package's Octant type), so a bug in
// the fast containers cannot hide in the model that checks them.
package golden

import "slices"

// Octant is golden's own plain (block, coordinates, level) value,
// independent of the root package's Octant so this package stays a
// freestanding reference model rather than a thin wrapper around the
// thing it is meant to check.
type Octant struct {
	Block   int32
	X, Y, Z uint32
	Level   uint8
}

// SideLength returns 1<<(maxLevel-Level) in maxLevel's coordinate space.
func (o Octant) SideLength(maxLevel int) uint32 {
	return 1 << (uint(maxLevel) - uint(o.Level))
}

// Contains reports whether o is an ancestor of, or equal to, b.
func (o Octant) Contains(b Octant, maxLevel int) bool {
	if o.Block != b.Block || o.Level > b.Level {
		return false
	}
	h := o.SideLength(maxLevel)
	return b.X >= o.X && b.X < o.X+h &&
		b.Y >= o.Y && b.Y < o.Y+h &&
		b.Z >= o.Z && b.Z < o.Z+h
}

// EqualAsNode reports whether o and b share a block and coordinates,
// level ignored.
func (o Octant) EqualAsNode(b Octant) bool {
	return o.Block == b.Block && o.X == b.X && o.Y == b.Y && o.Z == b.Z
}

// OctantSet is a slice of octants searched and deduplicated with plain
// linear scans, never a hash or a sorted binary search.
type OctantSet []Octant

// Insert appends o unless an octant with the same block, coordinates,
// and level is already present. It reports whether o was newly added.
func (g *OctantSet) Insert(o Octant) bool {
	for _, e := range *g {
		if sameLevelSlot(e, o) {
			return false
		}
	}
	*g = append(*g, o)
	return true
}

// Remove deletes the exact (block, coordinates, level) match of o, if
// present, reporting whether anything was removed.
func (g *OctantSet) Remove(o Octant) bool {
	for i, e := range *g {
		if sameLevelSlot(e, o) {
			*g = slices.Delete(*g, i, i+1)
			return true
		}
	}
	return false
}

// Contains reports whether g holds an octant at o's (block, coordinates),
// exact level if asNode is false, any level if asNode is true.
func (g OctantSet) Contains(o Octant, asNode bool) (Octant, bool) {
	for _, e := range g {
		if !e.EqualAsNode(o) {
			continue
		}
		if asNode || e.Level == o.Level {
			return e, true
		}
	}
	return Octant{}, false
}

// CoveringLeaf linearly scans g for the octant covering (block,x,y,z):
// the ancestor, at any level up to maxLevel, whose cube contains the
// point and which is itself stored in g.
func (g OctantSet) CoveringLeaf(block int32, x, y, z uint32, maxLevel int) (Octant, bool) {
	point := Octant{Block: block, X: x, Y: y, Z: z, Level: uint8(maxLevel)}
	var best Octant
	found := false
	for _, e := range g {
		if e.Block != block || int(e.Level) > maxLevel {
			continue
		}
		if !e.Contains(point, maxLevel) {
			continue
		}
		if !found || e.Level > best.Level {
			best, found = e, true
		}
	}
	return best, found
}

// Partitions reports whether g's octants pairwise do not overlap: the
// partition invariant every leaf set must satisfy.
func (g OctantSet) Partitions(maxLevel int) bool {
	for i, a := range g {
		for j, b := range g {
			if i == j {
				continue
			}
			if a.Block != b.Block {
				continue
			}
			if a.Contains(b, maxLevel) || b.Contains(a, maxLevel) {
				return false
			}
		}
	}
	return true
}

// Balanced2to1 reports whether every pair of leaves in g that touch
// across a face differ in level by at most one, checked by the
// brute-force O(n^2) cube-adjacency test rather than any neighbor-index
// arithmetic.
func Balanced2to1(g OctantSet, maxLevel int) bool {
	for _, a := range g {
		for _, b := range g {
			if a.Block != b.Block {
				continue
			}
			if !facesTouch(a, b, maxLevel) {
				continue
			}
			d := int(a.Level) - int(b.Level)
			if d > 1 || d < -1 {
				return false
			}
		}
	}
	return true
}

func facesTouch(a, b Octant, maxLevel int) bool {
	ah, bh := a.SideLength(maxLevel), b.SideLength(maxLevel)
	overlap1D := func(a0, ah, b0, bh uint32) bool {
		return a0 < b0+bh && b0 < a0+ah
	}
	touch := func(a0, ah, b0, bh uint32) bool {
		return a0+ah == b0 || b0+bh == a0
	}

	xTouch := touch(a.X, ah, b.X, bh)
	yOverlap := overlap1D(a.Y, ah, b.Y, bh)
	zOverlap := overlap1D(a.Z, ah, b.Z, bh)
	if xTouch && yOverlap && zOverlap {
		return true
	}

	yTouch := touch(a.Y, ah, b.Y, bh)
	xOverlap := overlap1D(a.X, ah, b.X, bh)
	if yTouch && xOverlap && zOverlap {
		return true
	}

	zTouch := touch(a.Z, ah, b.Z, bh)
	if zTouch && xOverlap && yOverlap {
		return true
	}
	return false
}

func sameLevelSlot(a, b Octant) bool {
	return a.Block == b.Block && a.X == b.X && a.Y == b.Y && a.Z == b.Z && a.Level == b.Level
}
