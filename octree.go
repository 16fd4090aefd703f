package tmr

// Octree is the set of leaf octants for a single block, owned by exactly
// one rank at a time. Its leaves partition the block with no overlap.
type Octree struct {
	Block  int32
	leaves *OctantSet
}

// NewOctree returns an Octree for block with a single level-0 leaf.
func NewOctree(block int32) *Octree {
	t := &Octree{Block: block, leaves: NewOctantSet()}
	t.leaves.Insert(Octant{Block: block})
	return t
}

// Leaves returns the tree's current leaf set.
func (t *Octree) Leaves() *OctantSet {
	return t.leaves
}

// LeafCount returns the number of leaves.
func (t *Octree) LeafCount() int {
	return t.leaves.Size()
}

// Refine replaces each leaf whose level is less than its target with its
// 8 children, recursively, until every resulting leaf reaches the
// target. levels[k] gives the target level for the k-th leaf in the
// tree's current sorted order; a nil levels refines every leaf by
// exactly one level uniformly. Refine is purely local: it performs no
// communication.
func (t *Octree) Refine(levels []int) {
	current := t.leaves.Slice()
	next := NewOctantSet()
	for k, o := range current {
		target := int(o.Level) + 1
		if levels != nil && k < len(levels) {
			target = levels[k]
		}
		refineOctantTo(o, target, next)
	}
	t.leaves = next
}

// RefineUniform refines every leaf by exactly one level.
func (t *Octree) RefineUniform() {
	t.Refine(nil)
}

func refineOctantTo(o Octant, targetLevel int, out *OctantSet) {
	if targetLevel <= int(o.Level) || o.Level >= MaxLevel {
		out.Insert(o)
		return
	}
	for k := range 8 {
		refineOctantTo(o.Child(k), targetLevel, out)
	}
}

// Coarsen collapses any complete group of 8 sibling leaves into their
// parent in a single pass: a parent created here is not merged again
// with its own siblings, so Coarsen undoes exactly one RefineUniform.
// It returns the number of parent octants created.
func (t *Octree) Coarsen() int {
	groups := make(map[Octant][]Octant)
	for _, o := range t.leaves.Slice() {
		if p, err := o.Parent(); err == nil {
			groups[p] = append(groups[p], o)
		}
	}
	created := 0
	for p, children := range groups {
		if len(children) == 8 {
			for _, c := range children {
				t.leaves.Remove(c)
			}
			t.leaves.Insert(p)
			created++
		}
	}
	return created
}

// insertRefinement inserts o into the leaf set as it is: no ancestor or
// sibling is added, and no overlap with an existing leaf is checked.
func (t *Octree) insertRefinement(o Octant) {
	t.leaves.Insert(o)
}
