package tmr

// MaxLevel is the compile-time maximum octree/quadtree refinement level.
// Coordinates run in [0, 1<<MaxLevel); an octant's side length at level
// lvl is 1<<(MaxLevel-lvl).
const MaxLevel = 30

// H is the width of the coordinate cube/square shared by every block.
const H uint32 = 1 << MaxLevel

// mortonBits is the number of coordinate bits the Morton ordering
// interleaves. One more than MaxLevel: node positions (unlike octant
// anchors) legitimately reach the far boundary H itself, and that bit
// must participate in the ordering.
const mortonBits = MaxLevel + 1

// Runtime carries the per-process configuration of a forest run. It is
// constructed once per process and passed explicitly into every forest
// constructor instead of being read from package-level state.
type Runtime struct {
	// Rank is this process's position among Size peers.
	Rank int
	// Size is the total number of peers participating in the forest.
	Size int
	// MaxLevel bounds refinement depth; 0 means "use the package default".
	MaxLevel int
	// BalanceEdgeCorner, when true, makes Balance enforce the 2:1
	// condition across edge and corner neighbors in addition to faces
	// (corners have no separate edge entity in 2D, so a quad forest
	// extends from faces to corners). Defaults to false (face-only).
	BalanceEdgeCorner bool
}

// NewRuntime constructs a Runtime for a process at position rank among
// size peers. Passing maxLevel <= 0 selects the package default MaxLevel.
func NewRuntime(rank, size, maxLevel int) *Runtime {
	if maxLevel <= 0 {
		maxLevel = MaxLevel
	}
	return &Runtime{Rank: rank, Size: size, MaxLevel: maxLevel}
}

// effectiveMaxLevel returns rt.MaxLevel if rt is non-nil and positive,
// otherwise the package default.
func (rt *Runtime) effectiveMaxLevel() int {
	if rt == nil || rt.MaxLevel <= 0 {
		return MaxLevel
	}
	return rt.MaxLevel
}

func (rt *Runtime) rank() int {
	if rt == nil {
		return 0
	}
	return rt.Rank
}

func (rt *Runtime) size() int {
	if rt == nil || rt.Size <= 0 {
		return 1
	}
	return rt.Size
}

func (rt *Runtime) balanceEdgeCorner() bool {
	return rt != nil && rt.BalanceEdgeCorner
}
