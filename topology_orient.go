package tmr

// corner2D is the (u,v) parametric position, in [0,1]^2, of local corner
// index i within a face's 4-corner ordering ([0,2,4,6] / [1,3,5,7] / ...
// in topology.go, always listed in this (u,v) order: (0,0),(1,0),(0,1),
// (1,1)).
var corner2D = [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// faceSymmetry is one of the 8 symmetries of a square (the dihedral
// group D4): a function from (u,v) to the transformed (u,v).
type faceSymmetry func(u, v int) (int, int)

var faceSymmetries = [8]faceSymmetry{
	func(u, v int) (int, int) { return u, v },         // identity
	func(u, v int) (int, int) { return v, u },         // transpose
	func(u, v int) (int, int) { return 1 - u, v },     // flip u
	func(u, v int) (int, int) { return u, 1 - v },     // flip v
	func(u, v int) (int, int) { return 1 - u, 1 - v }, // rotate 180
	func(u, v int) (int, int) { return v, 1 - u },     // rotate 90
	func(u, v int) (int, int) { return 1 - v, u },      // rotate 270
	func(u, v int) (int, int) { return 1 - v, 1 - u },  // transpose + rotate 180
}

// orientationPerms[o][i] gives the index, in the 4-corner face ordering,
// that symmetry o sends position i to: applying this permutation to a
// face's corner-id list expresses that face in orientation o relative to
// its canonical (identity) listing.
var orientationPerms = buildOrientationPerms()

func buildOrientationPerms() [8][4]int {
	var perms [8][4]int
	for o, sym := range faceSymmetries {
		for i, p := range corner2D {
			u2, v2 := sym(p[0], p[1])
			for j, q := range corner2D {
				if q[0] == u2 && q[1] == v2 {
					perms[o][i] = j
					break
				}
			}
		}
	}
	return perms
}

// faceOrientation returns the o in [0,8) such that permuting b's
// 4-corner node-id list by orientationPerms[o] reproduces a's, or false
// if no symmetry matches (the faces don't actually correspond).
func faceOrientation(a, b [4]int32) (int, bool) {
	for o, perm := range orientationPerms {
		match := true
		for i := range 4 {
			if a[i] != b[perm[i]] {
				match = false
				break
			}
		}
		if match {
			return o, true
		}
	}
	return 0, false
}

// applyFaceOrientation permutes a 4-corner node (or coordinate) list by
// orientation code o.
func applyFaceOrientation[T any](o int, b [4]T) [4]T {
	var out [4]T
	perm := orientationPerms[o]
	for i := range 4 {
		out[i] = b[perm[i]]
	}
	return out
}

// edgeOrientation returns 0 if a and b run in the same direction (same
// node-id pair, same order) or 1 if opposite, or false if they don't
// correspond to the same edge at all.
func edgeOrientation(a, b [2]int32) (int, bool) {
	switch {
	case a[0] == b[0] && a[1] == b[1]:
		return 0, true
	case a[0] == b[1] && a[1] == b[0]:
		return 1, true
	default:
		return 0, false
	}
}
