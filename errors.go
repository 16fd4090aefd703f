package tmr

import (
	"fmt"
	"log"
	"runtime"

	"github.com/pkg/errors"
)

// Sentinel errors returned by argument validation at API boundaries.
// Callers can test against these with errors.Is.
var (
	ErrLevelOverflow   = errors.New("level exceeds MaxLevel")
	ErrInvalidBlock    = errors.New("block index out of range")
	ErrInvalidOrder    = errors.New("element order must be 2 or 3")
	ErrEmptyForest     = errors.New("operation requires at least one owned leaf")
	ErrNoParent        = errors.New("octant at level 0 has no parent")
	ErrInvalidFace     = errors.New("face index out of range")
	ErrInvalidEdge     = errors.New("edge index out of range")
	ErrInvalidCorner   = errors.New("corner index out of range")
	ErrInvalidConn     = errors.New("block connectivity is malformed")
)

// wrapf wraps err with a formatted message, following the same
// github.com/pkg/errors idiom the viamrobotics-rdk octree snippet uses
// for splitIntoOctants's error paths.
func wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// abort reports a single-line diagnostic (file, line, rank, condition) and
// panics. Every entry point that detects a programmer error (invariant
// violation, malformed argument, allocation failure) funnels through here
// rather than repeating the log+panic pair ad hoc: these are fatal
// conditions with no retry and no partial-state recovery.
func abort(rank int, condition string) {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "?", 0
	}
	log.Printf("tmr: fatal: %s:%d rank=%d: %s", file, line, rank, condition)
	panic(fmt.Sprintf("tmr: fatal: %s", condition))
}
