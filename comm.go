package tmr

import "sync"

// Comm is the message layer the forest uses for the collective exchanges
// named in the balance, repartition, and node-numbering algorithms: an
// all-to-all exchange of octants plus the all-reduce and prefix-sum
// reductions used to detect quiescence and assign ranges of global
// indices. Each operation is a blocking collective: on a ChannelComm a
// call returns only after every rank of the group has made the same
// call, and no non-blocking send or receive is offered. It is the
// idiomatic Go stand-in for an MPI communicator.
type Comm interface {
	Rank() int
	Size() int
	// AllToAll exchanges octants between every pair of ranks: send[d] is
	// the slice of octants this rank wants delivered to rank d. The
	// result recv[s] is the slice of octants rank s sent to this rank.
	AllToAll(send [][]Octant) (recv [][]Octant)
	// AllReduceSum returns the sum of v across every rank.
	AllReduceSum(v int) int
	// PrefixSumInt returns this rank's exclusive prefix sum of v across
	// all ranks in rank order, and the total sum.
	PrefixSumInt(v int) (exclusive, total int)
	// Barrier blocks until every rank has called Barrier.
	Barrier()
}

// SerialComm is the single-rank Comm used by every non-distributed test:
// its collectives are no-ops or identities, since there is only one
// participant.
type SerialComm struct{}

func (SerialComm) Rank() int { return 0 }
func (SerialComm) Size() int { return 1 }

func (SerialComm) AllToAll(send [][]Octant) [][]Octant {
	if len(send) == 0 {
		return [][]Octant{nil}
	}
	return [][]Octant{send[0]}
}

func (SerialComm) AllReduceSum(v int) int        { return v }
func (SerialComm) PrefixSumInt(v int) (int, int) { return 0, v }
func (SerialComm) Barrier()                      {}

// collector is a generic round-based rendezvous: every one of size
// participants submits a value for the current round, and once all size
// values have arrived every participant's submit call returns the full
// set of submitted values, in rank order. This is the shared rendezvous
// mechanism behind every ChannelComm collective.
type collector[T any] struct {
	mu      sync.Mutex
	size    int
	pending int
	values  []T
	done    []chan []T
}

func newCollector[T any](size int) *collector[T] {
	c := &collector[T]{size: size}
	c.resetLocked()
	return c
}

func (c *collector[T]) resetLocked() {
	c.values = make([]T, c.size)
	c.done = make([]chan []T, c.size)
	for i := range c.done {
		c.done[i] = make(chan []T, 1)
	}
	c.pending = 0
}

func (c *collector[T]) submit(rank int, v T) []T {
	c.mu.Lock()
	myDone := c.done[rank]
	c.values[rank] = v
	c.pending++
	if c.pending == c.size {
		vals := c.values
		doneChans := c.done
		c.resetLocked()
		c.mu.Unlock()
		for _, ch := range doneChans {
			ch <- vals
		}
	} else {
		c.mu.Unlock()
	}
	return <-myDone
}

// commGroup is the shared state behind a set of ChannelComm peers
// created by NewChannelCommGroup: one collector per collective, so a
// round of AllToAll from every rank never interferes with a concurrent
// round of AllReduceSum.
type commGroup struct {
	size        int
	allToAll    *collector[[]Octant]
	allReduce   *collector[int]
	prefixSum   *collector[int]
	barrierColl *collector[struct{}]
}

// NewChannelCommGroup returns size ChannelComm peers, one per simulated
// rank, connected through shared channels so that calling a collective
// method on every peer (each from its own goroutine) performs the
// corresponding distributed operation in-process -- the idiomatic Go
// analogue of an MPI communicator.
func NewChannelCommGroup(size int) []Comm {
	if size <= 0 {
		abort(0, "NewChannelCommGroup: size must be positive")
	}
	g := &commGroup{
		size:        size,
		allToAll:    newCollector[[]Octant](size),
		allReduce:   newCollector[int](size),
		prefixSum:   newCollector[int](size),
		barrierColl: newCollector[struct{}](size),
	}
	peers := make([]Comm, size)
	for r := range size {
		peers[r] = &ChannelComm{rank: r, group: g}
	}
	return peers
}

// ChannelComm is one rank's view of a goroutine-simulated distributed
// run. It must be called from exactly one goroutine per rank; concurrent
// calls from two goroutines holding the same rank would double-submit to
// the same collector round.
type ChannelComm struct {
	rank  int
	group *commGroup
}

func (c *ChannelComm) Rank() int { return c.rank }
func (c *ChannelComm) Size() int { return c.group.size }

func (c *ChannelComm) AllToAll(send [][]Octant) [][]Octant {
	if len(send) != c.group.size {
		abort(c.rank, "AllToAll: send must have one entry per rank")
	}
	rows := make([]Octant, 0)
	// flatten this rank's row with a per-destination length prefix so the
	// collector only has to shuttle one []Octant per rank; see decode.
	offsets := make([]int, c.group.size+1)
	for d, s := range send {
		rows = append(rows, s...)
		offsets[d+1] = len(rows)
	}
	encoded := encodeAllToAllRow(offsets, rows)

	all := c.group.allToAll.submit(c.rank, encoded)

	recv := make([][]Octant, c.group.size)
	for s, row := range all {
		recv[s] = decodeAllToAllRow(row, c.rank)
	}
	return recv
}

// encodeAllToAllRow/decodeAllToAllRow pack a rank's per-destination
// slices into one []Octant: a leading marker octant whose Tag holds the
// number of offsets, then one octant per destination offset (carried in
// its Tag), then the data, so the generic collector[T] can
// stay a plain collector[[]Octant] instead of needing a dedicated matrix
// type.
func encodeAllToAllRow(offsets []int, rows []Octant) []Octant {
	marker := Octant{Tag: int64(len(offsets))}
	out := make([]Octant, 0, len(offsets)+len(rows))
	out = append(out, marker)
	for _, off := range offsets {
		out = append(out, Octant{Tag: int64(off)})
	}
	out = append(out, rows...)
	return out
}

func decodeAllToAllRow(row []Octant, dst int) []Octant {
	if len(row) == 0 {
		return nil
	}
	n := int(row[0].Tag)
	offsets := row[1 : 1+n]
	data := row[1+n:]
	start, end := int(offsets[dst].Tag), int(offsets[dst+1].Tag)
	return slicesClone(data[start:end])
}

func slicesClone(s []Octant) []Octant {
	if len(s) == 0 {
		return nil
	}
	out := make([]Octant, len(s))
	copy(out, s)
	return out
}

func (c *ChannelComm) AllReduceSum(v int) int {
	vals := c.group.allReduce.submit(c.rank, v)
	total := 0
	for _, x := range vals {
		total += x
	}
	return total
}

func (c *ChannelComm) PrefixSumInt(v int) (int, int) {
	vals := c.group.prefixSum.submit(c.rank, v)
	exclusive, total := 0, 0
	for i, x := range vals {
		if i < c.rank {
			exclusive += x
		}
		total += x
	}
	return exclusive, total
}

func (c *ChannelComm) Barrier() {
	c.group.barrierColl.submit(c.rank, struct{}{})
}
