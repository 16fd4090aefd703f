package tmr

// QuadComm is the 2D analogue of Comm: the same message-layer contract,
// specialized to Quadrant instead of Octant. It reuses the generic
// collector[T] rendezvous comm.go defines rather than duplicating it.
type QuadComm interface {
	Rank() int
	Size() int
	AllToAll(send [][]Quadrant) (recv [][]Quadrant)
	AllReduceSum(v int) int
	PrefixSumInt(v int) (exclusive, total int)
	Barrier()
}

// SerialQuadComm is the single-rank QuadComm used by non-distributed
// tests.
type SerialQuadComm struct{}

func (SerialQuadComm) Rank() int { return 0 }
func (SerialQuadComm) Size() int { return 1 }

func (SerialQuadComm) AllToAll(send [][]Quadrant) [][]Quadrant {
	if len(send) == 0 {
		return [][]Quadrant{nil}
	}
	return [][]Quadrant{send[0]}
}

func (SerialQuadComm) AllReduceSum(v int) int        { return v }
func (SerialQuadComm) PrefixSumInt(v int) (int, int) { return 0, v }
func (SerialQuadComm) Barrier()                      {}

type quadCommGroup struct {
	size        int
	allToAll    *collector[[]Quadrant]
	allReduce   *collector[int]
	prefixSum   *collector[int]
	barrierColl *collector[struct{}]
}

// NewQuadCommGroup returns size ChannelQuadComm peers, one per simulated
// rank, the 2D analogue of NewChannelCommGroup.
func NewQuadCommGroup(size int) []QuadComm {
	if size <= 0 {
		abort(0, "NewQuadCommGroup: size must be positive")
	}
	g := &quadCommGroup{
		size:        size,
		allToAll:    newCollector[[]Quadrant](size),
		allReduce:   newCollector[int](size),
		prefixSum:   newCollector[int](size),
		barrierColl: newCollector[struct{}](size),
	}
	peers := make([]QuadComm, size)
	for r := range size {
		peers[r] = &ChannelQuadComm{rank: r, group: g}
	}
	return peers
}

// ChannelQuadComm is one rank's view of a goroutine-simulated
// distributed run over quadrants.
type ChannelQuadComm struct {
	rank  int
	group *quadCommGroup
}

func (c *ChannelQuadComm) Rank() int { return c.rank }
func (c *ChannelQuadComm) Size() int { return c.group.size }

func (c *ChannelQuadComm) AllToAll(send [][]Quadrant) [][]Quadrant {
	if len(send) != c.group.size {
		abort(c.rank, "AllToAll: send must have one entry per rank")
	}
	rows := make([]Quadrant, 0)
	offsets := make([]int, c.group.size+1)
	for d, s := range send {
		rows = append(rows, s...)
		offsets[d+1] = len(rows)
	}
	encoded := encodeQuadAllToAllRow(offsets, rows)

	all := c.group.allToAll.submit(c.rank, encoded)

	recv := make([][]Quadrant, c.group.size)
	for s, row := range all {
		recv[s] = decodeQuadAllToAllRow(row, c.rank)
	}
	return recv
}

func encodeQuadAllToAllRow(offsets []int, rows []Quadrant) []Quadrant {
	marker := Quadrant{Tag: int64(len(offsets))}
	out := make([]Quadrant, 0, len(offsets)+len(rows))
	out = append(out, marker)
	for _, off := range offsets {
		out = append(out, Quadrant{Tag: int64(off)})
	}
	out = append(out, rows...)
	return out
}

func decodeQuadAllToAllRow(row []Quadrant, dst int) []Quadrant {
	if len(row) == 0 {
		return nil
	}
	n := int(row[0].Tag)
	offsets := row[1 : 1+n]
	data := row[1+n:]
	start, end := int(offsets[dst].Tag), int(offsets[dst+1].Tag)
	if start == end {
		return nil
	}
	out := make([]Quadrant, end-start)
	copy(out, data[start:end])
	return out
}

func (c *ChannelQuadComm) AllReduceSum(v int) int {
	vals := c.group.allReduce.submit(c.rank, v)
	total := 0
	for _, x := range vals {
		total += x
	}
	return total
}

func (c *ChannelQuadComm) PrefixSumInt(v int) (int, int) {
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

func (c *ChannelQuadComm) Barrier() {
	c.group.barrierColl.submit(c.rank, struct{}{})
}
