package tmr

import (
	"sync"
	"testing"
)

func TestSerialQuadComm(t *testing.T) {
	var c SerialQuadComm
	if c.Rank() != 0 || c.Size() != 1 {
		t.Fatalf("SerialQuadComm rank/size = %d/%d, want 0/1", c.Rank(), c.Size())
	}
	if total := c.AllReduceSum(7); total != 7 {
		t.Errorf("AllReduceSum(7) = %d, want 7", total)
	}
	excl, total := c.PrefixSumInt(5)
	if excl != 0 || total != 5 {
		t.Errorf("PrefixSumInt(5) = %d,%d want 0,5", excl, total)
	}

	send := [][]Quadrant{{{Tag: 1}, {Tag: 2}}}
	recv := c.AllToAll(send)
	if len(recv) != 1 || len(recv[0]) != 2 {
		t.Fatalf("AllToAll round-trip = %+v", recv)
	}
}

func TestChannelQuadCommAllToAll(t *testing.T) {
	const n = 4
	comms := NewQuadCommGroup(n)

	var wg sync.WaitGroup
	results := make([][][]Quadrant, n)
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			send := make([][]Quadrant, n)
			for d := 0; d < n; d++ {
				send[d] = []Quadrant{{Block: int32(r), Tag: int64(d)}}
			}
			results[r] = comms[r].AllToAll(send)
		}(r)
	}
	wg.Wait()

	for dst := 0; dst < n; dst++ {
		for src := 0; src < n; src++ {
			got := results[dst][src]
			if len(got) != 1 || got[0].Block != int32(src) || got[0].Tag != int64(dst) {
				t.Fatalf("rank %d received %v from rank %d, want one quadrant {Block:%d,Tag:%d}", dst, got, src, src, dst)
			}
		}
	}
}

func TestChannelQuadCommAllReduceSum(t *testing.T) {
	const n = 5
	comms := NewQuadCommGroup(n)
	var wg sync.WaitGroup
	sums := make([]int, n)
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			sums[r] = comms[r].AllReduceSum(r + 1)
		}(r)
	}
	wg.Wait()
	want := 1 + 2 + 3 + 4 + 5
	for r, s := range sums {
		if s != want {
			t.Errorf("rank %d AllReduceSum = %d, want %d", r, s, want)
		}
	}
}

func TestChannelQuadCommPrefixSumInt(t *testing.T) {
	const n = 4
	comms := NewQuadCommGroup(n)
	counts := []int{3, 1, 4, 1}
	var wg sync.WaitGroup
	excl := make([]int, n)
	totals := make([]int, n)
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			excl[r], totals[r] = comms[r].PrefixSumInt(counts[r])
		}(r)
	}
	wg.Wait()

	wantExcl := []int{0, 3, 4, 8}
	for r := range n {
		if excl[r] != wantExcl[r] {
			t.Errorf("rank %d exclusive prefix = %d, want %d", r, excl[r], wantExcl[r])
		}
		if totals[r] != 9 {
			t.Errorf("rank %d total = %d, want 9", r, totals[r])
		}
	}
}

func TestChannelQuadCommBarrierReleasesAll(t *testing.T) {
	const n = 3
	comms := NewQuadCommGroup(n)
	var wg sync.WaitGroup
	for r := 0; r < n; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			comms[r].Barrier()
		}(r)
	}
	wg.Wait()
}
