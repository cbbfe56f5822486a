package simplecache

import (
	"encoding/binary"
	"sync"
	"testing"
)

type fakeSerializer struct {
	mu    sync.Mutex
	reads map[int]int
}

func newFakeSerializer() *fakeSerializer {
	return &fakeSerializer{reads: make(map[int]int)}
}

func (f *fakeSerializer) ReadBlock(blockID int, buf []byte) error {
	f.mu.Lock()
	f.reads[blockID]++
	f.mu.Unlock()
	binary.LittleEndian.PutUint64(buf, uint64(blockID))
	return nil
}

func (f *fakeSerializer) readCount(blockID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[blockID]
}

func TestCapacity4EvictsOnFifthRequest(t *testing.T) {
	ser := newFakeSerializer()
	c := New(4, 8, ser)

	var slots [5]int
	for i := 1; i <= 5; i++ {
		idx := c.Request(i, 1)
		if err := c.Fill(idx, i); err != nil {
			t.Fatal(err)
		}
		slots[i-1] = idx
		c.Release(idx)
	}

	if c.Resident() != 4 {
		t.Fatalf("resident = %d, want 4", c.Resident())
	}

	found := false
	c.dir.IfContains(5, func(int) { found = true })
	if !found {
		t.Fatal("block 5 should be resident after fifth request")
	}
}

// TestIdempotentReRequest exercises the "idempotent re-request" law: with
// the cache not full, request(b); release(); request(b) must yield the same
// slot, since nothing else could have evicted it in between.
func TestIdempotentReRequest(t *testing.T) {
	ser := newFakeSerializer()
	c := New(4, 8, ser)

	idx1 := c.Request(7, 1)
	if err := c.Fill(idx1, 7); err != nil {
		t.Fatal(err)
	}
	c.Release(idx1)

	idx2 := c.Request(7, 1)
	if idx2 != idx1 {
		t.Fatalf("re-request of block 7 landed on slot %d, want %d", idx2, idx1)
	}
	c.Release(idx2)

	if got := ser.readCount(7); got != 1 {
		t.Fatalf("expected exactly 1 physical read of block 7, got %d", got)
	}
}

func TestPinnedBlockNeverEvicted(t *testing.T) {
	ser := newFakeSerializer()
	c := New(1, 8, ser)

	idx9 := c.Request(9, 1)
	if err := c.Fill(idx9, 9); err != nil {
		t.Fatal(err)
	}

	done := make(chan int, 1)
	go func() {
		done <- c.Request(10, 1)
	}()

	select {
	case <-done:
		t.Fatal("request for block 10 should not complete while block 9 is pinned")
	default:
	}

	c.Release(idx9)
	idx10 := <-done
	if idx10 != idx9 {
		t.Fatalf("expected block 10 to reuse the single slot %d, got %d", idx9, idx10)
	}
	c.Release(idx10)
}
