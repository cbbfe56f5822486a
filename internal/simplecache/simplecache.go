// Package simplecache implements a single-pin block cache: at most one
// consumer holds a given slot at a time, eviction is a clock hand with a
// per-slot reference counter.
//
// The directory try_emplace/erase_if dance, the hand lock taken only on
// miss, and the boolean pin via compare-and-swap are translated into Go's
// sync/atomic idiom.
package simplecache

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/blockgraph/blockgraph/internal/slotdir"
)

// Serializer is the narrow slice of the block-serializer contract this
// cache needs: read a block's payload into a caller-provided buffer.
type Serializer interface {
	ReadBlock(blockID int, buf []byte) error
}

const (
	statusEmpty = iota
	statusReserved
	statusReady
)

type slot struct {
	buf       []byte
	blockID   int
	status    int32
	pinned    atomic.Bool
	refCount  int32
}

// Cache is a fixed-capacity, single-pin-per-slot block cache.
type Cache struct {
	slots     []slot
	blockSize int
	dir       *slotdir.Dir
	ser       Serializer

	handMu    sync.Mutex
	hand      int
	freeCount int

	onEvict func()
}

// SetEvictCallback installs fn to be called, synchronously and under the
// hand lock, each time the clock scan evicts a resident block to make room
// for a new one. Passing nil disables the callback. Not called for slots
// filled from a previously-empty cache.
func (c *Cache) SetEvictCallback(fn func()) {
	c.handMu.Lock()
	c.onEvict = fn
	c.handMu.Unlock()
}

// New allocates a cache with capacity C slots of blockSize bytes each,
// backed by serializer ser.
func New(capacity, blockSize int, ser Serializer) *Cache {
	c := &Cache{
		slots:     make([]slot, capacity),
		blockSize: blockSize,
		dir:       slotdir.New(),
		ser:       ser,
		freeCount: capacity,
	}
	for i := range c.slots {
		c.slots[i].buf = make([]byte, blockSize)
		c.slots[i].blockID = -1
		c.slots[i].status = statusEmpty
	}
	return c
}

// Request pins a slot holding blockID, fetching a victim slot via the clock
// hand if the block is not resident. ref is the clock "second chance" hint
// added to the slot's reference counter; on a cache hit for an already
// resident block this is additive to whatever reference count survived from
// prior eviction scans, rather than being reset on every hit.
func (c *Cache) Request(blockID, ref int) int {
	// 1. Fast path: already resident, try to take the pin.
	slotIdx := -1
	if c.dir.IfContains(blockID, func(idx int) { slotIdx = idx }) {
		if c.slots[slotIdx].pinned.CompareAndSwap(false, true) {
			atomic.AddInt32(&c.slots[slotIdx].refCount, int32(ref))
			return slotIdx
		}
	}

	c.handMu.Lock()
	defer c.handMu.Unlock()

	// 2. Free slots remain: take the next empty one under the hand.
	if c.freeCount > 0 {
		c.freeCount--
		for i := c.hand; ; i = (i + 1) % len(c.slots) {
			if c.slots[i].status == statusEmpty {
				if !c.dir.TryEmplace(blockID, i) {
					panic(fmt.Sprintf("simplecache: directory already has block %d", blockID))
				}
				c.slots[i].blockID = blockID
				c.slots[i].pinned.Store(true)
				c.slots[i].refCount = int32(ref)
				c.slots[i].status = statusReserved
				c.hand = (i + 1) % len(c.slots)
				return i
			}
		}
	}

	// 3. Clock scan for a victim. A full lap that finds nothing evictable
	// just means every slot is pinned right now, not that the working set
	// exceeds capacity — the pin holder may be about to release. Drop the
	// hand lock and yield before the next lap so the releasing goroutine
	// actually gets to run; only escalate to a hard failure once a large
	// number of yielding laps in a row made no progress.
	const maxStallSweeps = 10000
	for sweep := 0; ; sweep++ {
		victim := -1
		for step := 0; step < len(c.slots); step++ {
			i := (c.hand + step) % len(c.slots)
			if c.slots[i].pinned.Load() {
				continue
			}
			if atomic.AddInt32(&c.slots[i].refCount, -1) != 0 {
				continue
			}
			if !c.slots[i].pinned.CompareAndSwap(false, true) {
				continue
			}
			victim = i
			break
		}

		if victim < 0 {
			if sweep+1 >= maxStallSweeps {
				panic("simplecache: no evictable slot after repeated full sweeps (working set exceeds cache capacity)")
			}
			c.handMu.Unlock()
			runtime.Gosched()
			c.handMu.Lock()
			continue
		}

		oldBlockID := c.slots[victim].blockID
		if !c.dir.EraseIf(oldBlockID, victim) {
			panic(fmt.Sprintf("simplecache: directory missing evicted block %d at slot %d", oldBlockID, victim))
		}
		if !c.dir.TryEmplace(blockID, victim) {
			panic(fmt.Sprintf("simplecache: directory already has block %d", blockID))
		}
		if c.onEvict != nil {
			c.onEvict()
		}

		c.slots[victim].blockID = blockID
		c.slots[victim].refCount = int32(ref)
		c.slots[victim].status = statusReserved
		c.hand = (victim + 1) % len(c.slots)
		return victim
	}
}

// Fill performs the blocking serializer read into the slot's buffer.
// Precondition: the caller holds the pin on slotIdx and the slot is still
// statusReserved.
func (c *Cache) Fill(slotIdx, blockID int) error {
	if c.slots[slotIdx].blockID != blockID {
		panic(fmt.Sprintf("simplecache: fill block id mismatch at slot %d", slotIdx))
	}
	if err := c.ser.ReadBlock(blockID, c.slots[slotIdx].buf); err != nil {
		return err
	}
	c.slots[slotIdx].status = statusReady
	return nil
}

// Get returns the slot's payload buffer. Only valid while pinned.
func (c *Cache) Get(slotIdx int) []byte {
	return c.slots[slotIdx].buf
}

// Status reports whether the slot has completed its fill.
func (c *Cache) Status(slotIdx int) int {
	return int(c.slots[slotIdx].status)
}

// IsReady reports whether the slot's buffer already holds the block's data,
// i.e. whether the caller can skip calling Fill.
func (c *Cache) IsReady(slotIdx int) bool {
	return c.slots[slotIdx].status == statusReady
}

// Release clears the pin. The reference counter is untouched; it is only
// mutated by clock scans and Request.
func (c *Cache) Release(slotIdx int) {
	if !c.slots[slotIdx].pinned.CompareAndSwap(true, false) {
		panic(fmt.Sprintf("simplecache: release of unpinned slot %d", slotIdx))
	}
}

// Clear drops all slots, resetting the cache to empty.
func (c *Cache) Clear() {
	c.handMu.Lock()
	defer c.handMu.Unlock()

	c.dir.Clear()
	c.hand = 0
	c.freeCount = len(c.slots)
	for i := range c.slots {
		c.slots[i].blockID = -1
		c.slots[i].status = statusEmpty
		c.slots[i].pinned.Store(false)
		c.slots[i].refCount = 0
	}
}

// Len returns the cache's slot capacity.
func (c *Cache) Len() int { return len(c.slots) }

// Resident reports the number of occupied slots, for metrics.
func (c *Cache) Resident() int { return c.dir.Len() }
