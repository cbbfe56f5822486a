package graph

import "sync/atomic"

// Bitset is the atomic visited/active bitvector used by a process-queue
// callback flavour: one atomic bool per vertex, safe for concurrent
// TestAndSet from many frontier tasks.
type Bitset struct {
	bits []atomic.Bool
}

// NewBitset allocates a bitset sized for n vertices, all initially unset.
func NewBitset(n int) *Bitset {
	return &Bitset{bits: make([]atomic.Bool, n)}
}

// TestAndSet atomically sets bit i and reports whether it was already set.
func (b *Bitset) TestAndSet(i int) bool {
	return !b.bits[i].CompareAndSwap(false, true)
}

// Test reports whether bit i is set.
func (b *Bitset) Test(i int) bool { return b.bits[i].Load() }

// Set unconditionally marks bit i.
func (b *Bitset) Set(i int) { b.bits[i].Store(true) }

// Clear unconditionally unmarks bit i.
func (b *Bitset) Clear(i int) { b.bits[i].Store(false) }

// Len returns the number of bits.
func (b *Bitset) Len() int { return len(b.bits) }
