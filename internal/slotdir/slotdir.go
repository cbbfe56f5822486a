// Package slotdir provides the cache directory required by
// internal/simplecache and internal/blockcache: a concurrent mapping from
// block id to slot index supporting the three per-key atomic primitives the
// clock-hand algorithm needs (if-contains, try-emplace, erase-if).
//
// It is a thin wrapper around xsync.MapOf, whose sharded per-bucket locking
// satisfies the "any shared hash map with per-bucket locking" requirement
// without the cache having to implement its own striping.
package slotdir

import "github.com/puzpuzpuz/xsync/v3"

// Dir maps block id -> slot index.
type Dir struct {
	m *xsync.MapOf[int, int]
}

// New returns an empty directory.
func New() *Dir {
	return &Dir{m: xsync.NewMapOf[int, int]()}
}

// IfContains invokes fn with the slot index currently mapped to blockID, if
// any, and reports whether an entry was found.
func (d *Dir) IfContains(blockID int, fn func(slotIdx int)) bool {
	slotIdx, ok := d.m.Load(blockID)
	if !ok {
		return false
	}
	fn(slotIdx)
	return true
}

// TryEmplace inserts blockID -> slotIdx if absent. Returns false if an entry
// for blockID already exists (a programming invariant violation at the call
// sites in simplecache/blockcache, since the hand lock should have been held
// for the whole allocate-or-evict decision).
func (d *Dir) TryEmplace(blockID, slotIdx int) bool {
	_, loaded := d.m.LoadOrStore(blockID, slotIdx)
	return !loaded
}

// EraseIf removes the entry for blockID only if its current slot index
// equals slotIdx, guarding against racing with a concurrent insert of the
// same block id into a different slot. Returns true if an entry was removed.
func (d *Dir) EraseIf(blockID, slotIdx int) bool {
	removed := false
	d.m.Compute(blockID, func(cur int, loaded bool) (int, bool) {
		if loaded && cur == slotIdx {
			removed = true
			return 0, true // delete
		}
		return cur, !loaded // leave untouched if present but mismatched
	})
	return removed
}

// Len returns the number of resident block ids. Approximate under
// concurrent mutation; used only for metrics/diagnostics.
func (d *Dir) Len() int {
	return d.m.Size()
}

// Clear drops every entry.
func (d *Dir) Clear() {
	d.m.Clear()
}
