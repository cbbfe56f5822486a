package graph

import "sync"

// SyncSlice is a mutex-guarded uint32 accumulator used by a process-queue
// callback flavour: callbacks write directly into a shared next vector
// under synchronisation, rather than merging thread-local buffers or
// flipping bits.
type SyncSlice struct {
	mu   sync.Mutex
	vals []uint32
}

// NewSyncSlice allocates an empty accumulator, optionally pre-sizing its
// backing array.
func NewSyncSlice(capHint int) *SyncSlice {
	return &SyncSlice{vals: make([]uint32, 0, capHint)}
}

// Append adds one value.
func (s *SyncSlice) Append(v uint32) {
	s.mu.Lock()
	s.vals = append(s.vals, v)
	s.mu.Unlock()
}

// AppendAll adds a batch of values in one critical section.
func (s *SyncSlice) AppendAll(vs []uint32) {
	if len(vs) == 0 {
		return
	}
	s.mu.Lock()
	s.vals = append(s.vals, vs...)
	s.mu.Unlock()
}

// Values returns a snapshot copy of the accumulated values.
func (s *SyncSlice) Values() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, len(s.vals))
	copy(out, s.vals)
	return out
}
