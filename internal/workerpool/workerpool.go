// Package workerpool adapts github.com/panjf2000/ants/v2 to the thread-pool
// contract the frontier executor needs: submit(callable), wait_for_all(),
// resizable. ants' goroutine pool is the idiomatic Go analogue of the
// original's BS::thread_pool work-stealing pool.
package workerpool

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool submits tasks to a bounded goroutine pool and tracks in-flight work
// so Wait can block until every submitted task has returned.
type Pool struct {
	p  *ants.Pool
	wg sync.WaitGroup
}

// New creates a pool with the given worker count. size <= 0 lets ants pick
// its own default (math.MaxInt32 workers, i.e. unbounded).
func New(size int) (*Pool, error) {
	if size <= 0 {
		size = ants.DefaultAntsPoolSize
	}
	p, err := ants.NewPool(size, ants.WithPreAlloc(false))
	if err != nil {
		return nil, err
	}
	return &Pool{p: p}, nil
}

// Submit schedules fn for execution. It blocks briefly if the pool is at
// capacity and non-blocking submission is not configured; callers that need
// backpressure-free fire-and-forget should size the pool generously.
func (wp *Pool) Submit(fn func()) error {
	wp.wg.Add(1)
	err := wp.p.Submit(func() {
		defer wp.wg.Done()
		fn()
	})
	if err != nil {
		wp.wg.Done()
	}
	return err
}

// Wait blocks until every task submitted so far has returned.
func (wp *Pool) Wait() {
	wp.wg.Wait()
}

// Tune resizes the pool's worker capacity.
func (wp *Pool) Tune(size int) {
	wp.p.Tune(size)
}

// Running returns the number of workers currently executing a task.
func (wp *Pool) Running() int {
	return wp.p.Running()
}

// Release shuts the pool down, waiting for in-flight tasks to drain first.
func (wp *Pool) Release() {
	wp.wg.Wait()
	wp.p.Release()
}
