// The engine schedules all public operations through two per-instance lanes. The write
// lane is a single goroutine draining a FIFO queue, so mutations (add, remove, sweeps,
// clear) never overlap each other and the directory is never corrupted by two in-process
// writers. The read lane runs each read in its own goroutine, bounded by a semaphore, so
// reads proceed concurrently with each other. The lanes do NOT exclude one another: a
// read may observe either side of an in-flight write to the same key. That weak ordering
// is the engine's contract, not an accident.

package diskcache

import (
	"context"
	"flag"
	"sync"

	"golang.org/x/sync/semaphore"
)

var writeQueueDepth = flag.Int("write_queue_depth", 128,
	"Buffered capacity of the write lane queue; submissions beyond it briefly block.")

// laneTask is a unit of scheduled work. `closed` is true when the owning cache was shut
// down before the task ran; the task must then skip all I/O but still signal completion.
type laneTask func(closed bool)

// scheduler owns the two execution lanes of one cache instance.
type scheduler struct {
	mux     sync.RWMutex // Guards `closed` against concurrent submits.
	closed  bool
	writes  chan laneTask
	drained chan struct{} // Closed once the write lane goroutine exits.
	readSem *semaphore.Weighted
	reads   sync.WaitGroup
}

// newScheduler starts the write lane goroutine and returns a ready scheduler.
// maxConcurrentReads bounds how many reads execute in parallel.
func newScheduler(maxConcurrentReads int64) *scheduler {
	s := &scheduler{
		writes:  make(chan laneTask, *writeQueueDepth),
		drained: make(chan struct{}),
		readSem: semaphore.NewWeighted(maxConcurrentReads),
	}
	go s.drainWrites()
	return s
}

// drainWrites is the write lane: it executes queued tasks one at a time, in submission
// order, until the queue is closed and empty.
func (s *scheduler) drainWrites() {
	defer close(s.drained)
	for task := range s.writes {
		task(s.isClosed())
	}
}

// submitWrite enqueues a task on the serial write lane. Tasks submitted after Shutdown
// are run immediately as closed no-ops instead of being enqueued, so their completion
// still fires.
func (s *scheduler) submitWrite(task laneTask) {
	s.mux.RLock()
	if s.closed {
		s.mux.RUnlock()
		go task(true /*closed*/)
		return
	}
	// The queue is only ever closed under the write lock, so sending under the read lock
	// cannot race with close().
	s.writes <- task
	s.mux.RUnlock()
}

// submitRead runs a task on the concurrent read lane. The WaitGroup increment happens
// under the read lock so it is ordered before shutdown marks the scheduler closed and
// waits; reads arriving later run immediately as closed no-ops.
func (s *scheduler) submitRead(task laneTask) {
	s.mux.RLock()
	if s.closed {
		s.mux.RUnlock()
		go task(true /*closed*/)
		return
	}
	s.reads.Add(1)
	s.mux.RUnlock()
	go func() {
		defer s.reads.Done()
		// Acquire with a background context never fails; there is no cancellation for
		// enqueued operations, every submitted task runs to completion.
		_ = s.readSem.Acquire(context.Background(), 1)
		defer s.readSem.Release(1)
		task(s.isClosed())
	}()
}

func (s *scheduler) isClosed() bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.closed
}

// shutdown marks the scheduler closed and waits for both lanes to wind down. Tasks still
// queued execute as closed no-ops; their completions fire before shutdown returns.
func (s *scheduler) shutdown() {
	s.mux.Lock()
	if s.closed {
		s.mux.Unlock()
		return
	}
	s.closed = true
	close(s.writes)
	s.mux.Unlock()

	<-s.drained
	s.reads.Wait()
}
