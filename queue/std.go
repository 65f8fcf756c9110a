package queue

import (
	"time"

	"github.com/notorious-go/concurrent/atomics"
	"github.com/notorious-go/concurrent/internal/spin"
)

// StdQueue layers the classic put/get queue vocabulary over Queue: an
// optional capacity bound, non-blocking variants, and task-completion
// accounting with Join. Ordering, shutdown and failure semantics are those
// of Queue.
//
// The capacity bound is best-effort under heavy concurrency: Put re-checks
// fullness and then pushes without holding a lock across both steps, so
// momentary overshoot by concurrent putters is possible. The bound is a
// back-pressure mechanism, not a hard invariant.
type StdQueue[V any] struct {
	q       *Queue[V]
	maxsize int
	active  atomics.Int64 // puts not yet matched by TaskDone
}

// NewStd creates a StdQueue. maxsize bounds the queue; zero or negative
// means unbounded. scaling and lockFree are passed through to Queue.
func NewStd[V any](maxsize, scaling int, lockFree bool) *StdQueue[V] {
	if maxsize < 0 {
		maxsize = 0
	}
	return &StdQueue[V]{q: New[V](scaling, lockFree), maxsize: maxsize}
}

// Put appends item, blocking while the queue is at capacity.
func (s *StdQueue[V]) Put(item V) error {
	return s.put(item, time.Time{}, false)
}

// PutTimeout is Put with a bound on the wait for capacity; on expiry it
// returns ErrFull.
func (s *StdQueue[V]) PutTimeout(item V, timeout time.Duration) error {
	if timeout < 0 {
		timeout = 0
	}
	return s.put(item, time.Now().Add(timeout), true)
}

// PutNoWait is Put that fails with ErrFull instead of waiting.
func (s *StdQueue[V]) PutNoWait(item V) error {
	return s.put(item, time.Time{}, true)
}

func (s *StdQueue[V]) put(item V, deadline time.Time, timed bool) error {
	if s.maxsize > 0 {
		start := time.Now()
		for s.Full() {
			if s.q.state.Load()&stateShutDown != 0 {
				return ErrShutDown
			}
			if timed && !time.Now().Before(deadline) {
				return ErrFull
			}
			spin.Backoff(start)
		}
	}
	// Count the task before the push so a racing Get+TaskDone pair can
	// never drive the counter below zero.
	s.active.Incr()
	if err := s.q.Push(item); err != nil {
		s.active.Decr()
		return err
	}
	return nil
}

// Get removes and returns the head item, blocking until one is available.
func (s *StdQueue[V]) Get() (V, error) {
	return s.q.Pop()
}

// GetTimeout is Get with a bound on the wait; on expiry it returns ErrEmpty.
func (s *StdQueue[V]) GetTimeout(timeout time.Duration) (V, error) {
	return s.q.PopTimeout(timeout)
}

// GetNoWait is Get that fails with ErrEmpty instead of waiting.
func (s *StdQueue[V]) GetNoWait() (V, error) {
	return s.q.PopTimeout(0)
}

// Full reports whether the queue is at capacity. Always false when
// unbounded; best-effort under concurrent use.
func (s *StdQueue[V]) Full() bool {
	return s.maxsize > 0 && s.q.Len() >= s.maxsize
}

// Len returns the number of queued items, best-effort.
func (s *StdQueue[V]) Len() int { return s.q.Len() }

// Empty reports whether Len is zero, best-effort.
func (s *StdQueue[V]) Empty() bool { return s.q.Empty() }

// ActiveTasks returns the number of puts not yet matched by TaskDone.
func (s *StdQueue[V]) ActiveTasks() int { return int(s.active.Load()) }

// TaskDone records that an item obtained by Get has been fully processed.
// Call it exactly once per item; Join waits for the counts to balance.
func (s *StdQueue[V]) TaskDone() {
	s.active.Decr()
}

// Join blocks until every put item has been matched by a TaskDone call, or
// the queue is shut down immediately.
func (s *StdQueue[V]) Join() {
	start := time.Now()
	for s.active.Load() > 0 {
		if s.q.state.Load()&stateShutNow != 0 {
			return
		}
		spin.Backoff(start)
	}
}

// Shutdown rejects future puts; with immediate it also rejects gets and
// releases Join.
func (s *StdQueue[V]) Shutdown(immediate bool) {
	s.q.Shutdown(immediate)
}
