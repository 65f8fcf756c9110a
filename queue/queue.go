package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notorious-go/concurrent/atomics"
	"github.com/notorious-go/concurrent/internal/spin"
)

var (
	// ErrEmpty reports that a pop timed out before a value arrived. It is a
	// normal control-flow signal: the caller may retry.
	ErrEmpty = errors.New("queue: empty")

	// ErrFull reports that a bounded put timed out at capacity. The caller
	// may retry.
	ErrFull = errors.New("queue: full")

	// ErrShutDown reports that the queue has been shut down. It is permanent
	// for the rest of the instance's lifetime.
	ErrShutDown = errors.New("queue: shut down")

	// ErrPoisoned reports an internal consistency failure, such as the
	// backing store failing an operation. Once returned, the instance is
	// permanently failed and every later operation returns it too.
	ErrPoisoned = errors.New("queue: poisoned by an internal failure")
)

// Queue state bits. Monotonic: once set, never cleared.
const (
	stateShutDown int64 = 1 << iota
	stateShutNow
	stateFailed
)

const (
	// pollInterval bounds how long a blocking waiter can miss a wakeup: the
	// probe-then-wait window is closed by re-checking on this cadence even
	// if no broadcast arrives.
	pollInterval = 10 * time.Millisecond

	// takeAttempts bounds the retry loop between a producer's ticket
	// increment and its store write becoming visible: fast spins first,
	// short sleeps for the remainder, then give up.
	takeAttempts = spin.FastRetries + 100
)

// Queue is an unbounded FIFO multi-producer multi-consumer queue with exact
// cross-goroutine ordering. See the package documentation for the ticket and
// placeholder protocol. Use New to create one.
type Queue[V any] struct {
	lockFree bool
	store    store[V]

	inkey  atomics.Int64 // tickets handed to producers
	outkey atomics.Int64 // tickets handed to consumers
	state  atomics.Int64 // stateShutDown | stateShutNow | stateFailed

	mu   sync.Mutex    // guards wake
	wake chan struct{} // closed and renewed on every broadcast; nil in lock-free mode
}

// New creates a queue. scaling hints the expected number of concurrent
// goroutines (zero or negative selects a default); lockFree selects the
// spin/backoff waiting mode instead of blocking waits.
func New[V any](scaling int, lockFree bool) *Queue[V] {
	return newQueue[V](newMapStore[V](scaling), lockFree)
}

func newQueue[V any](s store[V], lockFree bool) *Queue[V] {
	q := &Queue[V]{lockFree: lockFree, store: s}
	if !lockFree {
		q.wake = make(chan struct{})
	}
	return q
}

// Push appends value to the queue. It returns ErrShutDown once Shutdown has
// been called, and an error wrapping ErrPoisoned if the backing store fails
// (which permanently poisons the queue).
func (q *Queue[V]) Push(value V) error {
	if q.state.Load()&stateShutDown != 0 {
		return ErrShutDown
	}
	return q.pushEntry(entry[V]{value: value})
}

// pushEntry writes e under a fresh input ticket. It wakes all waiters on
// success and on failure alike, so they can re-check state.
func (q *Queue[V]) pushEntry(e entry[V]) error {
	ticket := q.inkey.Incr()
	err := q.store.Set(ticket, e)
	if err != nil {
		q.state.Or(stateFailed)
	}
	q.broadcast()
	if err != nil {
		return fmt.Errorf("%w: store set: %w", ErrPoisoned, err)
	}
	return nil
}

// Pop removes and returns the value at the head of the queue, blocking
// until one is available. It returns ErrShutDown if the queue is shut down
// immediately, or shut down gracefully with nothing left to drain, and an
// error wrapping ErrPoisoned if the queue has failed.
func (q *Queue[V]) Pop() (V, error) {
	return q.pop(time.Time{}, false)
}

// PopTimeout is Pop with a bound on the wait. A zero timeout checks once and
// returns immediately. On expiry it returns ErrEmpty, after leaving a
// placeholder so that the value this call was waiting for is forwarded to a
// later consumer rather than lost.
func (q *Queue[V]) PopTimeout(timeout time.Duration) (V, error) {
	if timeout < 0 {
		timeout = 0
	}
	return q.pop(time.Now().Add(timeout), true)
}

func (q *Queue[V]) pop(deadline time.Time, timed bool) (V, error) {
	var zero V
	// The ticket is reserved before the value is known to exist; this is
	// what makes cross-goroutine FIFO order exact.
	ticket := q.outkey.Incr()
	if q.state.Load()&stateShutNow != 0 {
		return zero, ErrShutDown
	}
	return q.claim(ticket, deadline, timed)
}

// claim waits for ticket's slot, takes it, and resolves placeholder chains.
// The recursion carries the caller's original deadline: adopted tickets get
// whatever patience the caller has left.
func (q *Queue[V]) claim(ticket int64, deadline time.Time, timed bool) (V, error) {
	var zero V
	if err := q.await(ticket, deadline, timed); err != nil {
		if errors.Is(err, ErrEmpty) {
			// Leave a forwarding marker for the value this ticket was
			// waiting on. The marker goes through the push path and so
			// occupies a fresh input ticket of its own.
			if perr := q.pushEntry(entry[V]{deferTo: ticket, placeholder: true}); perr != nil {
				return zero, perr
			}
		}
		return zero, err
	}
	e, err := q.take(ticket)
	if err != nil {
		return zero, err
	}
	if e.placeholder {
		return q.claim(e.deferTo, deadline, timed)
	}
	return e.value, nil
}

// await blocks until the producer side has caught up with ticket, or the
// queue's state makes that pointless.
func (q *Queue[V]) await(ticket int64, deadline time.Time, timed bool) error {
	var start time.Time
	if q.lockFree {
		start = time.Now()
	}
	for {
		// In blocking mode the wake channel must be captured before the
		// checks, so a push between check and wait still wakes this waiter.
		var wake <-chan struct{}
		if !q.lockFree {
			wake = q.wakeChan()
		}

		state := q.state.Load()
		if state&stateShutNow != 0 {
			return ErrShutDown
		}
		if state&stateFailed != 0 {
			return fmt.Errorf("%w: queue failed while waiting", ErrPoisoned)
		}
		if q.inkey.Load() >= ticket {
			return nil
		}
		if state&stateShutDown != 0 {
			// Graceful shutdown: no producer will ever reach this ticket.
			return ErrShutDown
		}
		if timed && !time.Now().Before(deadline) {
			return ErrEmpty
		}

		if q.lockFree {
			spin.Backoff(start)
			continue
		}
		wait := pollInterval
		if timed {
			if remaining := time.Until(deadline); remaining < wait {
				wait = remaining
			}
		}
		timer := time.NewTimer(wait)
		select {
		case <-wake:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// take reads and deletes the slot at ticket. Only the ticket holder touches
// this key, so the read and delete need no further coordination. The slot is
// expected to exist; the bounded retry covers the short window between a
// producer's ticket increment and its write landing in the store.
func (q *Queue[V]) take(ticket int64) (entry[V], error) {
	for attempt := 0; attempt < takeAttempts; attempt++ {
		if e, ok := q.store.Get(ticket); ok {
			q.store.Delete(ticket)
			return e, nil
		}
		spin.Retry(attempt)
	}
	return entry[V]{}, fmt.Errorf("%w: ticket %d was published but its value never appeared", ErrPoisoned, ticket)
}

// Shutdown rejects all future pushes. With immediate it also rejects pops,
// abandoning queued values; otherwise queued values may still be drained.
// Shutdown is monotonic and may be called more than once; immediate may be
// added by a later call.
func (q *Queue[V]) Shutdown(immediate bool) {
	bits := stateShutDown
	if immediate {
		bits |= stateShutNow
	}
	q.state.Or(bits)
	q.broadcast()
}

// Len returns the number of queued values. The answer is best-effort under
// concurrent use: it races with in-flight pushes and pops.
func (q *Queue[V]) Len() int {
	n := q.inkey.Load() - q.outkey.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Empty reports whether Len is zero, with the same best-effort caveat.
func (q *Queue[V]) Empty() bool { return q.Len() == 0 }

// broadcast wakes every blocked waiter by closing the current wake channel
// and installing a fresh one. No-op in lock-free mode, where consumers poll.
func (q *Queue[V]) broadcast() {
	if q.lockFree {
		return
	}
	q.mu.Lock()
	close(q.wake)
	q.wake = make(chan struct{})
	q.mu.Unlock()
}

func (q *Queue[V]) wakeChan() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.wake
}
