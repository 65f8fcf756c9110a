// Package gather reorders out-of-order concurrent inserts into a key-ordered
// stream. Producers insert values under explicit integer keys from any
// goroutine; the consumer iterates the keys 0 through a chosen maximum in
// order, waiting for each key to arrive before yielding it.
//
// It is the keyed sibling of the ticket queue: instead of an internal
// counter handing out tickets, the caller names the slot each value fills,
// and consumption is bounded by an explicit maximum key rather than
// open-ended.
package gather

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/notorious-go/concurrent/atomics"
	"github.com/notorious-go/concurrent/shardmap"
)

// ErrFailed reports that an insert failed at the backing store. The failure
// is permanent: every subsequent insert and iteration on the instance
// observes it.
var ErrFailed = errors.New("gather: failed by an internal storage error")

// pollInterval bounds each wait so a missed wakeup costs at most one poll.
const pollInterval = 10 * time.Millisecond

// store is the associative collaborator holding values between insert and
// gather. Tests substitute failing stores through this seam.
type store[V any] interface {
	Set(key int, value V) error
	Get(key int) (V, bool)
	Delete(key int)
}

type mapStore[V any] struct {
	m *shardmap.Map[int, V]
}

func (s mapStore[V]) Set(key int, value V) error {
	s.m.Set(key, value)
	return nil
}

func (s mapStore[V]) Get(key int) (V, bool) { return s.m.Get(key) }

func (s mapStore[V]) Delete(key int) { s.m.Delete(key) }

// A Gatherer collects keyed values from concurrent producers and replays
// them in key order. The zero value is not usable; construct with New.
type Gatherer[V any] struct {
	store  store[V]
	failed atomics.Flag

	mu   sync.Mutex
	wake chan struct{}
}

// New creates a Gatherer. scaling hints at the expected number of
// concurrently inserting goroutines; zero or less picks a sensible default.
func New[V any](scaling int) *Gatherer[V] {
	return newGatherer[V](mapStore[V]{m: shardmap.New[int, V](scaling)})
}

func newGatherer[V any](s store[V]) *Gatherer[V] {
	return &Gatherer[V]{
		store: s,
		wake:  make(chan struct{}),
	}
}

// Insert stores value under key and wakes any consumer waiting for it.
// Inserting the same key twice overwrites; the consumer sees whichever
// write it reads. A store failure marks the whole instance failed.
func (g *Gatherer[V]) Insert(key int, value V) error {
	if key < 0 {
		panic(fmt.Errorf("gather: negative key %d", key))
	}
	if g.failed.Get() {
		return ErrFailed
	}
	err := g.store.Set(key, value)
	if err != nil {
		g.failed.Set(true)
	}
	g.broadcast()
	if err != nil {
		return fmt.Errorf("%w: store set: %w", ErrFailed, err)
	}
	return nil
}

// Gather returns an iterator over the values at keys 0 through maxKey in
// key order, blocking at each key until its value has been inserted. With
// clear, each value is deleted from the store as it is yielded, so the
// sequence is consumed destructively and cannot be replayed.
//
// The yielded error is non-nil only when the instance has failed, in which
// case it wraps ErrFailed and the iteration stops.
func (g *Gatherer[V]) Gather(maxKey int, clear bool) iter.Seq2[V, error] {
	return func(yield func(V, error) bool) {
		for key := 0; key <= maxKey; key++ {
			value, err := g.next(key, clear)
			if err != nil {
				var zero V
				yield(zero, err)
				return
			}
			if !yield(value, nil) {
				return
			}
		}
	}
}

// next waits for key to appear, then reads (and with clear, deletes) it.
func (g *Gatherer[V]) next(key int, clear bool) (V, error) {
	for {
		if g.failed.Get() {
			var zero V
			return zero, fmt.Errorf("%w: while gathering key %d", ErrFailed, key)
		}
		// Capture the wake channel before probing so an insert landing
		// between the probe and the wait still wakes us.
		wake := g.wakeChan()
		if value, ok := g.store.Get(key); ok {
			if clear {
				g.store.Delete(key)
			}
			return value, nil
		}
		timer := time.NewTimer(pollInterval)
		select {
		case <-wake:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// Failed reports whether the instance has been marked failed.
func (g *Gatherer[V]) Failed() bool { return g.failed.Get() }

func (g *Gatherer[V]) broadcast() {
	g.mu.Lock()
	close(g.wake)
	g.wake = make(chan struct{})
	g.mu.Unlock()
}

func (g *Gatherer[V]) wakeChan() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.wake
}
