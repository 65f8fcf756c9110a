// Package dispenser amortises lock overhead over many values: a single
// source function is called in batches under exclusion, and the produced
// values are then served to any number of goroutines without synchronisation
// until the batch runs out.
//
// The refill is single-flight. When several goroutines observe an exhausted
// batch at once, exactly one of them calls the source; the rest block on the
// refill lock and then drain the fresh batch through the lock-free fast path.
// Which blocked caller gets which value is unspecified, but no value is ever
// duplicated or skipped.
package dispenser

import (
	"errors"
	"fmt"
	"sync"

	"github.com/notorious-go/concurrent/atomics"
)

// ErrInvalidSize is returned by New when the batch size is less than 1.
var ErrInvalidSize = errors.New("dispenser: batch size must be at least 1")

// batch is an immutable run of produced values plus the cursor of the next
// value to hand out. Once published, values is never written again, so the
// fast path may index it without a lock.
type batch[T any] struct {
	values []T
	next   atomics.Int64
}

// Dispenser serves values produced by a source function, size values per
// refill. It is safe for concurrent use by any number of goroutines.
type Dispenser[T any] struct {
	source func() (T, error)
	size   int

	mu  sync.Mutex // serialises refills
	cur atomics.Reference[batch[T]]
}

// New creates a Dispenser around source with the given batch size. It
// returns ErrInvalidSize when size < 1 and panics on a nil source, which is
// caller misuse rather than a runtime condition.
func New[T any](source func() (T, error), size int) (*Dispenser[T], error) {
	if source == nil {
		panic(fmt.Errorf("dispenser: source must not be nil"))
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	d := &Dispenser[T]{source: source, size: size}
	// Start with an exhausted batch so the first Load triggers a refill.
	d.cur.Store(&batch[T]{})
	return d, nil
}

// Load returns the next value, refilling from the source when the current
// batch is exhausted.
//
// An error from the source propagates to the caller whose Load performed the
// refill. Values produced before the error are kept and served by later
// calls, so a failing source loses nothing: the dispenser stays usable and
// the next exhaustion simply retries the source.
func (d *Dispenser[T]) Load() (T, error) {
	var zero T
	for {
		cur := d.cur.Load()
		if i := cur.next.Incr() - 1; i < int64(len(cur.values)) {
			return cur.values[i], nil
		}

		d.mu.Lock()
		if d.cur.Load() != cur {
			// Another goroutine refilled while we waited for the lock;
			// go back to the fast path against the new batch.
			d.mu.Unlock()
			continue
		}
		values := make([]T, 0, d.size)
		var err error
		for range d.size {
			var v T
			if v, err = d.source(); err != nil {
				break
			}
			values = append(values, v)
		}
		d.cur.Store(&batch[T]{values: values})
		d.mu.Unlock()

		if err != nil {
			return zero, err
		}
	}
}
