package atomics

import "sync/atomic"

// Int64 is an atomic 64-bit integer cell. The zero value holds 0 and is
// ready to use. All operations are lock-free and total: they never block and
// complete in a bounded number of steps.
type Int64 struct {
	v atomic.Int64
}

// Load returns the current value.
func (i *Int64) Load() int64 { return i.v.Load() }

// Store sets the value.
func (i *Int64) Store(value int64) { i.v.Store(value) }

// Swap stores value and returns the previous value.
func (i *Int64) Swap(value int64) int64 { return i.v.Swap(value) }

// CompareAndSwap stores value only if the cell currently holds old, and
// reports whether it did.
func (i *Int64) CompareAndSwap(old, value int64) bool { return i.v.CompareAndSwap(old, value) }

// Add atomically adds delta and returns the new value.
func (i *Int64) Add(delta int64) int64 { return i.v.Add(delta) }

// Incr atomically increments the value and returns the result. Used as a
// monotonic ticket source: each caller receives a unique, totally ordered
// value.
func (i *Int64) Incr() int64 { return i.v.Add(1) }

// Decr atomically decrements the value and returns the result.
func (i *Int64) Decr() int64 { return i.v.Add(-1) }

// Or atomically ORs mask into the value and returns the previous value.
// Bits set this way are never implicitly cleared, which makes Or the natural
// operation for monotonic state bitmasks.
func (i *Int64) Or(mask int64) int64 { return i.v.Or(mask) }
