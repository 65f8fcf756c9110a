package atomics

import "sync/atomic"

// Value is an atomic cell holding a value of comparable type T, with equality
// comparison semantics: CompareAndSwap matches whenever the current value is
// equal to old, regardless of which write produced it. The zero value of the
// cell holds the zero value of T.
//
// Values are published through an internal pointer, so a Load observes either
// a complete previous write or a complete later one, never a torn mix.
type Value[T comparable] struct {
	p atomic.Pointer[T]
}

// Load returns the current value.
func (v *Value[T]) Load() T {
	if p := v.p.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}

// Store replaces the current value.
func (v *Value[T]) Store(value T) { v.p.Store(&value) }

// Swap stores value and returns the previous value.
func (v *Value[T]) Swap(value T) T {
	old := v.p.Swap(&value)
	if old != nil {
		return *old
	}
	var zero T
	return zero
}

// CompareAndSwap stores value only if the current value equals old, and
// reports whether it did.
//
// The internal publish is retried when another writer races in between, but
// every retry first re-checks equality against old, so the loop either
// succeeds, or returns false because the value moved away from old. A retry
// can only happen because some other operation completed, which keeps the
// cell lock-free.
func (v *Value[T]) CompareAndSwap(old, value T) bool {
	next := &value
	for {
		cur := v.p.Load()
		var have T
		if cur != nil {
			have = *cur
		}
		if have != old {
			return false
		}
		if v.p.CompareAndSwap(cur, next) {
			return true
		}
	}
}
