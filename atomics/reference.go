package atomics

import "sync/atomic"

// Reference is an atomic cell holding a pointer to T, with identity
// comparison semantics: CompareAndSwap matches only the exact pointer
// currently stored. The zero value holds nil.
//
// Use Reference when "the same object" matters; use Value when "an equal
// value" is the right question.
type Reference[T any] struct {
	p atomic.Pointer[T]
}

// Load returns the stored pointer, which may be nil.
func (r *Reference[T]) Load() *T { return r.p.Load() }

// Store replaces the stored pointer.
func (r *Reference[T]) Store(value *T) { r.p.Store(value) }

// Swap stores value and returns the previous pointer.
func (r *Reference[T]) Swap(value *T) *T { return r.p.Swap(value) }

// CompareAndSwap stores value only if the cell currently holds exactly old
// (pointer identity), and reports whether it did.
func (r *Reference[T]) CompareAndSwap(old, value *T) bool { return r.p.CompareAndSwap(old, value) }
