package queue

import "github.com/notorious-go/concurrent/shardmap"

// entry is one queue slot: either a pushed value or a placeholder left by a
// timed-out consumer, deferring to the ticket it abandoned.
type entry[V any] struct {
	value       V
	deferTo     int64
	placeholder bool
}

// store is the narrow contract the queue needs from its associative
// collaborator: atomic single-key operations, no cross-key ordering. Set may
// fail, which poisons the queue. Tests substitute failing stores through
// this seam.
type store[V any] interface {
	Set(key int64, e entry[V]) error
	Get(key int64) (entry[V], bool)
	Delete(key int64)
}

// mapStore adapts shardmap.Map, whose operations cannot fail.
type mapStore[V any] struct {
	m *shardmap.Map[int64, entry[V]]
}

func newMapStore[V any](scaling int) mapStore[V] {
	return mapStore[V]{m: shardmap.New[int64, entry[V]](scaling)}
}

func (s mapStore[V]) Set(key int64, e entry[V]) error {
	s.m.Set(key, e)
	return nil
}

func (s mapStore[V]) Get(key int64) (entry[V], bool) { return s.m.Get(key) }

func (s mapStore[V]) Delete(key int64) { s.m.Delete(key) }
