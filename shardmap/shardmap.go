// Package shardmap provides the thread-safe associative store the queue and
// gather packages are built on: a hash map split into independently locked
// shards so that operations on different keys rarely contend.
//
// The contract is deliberately narrow. Each individual operation is atomic,
// but there is no ordering guarantee across distinct keys, and Snapshot is a
// point-in-time copy only shard by shard. Callers that need cross-key
// ordering must build it themselves (the queue does so with ticket counters).
package shardmap

import (
	"hash/maphash"
	"runtime"
	"sync"

	"github.com/notorious-go/concurrent/atomics"
)

// Map is a sharded hash map safe for concurrent use by any number of
// goroutines. Keys may be any comparable type; hashing is delegated to
// hash/maphash so callers do not supply their own hash function.
type Map[K comparable, V any] struct {
	seed   maphash.Seed
	shards []shard[K, V]
	mask   uint64
	size   atomics.Int64
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates a Map sized for the given concurrency hint: the expected
// number of goroutines accessing the map at once. The hint is rounded up to
// a power of two shards; zero or negative selects a default based on
// runtime.GOMAXPROCS.
func New[K comparable, V any](scaling int) *Map[K, V] {
	if scaling < 1 {
		scaling = runtime.GOMAXPROCS(0)
	}
	// Oversharding is cheap and keeps collisions rare when the hint is low.
	n := ceilPow2(4 * scaling)
	m := &Map[K, V]{
		seed:   maphash.MakeSeed(),
		shards: make([]shard[K, V], n),
		mask:   uint64(n - 1),
	}
	for i := range m.shards {
		m.shards[i].items = make(map[K]V)
	}
	return m
}

func ceilPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return &m.shards[maphash.Comparable(m.seed, key)&m.mask]
}

// Get returns the value stored under key and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	s := m.shardFor(key)
	s.mu.Lock()
	if _, exists := s.items[key]; !exists {
		m.size.Incr()
	}
	s.items[key] = value
	s.mu.Unlock()
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; !exists {
		return false
	}
	delete(s.items, key)
	m.size.Decr()
	return true
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[key]
	return ok
}

// Len returns the number of stored entries. Exact when the map is quiescent,
// best-effort under concurrent mutation.
func (m *Map[K, V]) Len() int { return int(m.size.Load()) }

// Snapshot returns a copy of the map's contents. Each shard is copied
// atomically, but the shards are visited one after another, so entries
// mutated concurrently in different shards may be captured at different
// moments.
func (m *Map[K, V]) Snapshot() map[K]V {
	out := make(map[K]V, m.Len())
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k, v := range s.items {
			out[k] = v
		}
		s.mu.RUnlock()
	}
	return out
}
