// Package queuetest provides utilities for exercising queue implementations
// from many goroutines and asserting the properties that matter for FIFO
// correctness: that nothing is lost, nothing is duplicated, and per-producer
// order survives the trip through the queue.
//
// The helpers are deliberately queue-shape agnostic: anything with Push/Pop
// style operations can be driven through a Pool and verified with the
// multiset and order assertions.
package queuetest

import (
	"sync"
	"testing"
)

// A Pool runs tasks on a bounded set of goroutines, standing in for a crowd
// of producers or consumers. A limit of zero or less means one goroutine per
// task.
type Pool struct {
	wg  sync.WaitGroup
	sem chan struct{}
}

// NewPool creates a Pool running at most limit tasks concurrently.
func NewPool(limit int) *Pool {
	p := &Pool{}
	if limit > 0 {
		p.sem = make(chan struct{}, limit)
	}
	return p
}

// Go schedules fn on the pool, blocking while the pool is at its limit.
func (p *Pool) Go(fn func()) {
	if p.sem != nil {
		p.sem <- struct{}{}
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.sem != nil {
			defer func() { <-p.sem }()
		}
		fn()
	}()
}

// Wait blocks until every scheduled task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Multiset counts occurrences of each value.
func Multiset[V comparable](values []V) map[V]int {
	m := make(map[V]int, len(values))
	for _, v := range values {
		m[v]++
	}
	return m
}

// AssertSameMultiset fails the test unless got contains exactly the values
// of want, with multiplicity, in any order.
func AssertSameMultiset[V comparable](t *testing.T, want, got []V) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("got %d values, want %d", len(got), len(want))
	}
	wantSet, gotSet := Multiset(want), Multiset(got)
	for v, n := range wantSet {
		if gotSet[v] != n {
			t.Errorf("value %v: got %d occurrences, want %d", v, gotSet[v], n)
		}
	}
	for v := range gotSet {
		if _, ok := wantSet[v]; !ok {
			t.Errorf("unexpected value %v", v)
		}
	}
}

// AssertOrdered fails the test unless got equals want element for element:
// the single-producer/single-consumer FIFO property.
func AssertOrdered[V comparable](t *testing.T, want, got []V) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// Collector gathers values from many goroutines for later assertions.
type Collector[V any] struct {
	mu     sync.Mutex
	values []V
}

// Add appends value. Safe for concurrent use.
func (c *Collector[V]) Add(value V) {
	c.mu.Lock()
	c.values = append(c.values, value)
	c.mu.Unlock()
}

// Values returns everything collected so far.
func (c *Collector[V]) Values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]V(nil), c.values...)
}
