package atomics_test

import (
	"sync"
	"testing"

	"github.com/notorious-go/concurrent/atomics"
)

func TestInt64Smoke(t *testing.T) {
	var i atomics.Int64
	if got := i.Load(); got != 0 {
		t.Fatalf("zero value Load() = %d, want 0", got)
	}
	i.Store(10)
	if got := i.Load(); got != 10 {
		t.Fatalf("Load() = %d, want 10", got)
	}
	if got := i.Swap(7); got != 10 {
		t.Errorf("Swap(7) = %d, want 10", got)
	}
	if got := i.Incr(); got != 8 {
		t.Errorf("Incr() = %d, want 8", got)
	}
	if got := i.Decr(); got != 7 {
		t.Errorf("Decr() = %d, want 7", got)
	}
	if got := i.Add(3); got != 10 {
		t.Errorf("Add(3) = %d, want 10", got)
	}
}

func TestInt64Or(t *testing.T) {
	var state atomics.Int64
	const (
		a int64 = 1 << iota
		b
		c
	)
	state.Or(a)
	state.Or(c)
	// Setting a bit twice must not clear anything.
	state.Or(a)
	if got := state.Load(); got != a|c {
		t.Fatalf("state = %b, want %b", got, a|c)
	}
	if got := state.Load() & b; got != 0 {
		t.Fatalf("bit b unexpectedly set")
	}
}

func TestInt64ConcurrentIncr(t *testing.T) {
	const (
		goroutines = 10
		each       = 1000
	)
	var (
		counter atomics.Int64
		wg      sync.WaitGroup
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				counter.Incr()
			}
		}()
	}
	wg.Wait()
	if got := counter.Load(); got != goroutines*each {
		t.Fatalf("counter = %d, want %d", got, goroutines*each)
	}
}

// TestInt64TicketsAreUnique drives the counter the way the queue does: each
// Incr must hand out a distinct ticket.
func TestInt64TicketsAreUnique(t *testing.T) {
	const (
		goroutines = 8
		each       = 500
	)
	var (
		counter atomics.Int64
		mu      sync.Mutex
		seen    = make(map[int64]bool)
		wg      sync.WaitGroup
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets := make([]int64, 0, each)
			for range each {
				tickets = append(tickets, counter.Incr())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, ticket := range tickets {
				if seen[ticket] {
					t.Errorf("ticket %d issued twice", ticket)
				}
				seen[ticket] = true
			}
		}()
	}
	wg.Wait()
	if len(seen) != goroutines*each {
		t.Fatalf("issued %d distinct tickets, want %d", len(seen), goroutines*each)
	}
}

// TestInt64CompareAndSwapCounter builds a counter purely from CAS retries.
// The final value equals the number of successful operations, proving one
// winner per attempted transition with no lost updates.
func TestInt64CompareAndSwapCounter(t *testing.T) {
	const (
		goroutines = 8
		each       = 1000
	)
	var (
		counter atomics.Int64
		wg      sync.WaitGroup
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				for {
					cur := counter.Load()
					if counter.CompareAndSwap(cur, cur+1) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()
	if got := counter.Load(); got != goroutines*each {
		t.Fatalf("counter = %d, want %d", got, goroutines*each)
	}
}

func TestFlag(t *testing.T) {
	var f atomics.Flag
	if f.Get() {
		t.Fatal("zero value Flag is set")
	}
	f.Set(true)
	if !f.Get() {
		t.Fatal("Set(true) not observed")
	}
	f.Set(false)
	if f.Get() {
		t.Fatal("Set(false) not observed")
	}
	if !atomics.NewFlag(true).Get() {
		t.Fatal("NewFlag(true) starts cleared")
	}
}
