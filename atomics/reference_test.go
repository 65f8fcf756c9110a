package atomics_test

import (
	"sync"
	"testing"

	"github.com/notorious-go/concurrent/atomics"
)

func TestReferenceIdentitySemantics(t *testing.T) {
	var cell atomics.Reference[string]

	a := new(string)
	b := new(string)
	*a, *b = "same", "same"

	cell.Store(a)
	// Equal contents, different identity: must not match.
	if cell.CompareAndSwap(b, new(string)) {
		t.Fatal("CompareAndSwap matched a distinct pointer with equal contents")
	}
	if got := cell.Load(); got != a {
		t.Fatal("failed CompareAndSwap changed the cell")
	}
	// The stored pointer itself: must match.
	if !cell.CompareAndSwap(a, b) {
		t.Fatal("CompareAndSwap rejected the stored pointer")
	}
	if got := cell.Load(); got != b {
		t.Fatal("successful CompareAndSwap did not store the new pointer")
	}
}

func TestReferenceSwap(t *testing.T) {
	var cell atomics.Reference[int]
	first := new(int)
	if got := cell.Swap(first); got != nil {
		t.Fatalf("Swap on empty cell returned %v, want nil", got)
	}
	second := new(int)
	if got := cell.Swap(second); got != first {
		t.Fatal("Swap did not return the previous pointer")
	}
}

// TestReferenceCycles stores values that refer back to their own cell. The
// garbage collector reclaims such cycles without help, so this test only has
// to show the cell keeps working while cycles pass through it.
func TestReferenceCycles(t *testing.T) {
	type node struct {
		cell atomics.Reference[node]
		id   int
	}
	a := &node{id: 1}
	b := &node{id: 2}
	a.cell.Store(b)
	b.cell.Store(a)

	if got := a.cell.Load(); got.id != 2 {
		t.Fatalf("a points at node %d, want 2", got.id)
	}
	if !a.cell.CompareAndSwap(b, a) {
		t.Fatal("CompareAndSwap rejected the stored pointer")
	}
	if got := a.cell.Load(); got != a {
		t.Fatal("self-reference not stored")
	}
}

func TestValueEqualitySemantics(t *testing.T) {
	var cell atomics.Value[string]

	if got := cell.Load(); got != "" {
		t.Fatalf("zero value Load() = %q, want empty string", got)
	}
	cell.Store("same")
	// Equal value from an unrelated write: must match.
	if !cell.CompareAndSwap("same", "next") {
		t.Fatal("CompareAndSwap rejected an equal value")
	}
	// Stale expectation: must not match, and must not disturb the cell.
	if cell.CompareAndSwap("same", "clobbered") {
		t.Fatal("CompareAndSwap matched a stale value")
	}
	if got := cell.Load(); got != "next" {
		t.Fatalf("cell = %q, want %q", got, "next")
	}
	if got := cell.Swap("last"); got != "next" {
		t.Fatalf("Swap returned %q, want %q", got, "next")
	}
}

// TestValueCompareAndSwapNoLostUpdates runs a CAS-retry counter over Value:
// the final count equals the number of successful operations.
func TestValueCompareAndSwapNoLostUpdates(t *testing.T) {
	const (
		goroutines = 8
		each       = 500
	)
	var (
		cell atomics.Value[int]
		wg   sync.WaitGroup
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				for {
					cur := cell.Load()
					if cell.CompareAndSwap(cur, cur+1) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()
	if got := cell.Load(); got != goroutines*each {
		t.Fatalf("cell = %d, want %d", got, goroutines*each)
	}
}
