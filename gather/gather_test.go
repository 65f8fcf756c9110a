package gather

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/notorious-go/concurrent/shardmap"
)

func collect[V any](t *testing.T, g *Gatherer[V], maxKey int, clear bool) []V {
	t.Helper()
	var values []V
	for v, err := range g.Gather(maxKey, clear) {
		if err != nil {
			t.Fatalf("Gather: %v", err)
		}
		values = append(values, v)
	}
	return values
}

func TestInsertGather(t *testing.T) {
	g := New[string](0)
	for i, v := range []string{"a", "b", "c"} {
		if err := g.Insert(i, v); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	got := collect(t, g, 2, true)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOutOfOrderInserts(t *testing.T) {
	const n = 200
	g := New[int](0)

	keys := rand.Perm(n)
	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Insert(key, key*key); err != nil {
				t.Errorf("Insert(%d): %v", key, err)
			}
		}()
	}

	got := collect(t, g, n-1, true)
	wg.Wait()
	if len(got) != n {
		t.Fatalf("gathered %d values, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i*i {
			t.Errorf("key %d: got %d, want %d", i, v, i*i)
		}
	}
}

func TestGatherWaitsForLateKeys(t *testing.T) {
	g := New[int](0)

	// Key 1 first; the consumer must block on key 0 until it lands.
	if err := g.Insert(1, 11); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	go func() {
		time.Sleep(30 * time.Millisecond)
		if err := g.Insert(0, 10); err != nil {
			t.Errorf("Insert: %v", err)
		}
	}()

	start := time.Now()
	got := collect(t, g, 1, true)
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Gather returned after %v, before key 0 was inserted", elapsed)
	}
	if got[0] != 10 || got[1] != 11 {
		t.Errorf("Gather() = %v, want [10 11]", got)
	}
}

func TestClear(t *testing.T) {
	g := New[int](0)
	for i := range 3 {
		if err := g.Insert(i, i); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	// Without clear the values survive and can be gathered again.
	first := collect(t, g, 2, false)
	second := collect(t, g, 2, false)
	for i := range 3 {
		if first[i] != i || second[i] != i {
			t.Fatalf("repeat gather mismatch: first %v, second %v", first, second)
		}
	}

	// With clear the store is drained.
	collect(t, g, 2, true)
	if _, ok := g.store.Get(0); ok {
		t.Error("key 0 survived a clearing gather")
	}
}

func TestEarlyBreak(t *testing.T) {
	g := New[int](0)
	for i := range 5 {
		if err := g.Insert(i, i); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	var got []int
	for v, err := range g.Gather(4, true) {
		if err != nil {
			t.Fatalf("Gather: %v", err)
		}
		got = append(got, v)
		if len(got) == 2 {
			break
		}
	}
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("partial gather = %v, want [0 1]", got)
	}
	// Unvisited keys are untouched.
	if _, ok := g.store.Get(3); !ok {
		t.Error("key 3 was consumed by an abandoned iteration")
	}
}

func TestNegativeKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Insert(-1) did not panic")
		}
	}()
	New[int](0).Insert(-1, 0)
}

type failingStore[V any] struct {
	store[V]
	fail bool
}

var errInjected = errors.New("injected store failure")

func (s *failingStore[V]) Set(key int, value V) error {
	if s.fail {
		return errInjected
	}
	return s.store.Set(key, value)
}

func TestInsertFailurePoisons(t *testing.T) {
	fs := &failingStore[int]{store: mapStore[int]{m: shardmap.New[int, int](0)}}
	g := newGatherer[int](fs)

	if err := g.Insert(0, 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	fs.fail = true
	err := g.Insert(1, 1)
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("Insert with failing store: err = %v, want ErrFailed", err)
	}
	if !errors.Is(err, errInjected) {
		t.Errorf("Insert error does not wrap the store failure: %v", err)
	}
	if !g.Failed() {
		t.Error("Failed() = false after a store failure")
	}

	// Failure is permanent for inserts and iteration alike.
	fs.fail = false
	if err := g.Insert(2, 2); !errors.Is(err, ErrFailed) {
		t.Errorf("Insert on failed instance: err = %v, want ErrFailed", err)
	}
	for _, err := range g.Gather(0, true) {
		if !errors.Is(err, ErrFailed) {
			t.Errorf("Gather on failed instance: err = %v, want ErrFailed", err)
		}
	}
}

func TestFailureReleasesWaitingGather(t *testing.T) {
	fs := &failingStore[int]{store: mapStore[int]{m: shardmap.New[int, int](0)}}
	g := newGatherer[int](fs)

	errs := make(chan error, 1)
	go func() {
		for _, err := range g.Gather(0, true) {
			errs <- err
			return
		}
	}()
	time.Sleep(20 * time.Millisecond)

	fs.fail = true
	if err := g.Insert(0, 0); !errors.Is(err, ErrFailed) {
		t.Fatalf("Insert with failing store: err = %v, want ErrFailed", err)
	}

	select {
	case err := <-errs:
		if !errors.Is(err, ErrFailed) {
			t.Errorf("waiting Gather: err = %v, want ErrFailed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiting Gather was not released by the failure")
	}
}
