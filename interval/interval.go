// Package interval provides a mutex with an explicit cooperative-yield
// protocol bounding how long one goroutine may monopolise it.
//
// # Why This Package Exists
//
// A goroutine performing a long, lock-held computation can starve waiters
// when it never reaches a natural release point. Preemption helps the
// scheduler, but it does not release locks. An interval lock makes the
// trade explicit: the holder sprinkles Poll calls through its loop, and once
// the configured interval has elapsed, Poll performs a full
// release-and-reacquire cycle, giving any waiter a chance to win the lock.
// Cede does the same unconditionally. Between yield points the holder keeps
// ordinary exclusive ownership, so its logical critical section is undisturbed.
//
// # Ownership
//
// The lock is not reentrant and tracks its owner. Locking twice from the same
// goroutine, or unlocking (or polling, or ceding) from a goroutine that does
// not hold the lock, is caller misuse and panics.
//
// # Hand-off
//
// A goroutine releasing the lock is remembered as its previous owner. While
// other goroutines are waiting, the previous owner cannot immediately
// re-acquire: this closes the race where the release signal has fired but
// the waiters have not woken yet, in which the releasing goroutine would
// otherwise win every cycle and the cede protocol would yield to nobody.
package interval

import (
	"fmt"
	"sync"
	"time"

	"github.com/notorious-go/concurrent/atomics"
	"github.com/notorious-go/concurrent/internal/goid"
)

// DefaultInterval is used by New when no positive interval is given.
const DefaultInterval = 5 * time.Millisecond

// Lock is a cooperative-fairness mutex. Use New to create one.
type Lock struct {
	interval time.Duration

	mu   sync.Mutex
	cond *sync.Cond

	held atomics.Flag // mirrored for Locked; transitions happen under mu

	owner      int64 // goroutine holding the lock, 0 when unheld
	prevOwner  int64 // goroutine that released it last
	waiters    int
	acquiredAt time.Time // start of the current yield interval
}

// New creates a Lock that considers the holder overdue after the given
// interval. Zero or negative selects DefaultInterval.
func New(interval time.Duration) *Lock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l := &Lock{interval: interval}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Lock blocks until the lock is acquired. It panics when the calling
// goroutine already holds the lock, since waiting would deadlock.
func (l *Lock) Lock() {
	gid := goid.Get()
	l.mu.Lock()
	if l.owner == gid {
		l.mu.Unlock()
		panic(fmt.Errorf("interval: lock already held by this goroutine"))
	}
	// While others are waiting, the goroutine that last released the lock
	// yields its turn to them (see the package comment on hand-off).
	for l.held.Get() || (l.waiters > 0 && l.prevOwner == gid) {
		l.prevOwner = 0
		l.waiters++
		l.cond.Wait()
		l.waiters--
	}
	l.held.Set(true)
	l.owner = gid
	l.acquiredAt = time.Now()
	l.mu.Unlock()
}

// Unlock releases the lock. It panics when the calling goroutine does not
// hold it.
func (l *Lock) Unlock() {
	gid := goid.Get()
	l.mu.Lock()
	if l.owner != gid {
		l.mu.Unlock()
		panic(fmt.Errorf("interval: lock released by a goroutine which does not own it"))
	}
	l.held.Set(false)
	l.owner = 0
	l.prevOwner = gid
	l.cond.Signal()
	l.mu.Unlock()
}

// Cede performs an unconditional release-and-reacquire cycle, allowing a
// waiter to take the lock, and resets the yield interval. It panics when the
// calling goroutine does not hold the lock.
func (l *Lock) Cede() {
	l.Unlock()
	l.Lock()
}

// Poll cedes the lock if it has been held for longer than the configured
// interval since the last acquire or yield, and is otherwise a no-op. It
// panics when the calling goroutine does not hold the lock.
//
// Holders are expected to call Poll at convenient checkpoints inside long
// computations; it is cheap when the interval has not elapsed.
func (l *Lock) Poll() {
	gid := goid.Get()
	l.mu.Lock()
	if l.owner != gid {
		l.mu.Unlock()
		panic(fmt.Errorf("interval: lock polled by a goroutine which does not own it"))
	}
	elapsed := time.Since(l.acquiredAt)
	l.mu.Unlock()
	// A clock step could make elapsed negative; ceding early is safer than
	// holding past the interval.
	if elapsed > l.interval || elapsed < 0 {
		l.Cede()
	}
}

// Locked reports whether the lock is currently held. The answer is a
// best-effort snapshot and may be stale by the time the caller acts on it.
func (l *Lock) Locked() bool { return l.held.Get() }

// Do runs fn while holding the lock, releasing it on every exit path
// including panics. fn may call Poll and Cede on the same lock.
func (l *Lock) Do(fn func()) {
	l.Lock()
	defer l.Unlock()
	fn()
}
