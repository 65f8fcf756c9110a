// Package rwlock provides a writer-preferring shared/exclusive lock with
// live introspection.
//
// # Fairness
//
// The policy is writer-preferring: a new read acquisition blocks while any
// writer is waiting or holding, even when readers currently hold the lock.
// This bounds writer starvation at the cost of reader latency under write
// pressure. Writers serialise among themselves; their order is not FIFO, but
// every waiting writer eventually acquires because new readers cannot slip
// in ahead of it.
//
// # Introspection
//
// Readers, WritersWaiting and WriterLocked read mirrored atomic counters and
// never take the lock, so they are safe to call from monitoring code at any
// time. The numbers are a best-effort snapshot: by the time the caller looks
// at them, the lock may have moved on.
//
// # Ownership
//
// Release calls are checked: UnlockRead from a goroutine holding no read
// lock, or UnlockWrite from a goroutine other than the writer, is caller
// misuse and panics. The scoped forms Read and Write pair the release with
// the acquisition on all exit paths including panics, which also guarantees
// the release happens exactly once.
package rwlock

import (
	"fmt"
	"sync"

	"github.com/notorious-go/concurrent/atomics"
	"github.com/notorious-go/concurrent/internal/goid"
)

// RWLock is a writer-preferring reader-writer lock. Use New to create one.
type RWLock struct {
	mu   sync.Mutex
	cond *sync.Cond

	// Mirrors of the guarded state, for lock-free introspection.
	readers        atomics.Int64
	writersWaiting atomics.Int64
	writerHeld     atomics.Flag

	// Ownership bookkeeping, guarded by mu. readerOwners counts read locks
	// per goroutine so that a goroutine may hold several.
	readerOwners map[int64]int
	writerOwner  int64
}

// New creates an RWLock.
func New() *RWLock {
	l := &RWLock{readerOwners: make(map[int64]int)}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// LockRead blocks until a shared lock is acquired. It blocks while any
// writer is waiting or holding, even when other readers are active.
func (l *RWLock) LockRead() {
	gid := goid.Get()
	l.mu.Lock()
	for l.writersWaiting.Load() > 0 || l.writerHeld.Get() {
		l.cond.Wait()
	}
	l.readers.Incr()
	l.readerOwners[gid]++
	l.mu.Unlock()
}

// UnlockRead releases a shared lock. It panics when the calling goroutine
// holds no read lock.
func (l *RWLock) UnlockRead() {
	gid := goid.Get()
	l.mu.Lock()
	if l.readerOwners[gid] == 0 {
		l.mu.Unlock()
		panic(fmt.Errorf("rwlock: read lock released by a goroutine which does not hold it"))
	}
	if l.readerOwners[gid]--; l.readerOwners[gid] == 0 {
		delete(l.readerOwners, gid)
	}
	l.readers.Decr()
	l.cond.Broadcast()
	l.mu.Unlock()
}

// LockWrite blocks until the exclusive lock is acquired: all current readers
// have released and no other writer holds it. While it waits, it counts in
// WritersWaiting and keeps new readers out.
func (l *RWLock) LockWrite() {
	gid := goid.Get()
	l.mu.Lock()
	l.writersWaiting.Incr()
	for l.readers.Load() > 0 || l.writerHeld.Get() {
		l.cond.Wait()
	}
	l.writersWaiting.Decr()
	l.writerHeld.Set(true)
	l.writerOwner = gid
	l.mu.Unlock()
}

// UnlockWrite releases the exclusive lock. It panics when the calling
// goroutine is not the writer.
func (l *RWLock) UnlockWrite() {
	gid := goid.Get()
	l.mu.Lock()
	if !l.writerHeld.Get() || l.writerOwner != gid {
		l.mu.Unlock()
		panic(fmt.Errorf("rwlock: write lock released by a goroutine which does not hold it"))
	}
	l.writerHeld.Set(false)
	l.writerOwner = 0
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Readers returns the number of goroutines currently holding read locks.
func (l *RWLock) Readers() int { return int(l.readers.Load()) }

// WritersWaiting returns the number of writers currently blocked in
// LockWrite.
func (l *RWLock) WritersWaiting() int { return int(l.writersWaiting.Load()) }

// WriterLocked reports whether the exclusive lock is held.
func (l *RWLock) WriterLocked() bool { return l.writerHeld.Get() }

// Read runs fn while holding a read lock, releasing it on every exit path.
func (l *RWLock) Read(fn func()) {
	l.LockRead()
	defer l.UnlockRead()
	fn()
}

// Write runs fn while holding the write lock, releasing it on every exit
// path.
func (l *RWLock) Write(fn func()) {
	l.LockWrite()
	defer l.UnlockWrite()
	fn()
}

// ReadLocker returns a sync.Locker view of the shared side of the lock, for
// APIs that want a Locker (condition variables, guards).
func (l *RWLock) ReadLocker() sync.Locker { return readLocker{l} }

// WriteLocker returns a sync.Locker view of the exclusive side of the lock.
func (l *RWLock) WriteLocker() sync.Locker { return writeLocker{l} }

type readLocker struct{ l *RWLock }

func (r readLocker) Lock()   { r.l.LockRead() }
func (r readLocker) Unlock() { r.l.UnlockRead() }

type writeLocker struct{ l *RWLock }

func (w writeLocker) Lock()   { w.l.LockWrite() }
func (w writeLocker) Unlock() { w.l.UnlockWrite() }
