// Package spin holds the shared wait policies used by the lock-free queue
// mode and the bounded slot-read retry loop.
//
// Two regimes are deliberately distinct. Backoff paces a wait whose length is
// unknown (a consumer ahead of its producer): it stays on the scheduler for a
// short grace period and then degrades to fixed sleeps so a stalled producer
// does not burn a core. Retry paces a wait that is expected to be nearly
// instant (a value whose ticket is already published but whose write has not
// landed yet): it spins hard first and only then starts sleeping, with jitter
// so that colliding waiters do not wake in lockstep.
package spin

import (
	"runtime"
	"time"

	"github.com/valyala/fastrand"
)

const (
	// yieldPhase bounds how long Backoff yields before it starts sleeping.
	yieldPhase = 50 * time.Millisecond
	sleepStep  = time.Millisecond

	// FastRetries is the number of Retry attempts served by pure yields.
	FastRetries = 95
	retryStep   = 500 * time.Microsecond
)

// Backoff performs one iteration of the spin/backoff wait: a zero-duration
// yield while less than 50ms has elapsed since start, a fixed short sleep
// afterwards.
func Backoff(start time.Time) {
	if time.Since(start) < yieldPhase {
		runtime.Gosched()
		return
	}
	time.Sleep(sleepStep)
}

// Retry performs the attempt-th iteration of a bounded retry loop: pure
// yields for the first FastRetries attempts, then short jittered sleeps.
func Retry(attempt int) {
	if attempt < FastRetries {
		runtime.Gosched()
		return
	}
	time.Sleep(retryStep + time.Duration(fastrand.Uint32n(uint32(retryStep))))
}
