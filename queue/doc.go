// Package queue provides a FIFO multi-producer multi-consumer queue whose
// ordering does not depend on which goroutine happens to run first: it is
// exact across any number of producers and consumers.
//
// # Tickets
//
// The queue is built from two monotonic counters and a sharded associative
// store. Every push atomically takes the next input ticket and writes its
// value under that key; every pop atomically takes the next output ticket
// and retrieves the value under that key. The crucial choice is that a pop
// reserves its ticket before the matching value is known to exist. Consumers
// therefore drain in strict ticket order, never skipping or reordering,
// regardless of which consumer goroutine ends up holding which ticket.
//
// # Timeouts and Placeholders
//
// A reserved ticket cannot simply be abandoned on timeout: a slower producer
// may later push exactly the value that ticket was waiting for. A consumer
// that gives up instead pushes a placeholder through the ordinary push path.
// The placeholder occupies a fresh input ticket and records the abandoned
// ticket it defers to. Whichever consumer later drains the placeholder's slot
// resolves the abandoned ticket with its remaining patience, so the orphaned
// value is adopted rather than lost. Chains of timeouts produce chains of
// placeholders, resolved recursively; the recursion depth is unbounded by
// design, on the theory that a timeout storm deep enough to matter indicates
// an overloaded queue.
//
// # Operating Modes
//
// In the default blocking mode, waiting consumers park on a broadcast
// channel that every push renews, with a short re-check interval as a safety
// net against lost wakeups. In lock-free mode consumers never park: they
// yield to the scheduler for the first 50ms of a wait and then sleep in
// small fixed steps. Lock-free mode trades CPU for latency and avoids any
// interaction with the queue's internal mutex.
//
// # Shutdown and Failure
//
// Shutdown is monotonic. A graceful Shutdown(false) rejects new pushes but
// lets queued values drain; Shutdown(true) additionally rejects pops. If the
// backing store ever fails an operation, the queue sets a permanent failure
// flag and every subsequent or currently waiting operation returns an error
// wrapping ErrPoisoned: one corruption taints the instance for good.
//
// StdQueue layers the classic put/get vocabulary, a capacity bound and
// task-completion accounting over the same ticket machinery.
package queue
