// Package atomics provides the atomic cells that every other primitive in
// this module builds its flags and counters from: a 64-bit integer cell, a
// boolean flag, and two flavours of reference cell.
//
// # Why This Package Exists
//
// The standard sync/atomic types cover most of what is needed here, and the
// cells in this package stay thin over them. They earn their place in three
// ways:
//
//   - Int64.Incr and Int64.Decr return the new value, which is the exact
//     shape the ticket counters in the queue packages need (a unique, totally
//     ordered ticket per call, handed out by one atomic instruction).
//   - Flag gives boolean intent a name and a stable API instead of scattering
//     0/-1 integer conventions through the callers.
//   - Reference and Value pin down the two defensible meanings of
//     compare-and-swap on a reference cell, which sync/atomic leaves implicit.
//
// # Comparison Semantics
//
// Reference compares by identity: CompareAndSwap succeeds only when the cell
// holds the exact pointer passed as old. Two distinct pointers to equal data
// do not match. Value compares by equality: CompareAndSwap succeeds when the
// cell's current value == old, regardless of which write produced it. Both
// are lock-free; Value retries its internal publish only when another writer
// has succeeded in between, so every retry implies global progress.
//
// # Garbage Collection
//
// Reference cells hold ordinary Go pointers, so values that form reference
// cycles through a cell are reclaimed by the garbage collector exactly as
// they would be through any other container slot. No ownership discipline is
// required of callers.
//
// All operations on a single cell are sequentially consistent with respect to
// each other. No ordering is implied across distinct cells.
package atomics
