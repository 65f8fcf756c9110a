// Package goid identifies the calling goroutine so that lock implementations
// can detect reentrant locking and cross-goroutine unlocking.
//
// The ID is extracted by parsing the header line of the goroutine's own stack
// trace ("goroutine 123 [running]:"). This is the portable slow path; it costs
// on the order of a microsecond, which is acceptable because it only runs on
// lock and unlock boundaries, never inside wait loops.
package goid

import "runtime"

// Get returns the ID of the calling goroutine. IDs are positive and unique
// for the lifetime of the goroutine.
func Get() int64 {
	// The header line fits comfortably in 64 bytes:
	// "goroutine 123 [running]:\n..."
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

const header = "goroutine "

// parse extracts the numeric ID from a stack trace header. It returns 0 if
// the buffer does not look like a stack trace, which callers treat as "no
// owner" and can therefore never mistake for a real goroutine.
func parse(buf []byte) int64 {
	if len(buf) < len(header) || string(buf[:len(header)]) != header {
		return 0
	}
	var id int64
	for _, c := range buf[len(header):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
