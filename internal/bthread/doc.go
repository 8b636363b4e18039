// Package bthread implements the suspended b-thread (spec.md §4.3,
// component C4) and its executor (component C5).
//
// Following design option (b) of spec.md §9, every b-thread body runs on
// its own goroutine. Bsync is a channel handshake with the goroutine that
// owns it: the body sends its Statement, then blocks receiving the event
// the arbiter chose. The goroutine blocked in that second receive IS the
// continuation — Go's scheduler preserves the body's local state for free,
// the same trick the teacher's eventQueue uses a channel for readiness
// rather than polling (internal/engine/queue.go).
package bthread
