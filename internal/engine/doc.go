// Package engine implements the per-cycle synchronization algorithm:
// the external-event queue (spec.md §3, component C6), the immutable
// program snapshot (component C7), the event-selection strategies
// (component C8), and the cycle arbiter that orchestrates one super-step
// (component C9).
//
// ARCHITECTURE:
//
// Single-writer cycle boundary:
// Exactly one goroutine drives Arbiter.Start/Advance at a time per
// program. Within one call, independent b-thread resumes fan out across
// a worker pool (golang.org/x/sync/errgroup), but the cycle boundary
// itself is a strict barrier: Advance does not return until every
// resumed, interrupted, and newly-registered b-thread has reached its
// next suspension. This mirrors the teacher's single-writer event loop
// (internal/engine/engine.go) at the level of one cycle rather than one
// process lifetime.
//
// Mutable shared state during a cycle:
// Only the external queue and the pending-registration list are mutable
// during a cycle (spec.md §5); both live on Program, are append-only
// while a cycle runs, and are drained atomically when the cycle
// completes. Everything else — the live b-thread set — is owned by the
// snapshot that contains it.
package engine
