package engine

import (
	"fmt"
	"time"
)

// SnapshotReusedError is returned when advance is called on a snapshot
// that has already been advanced once (spec.md §7). It is a recoverable
// usage error: the program's state is unaffected.
type SnapshotReusedError struct{}

func (e *SnapshotReusedError) Error() string {
	return "snapshot has already been advanced once"
}

// InvalidStatementError reports a malformed sync statement — e.g. one
// that requests an event it also blocks (spec.md §7, §9 Open Questions).
type InvalidStatementError struct {
	BThread string
	Err     error
}

func (e *InvalidStatementError) Error() string {
	return fmt.Sprintf("b-thread %q published an invalid sync statement: %v", e.BThread, e.Err)
}

func (e *InvalidStatementError) Unwrap() error { return e.Err }

// BodyFailureError reports a b-thread body panicking instead of returning
// or calling Bsync (spec.md §7).
type BodyFailureError struct {
	BThread string
	Err     error
}

func (e *BodyFailureError) Error() string {
	return fmt.Sprintf("b-thread %q body failed: %v", e.BThread, e.Err)
}

func (e *BodyFailureError) Unwrap() error { return e.Err }

// BreakUponMisuseError reports a break-upon handler attempting to call
// Bsync, which is forbidden (spec.md §4.3, §7, §9).
type BreakUponMisuseError struct {
	BThread string
}

func (e *BreakUponMisuseError) Error() string {
	return fmt.Sprintf("b-thread %q attempted bsync from inside its break-upon handler", e.BThread)
}

// HostPredicateFailureError reports a host-supplied event-set predicate
// raising an error (spec.md §4.1, §7).
type HostPredicateFailureError struct {
	Err error
}

func (e *HostPredicateFailureError) Error() string {
	return fmt.Sprintf("event set predicate failed: %v", e.Err)
}

func (e *HostPredicateFailureError) Unwrap() error { return e.Err }

// CycleTimeoutError reports a cycle exceeding its configured wall-clock
// budget (spec.md §5, §7). B-threads that were still resuming when the
// budget expired are abandoned, not forcibly killed — the engine makes no
// real-time preemption guarantee (spec.md §1 Non-goals).
type CycleTimeoutError struct {
	Budget time.Duration
}

func (e *CycleTimeoutError) Error() string {
	return fmt.Sprintf("cycle exceeded its %s budget", e.Budget)
}

// DeadlockError reports that no event was selectable in a non-daemon
// program while b-threads remained live (spec.md §4.5, §7). This is a
// terminal exit reason, not a cycle-internal abort — the runner (C10)
// constructs it, the engine package only defines its shape.
type DeadlockError struct {
	Waiting []string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock: no selectable event, b-threads still waiting: %v", e.Waiting)
}
