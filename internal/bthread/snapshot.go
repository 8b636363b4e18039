package bthread

import (
	"github.com/corewing/bp/internal/ir"
	"github.com/corewing/bp/internal/syncstmt"
)

// Snapshot is a suspended b-thread (spec.md §3, component C4): its
// identity, its most recently published sync statement, and its private
// scope. It does not itself hold the goroutine driving the b-thread —
// Handle does — so a Snapshot is a plain value that can be copied,
// compared, and embedded in a program snapshot without duplicating
// runtime state. Resuming it is the only operation that can change what
// it refers to, and that always produces a new Snapshot (see Resume).
type Snapshot struct {
	Name      string
	Statement syncstmt.Statement
	Scope     *Scope

	handle *Handle
}

// Alive reports whether the b-thread is still suspended somewhere,
// waiting to be resumed or interrupted. A Snapshot with Alive() == false
// is a historical record only — e.g. one a listener observed just before
// termination — and must never be passed to Resume or Interrupt.
func (s Snapshot) Alive() bool {
	return s.handle != nil
}

// Resume delivers e to the suspended b-thread and returns either its next
// Snapshot (ok == true) or reports that it terminated (ok == false). err
// is non-nil only when the b-thread's continuation itself failed (a panic
// or a validation failure in its newly published statement); termination
// via a body simply returning is not an error.
func (s Snapshot) Resume(selected ir.Event) (next Snapshot, ok bool, err error) {
	stmt, alive := s.handle.Resume(selected)
	if !alive {
		return Snapshot{Name: s.Name, Scope: s.Scope}, false, s.handle.Err()
	}
	if err := stmt.Validate(); err != nil {
		return Snapshot{Name: s.Name, Scope: s.Scope}, false, err
	}
	return Snapshot{Name: s.Name, Statement: stmt, Scope: s.Scope, handle: s.handle}, true, nil
}

// Interrupt kills the b-thread's continuation without resuming it
// normally — the break-upon path (spec.md §4.4 step 2).
func (s Snapshot) Interrupt() {
	s.handle.Interrupt()
}

// Hash returns a stable, approximate identity for the snapshot, combining
// its name with its statement's structural fingerprint (see
// syncstmt.Statement.Hash). Intended as one of the per-b-thread hashes fed
// to ir.SnapshotHash by the engine, not as a cryptographic primitive in
// its own right.
func (s Snapshot) Hash() (string, error) {
	stmtHash, err := s.Statement.Hash()
	if err != nil {
		return "", err
	}
	return s.Name + ":" + stmtHash, nil
}
