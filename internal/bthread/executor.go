package bthread

import "github.com/corewing/bp/internal/syncstmt"

// Start is the executor (spec.md §4.3/§4.4 step 5, component C5): it
// spawns body and runs it to its first suspension or to termination.
//
// This is the single operation the arbiter performs for every b-thread at
// program start, and again for every b-thread newly registered during a
// cycle's drain step — the teacher's engine.go keeps one handler function
// per event kind for the same reason: one code path, reused everywhere
// the semantics are identical.
//
// ok is false if the body returned (or panicked) before ever calling
// Bsync; err is non-nil only on panic or on the first statement failing
// validation, never on a body that simply returns immediately.
func Start(name string, body syncstmt.BodyFunc, host syncstmt.BreakCtx) (snap Snapshot, ok bool, err error) {
	scope := NewScope()
	h := Spawn(name, body, host)

	stmt, alive := h.NextStatement()
	if !alive {
		return Snapshot{Name: name, Scope: scope}, false, h.Err()
	}
	if err := stmt.Validate(); err != nil {
		return Snapshot{Name: name, Scope: scope}, false, err
	}

	return Snapshot{Name: name, Statement: stmt, Scope: scope, handle: h}, true, nil
}
