package bthread

import (
	"errors"
	"fmt"
	"sync"

	"github.com/corewing/bp/internal/ir"
	"github.com/corewing/bp/internal/syncstmt"
)

// ErrInterrupted is returned to a body's pending Bsync call when the
// b-thread is killed (via Handle.Interrupt) instead of being resumed.
// Interrupt then waits for the body to return; Handle.Err does not report
// ErrInterrupted, since an interrupted body counts as returning normally.
var ErrInterrupted = errors.New("bthread: interrupted before resuming")

// BodyPanicError records a b-thread body panicking instead of returning or
// calling Bsync. The engine wraps this into a BodyFailure (spec.md §7).
type BodyPanicError struct {
	BThread string
	Value   any
}

func (e *BodyPanicError) Error() string {
	return fmt.Sprintf("b-thread %q body panicked: %v", e.BThread, e.Value)
}

type resumeSignal struct {
	event ir.Event
}

// Handle is the engine's view of a running b-thread's continuation: the
// channel pair used to hand statements and events back and forth with the
// goroutine actually executing the body.
//
// A Handle is driven by exactly one goroutine at a time (the arbiter's
// single-writer loop, or a worker it delegates to for the duration of one
// resume) — spec.md §5's re-entrancy-safety requirement.
type Handle struct {
	Name string

	statementCh chan syncstmt.Statement
	resumeCh    chan resumeSignal
	done        chan struct{}
	killCh      chan struct{}
	killOnce    sync.Once

	mu  sync.Mutex
	err error
}

// Spawn starts body on a new goroutine, wired to host for every
// capability except Bsync, which Spawn itself implements via the returned
// Handle. The body runs until its first Bsync call or until it returns.
func Spawn(name string, body syncstmt.BodyFunc, host syncstmt.BreakCtx) *Handle {
	h := &Handle{
		Name:        name,
		statementCh: make(chan syncstmt.Statement),
		resumeCh:    make(chan resumeSignal),
		done:        make(chan struct{}),
		killCh:      make(chan struct{}),
	}

	go h.run(body, &liveCtx{BreakCtx: host, handle: h})

	return h
}

func (h *Handle) run(body syncstmt.BodyFunc, c syncstmt.Ctx) {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			h.mu.Lock()
			h.err = &BodyPanicError{BThread: h.Name, Value: r}
			h.mu.Unlock()
		}
	}()
	body(c)
}

// bsync is the handshake a liveCtx's Bsync delegates to: publish stmt,
// then block for the arbiter's chosen event.
func (h *Handle) bsync(stmt syncstmt.Statement) (ir.Event, error) {
	if err := stmt.Validate(); err != nil {
		// Record the failure so Start/Resume report it once the body stops.
		h.mu.Lock()
		if h.err == nil {
			h.err = err
		}
		h.mu.Unlock()
		return ir.Event{}, err
	}

	select {
	case h.statementCh <- stmt:
	case <-h.killCh:
		return ir.Event{}, ErrInterrupted
	}

	select {
	case sig := <-h.resumeCh:
		return sig.event, nil
	case <-h.killCh:
		return ir.Event{}, ErrInterrupted
	}
}

// NextStatement blocks until the b-thread either publishes its next
// statement or terminates (body returned or panicked). The second return
// value is false on termination.
func (h *Handle) NextStatement() (syncstmt.Statement, bool) {
	select {
	case stmt := <-h.statementCh:
		return stmt, true
	case <-h.done:
		return syncstmt.Statement{}, false
	}
}

// Resume delivers e to the b-thread and waits for its next statement or
// termination, in one call. Safe to call only when the Handle is known to
// be suspended inside Bsync (i.e. NextStatement most recently returned
// true for it).
func (h *Handle) Resume(e ir.Event) (syncstmt.Statement, bool) {
	select {
	case h.resumeCh <- resumeSignal{event: e}:
	case <-h.done:
		return syncstmt.Statement{}, false
	}
	return h.NextStatement()
}

// Interrupt kills the b-thread without resuming it normally: used on the
// break-upon path (spec.md §4.4 step 2), where the body must not be woken
// with the interrupting event. Blocks until the goroutine has exited.
func (h *Handle) Interrupt() {
	h.killOnce.Do(func() { close(h.killCh) })
	<-h.done
}

// Err returns the reason the b-thread's goroutine exited (a panic, or a
// statement that failed validation in Bsync), or nil if it returned
// normally (including via Interrupt).
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// liveCtx adapts a host-supplied BreakCtx plus a Handle into the full
// syncstmt.Ctx a running body sees: every capability delegates to host
// except Bsync, which is the one primitive bthread itself implements.
type liveCtx struct {
	syncstmt.BreakCtx
	handle *Handle
}

func (c *liveCtx) Bsync(stmt syncstmt.Statement) (ir.Event, error) {
	return c.handle.bsync(stmt)
}
