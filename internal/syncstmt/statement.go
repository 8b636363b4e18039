package syncstmt

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/corewing/bp/internal/eventset"
	"github.com/corewing/bp/internal/ir"
)

// BodyFunc is a b-thread body: an opaque suspendable procedure given a
// host-facing Ctx (spec.md §4.3). It runs on its own goroutine and must
// call Ctx.Bsync to suspend; returning ends the b-thread.
type BodyFunc func(ctx Ctx)

// BreakUponFunc is invoked when an interrupt event is selected for the
// b-thread that published it (spec.md §3/§4.4 step 2). It runs in a
// context that forbids suspension: BreakCtx has no Bsync method, and the
// concrete Ctx passed to it at runtime additionally refuses any bsync call
// made via a type-asserted escape hatch (see the engine package's
// boundHost).
type BreakUponFunc func(ctx BreakCtx, selected ir.Event)

// BreakCtx is the host interface available to a break-upon handler: every
// Ctx capability except Bsync.
type BreakCtx interface {
	// RegisterBThread adds a new b-thread, returning its resolved name
	// (auto-generated as "autoadded-<n>" if name is empty).
	RegisterBThread(name string, body BodyFunc) string

	// EnqueueExternalEvent appends e to the program's external queue.
	EnqueueExternalEvent(e ir.Event)

	// SetDaemonMode/IsDaemonMode control whether the program waits for
	// external events instead of terminating when nothing is selectable.
	SetDaemonMode(daemon bool)
	IsDaemonMode() bool

	// LoadResource reads a resource by path through the program's
	// configured ResourceLoader, returning an error when none is
	// configured. The engine treats the bytes as opaque; bodies parse
	// their own formats.
	LoadResource(path string) ([]byte, error)

	// GetTime returns the current wall-clock time.
	GetTime() time.Time

	// Random returns the program's seeded pseudorandom source. Bodies
	// must never use the platform default random source, so that replay
	// stays deterministic.
	Random() *rand.Rand

	// SetGlobal publishes a named binding to the program's global scope,
	// readable afterward through the host's globalScope.get test hook
	// (spec.md §6). This is how a body surfaces a result to the caller
	// that started the program.
	SetGlobal(name string, value any)
}

// Ctx is the full host interface exposed to a running b-thread body
// (spec.md §6, "Engine-to-body"). It embeds BreakCtx and adds the single
// suspension primitive.
type Ctx interface {
	BreakCtx

	// Bsync publishes stmt as this b-thread's current sync statement,
	// suspends until the arbiter resumes it with a matching event or
	// removes it via interrupt, and returns the selected event. It
	// returns an error if called after the b-thread has been interrupted,
	// or if stmt fails validation.
	Bsync(stmt Statement) (ir.Event, error)
}

// Statement is a b-thread's per-cycle synchronization request
// (spec.md §3). The zero value is not directly usable — construct with
// New, which applies spec.md's documented defaults (empty request, NONE
// for waitFor/block/interrupt, no break-upon handler).
type Statement struct {
	Request   []ir.Event
	WaitFor   eventset.Set
	Block     eventset.Set
	Interrupt eventset.Set
	BreakUpon BreakUponFunc
}

// Option configures a Statement built by New.
type Option func(*Statement)

// Request sets the events this b-thread proposes, in order.
func Request(events ...ir.Event) Option {
	return func(s *Statement) {
		s.Request = append(s.Request, events...)
	}
}

// WaitFor sets the events this b-thread is willing to resume on, besides
// its own requests.
func WaitFor(set eventset.Set) Option {
	return func(s *Statement) { s.WaitFor = set }
}

// Block sets the events this b-thread forbids from being selected.
func Block(set eventset.Set) Option {
	return func(s *Statement) { s.Block = set }
}

// Interrupt sets the events that, if selected, remove this b-thread and
// run its break-upon handler instead of resuming it normally.
func Interrupt(set eventset.Set) Option {
	return func(s *Statement) { s.Interrupt = set }
}

// WithBreakUpon attaches a handler run when an interrupt event is chosen.
func WithBreakUpon(fn BreakUponFunc) Option {
	return func(s *Statement) { s.BreakUpon = fn }
}

// New builds a Statement, defaulting unset fields to empty request and
// eventset.None for waitFor/block/interrupt (spec.md §4.2 builder
// semantics).
func New(opts ...Option) Statement {
	s := Statement{
		WaitFor:   eventset.None,
		Block:     eventset.None,
		Interrupt: eventset.None,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// RequestBlockedError is returned by Validate when the same event appears
// in both Request and Block. spec.md §9's Open Questions calls this
// undefined in the source and resolves it here as an invalid statement.
type RequestBlockedError struct {
	Event ir.Event
}

func (e *RequestBlockedError) Error() string {
	return fmt.Sprintf("event %q is both requested and blocked by the same statement", e.Event.Name)
}

// Validate checks the invariant from spec.md §9's resolved Open Question:
// a statement may not request an event it also blocks. Any error returned
// by the Block set's own Contains (e.g. a failing host predicate)
// propagates unchanged so the caller can distinguish HostPredicateFailure
// from InvalidStatement.
func (s Statement) Validate() error {
	for _, e := range s.Request {
		blocked, err := s.Block.Contains(e)
		if err != nil {
			return err
		}
		if blocked {
			return &RequestBlockedError{Event: e}
		}
	}
	return nil
}

// Resumable reports whether selected would resume a b-thread holding this
// statement: it matches if selected is in Request or in WaitFor. Any error
// from the underlying sets (host predicate failure) propagates.
func (s Statement) Resumable(selected ir.Event) (bool, error) {
	for _, e := range s.Request {
		if e.Equal(selected) {
			return true, nil
		}
	}
	return s.WaitFor.Contains(selected)
}

// Hash computes a content-addressed fingerprint of the statement's
// structure, for use by model-checking layers doing snapshot
// deduplication (spec.md §4.2). See eventset.Fingerprint for the caveats
// on set equality this inherits.
func (s Statement) Hash() (string, error) {
	reqHashes := make([]string, len(s.Request))
	for i, e := range s.Request {
		reqHashes[i] = e.Hash()
	}
	return ir.StatementHash(
		reqHashes,
		eventset.Fingerprint(s.WaitFor),
		eventset.Fingerprint(s.Block),
		eventset.Fingerprint(s.Interrupt),
		s.BreakUpon != nil,
	)
}
