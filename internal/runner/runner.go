package runner

import (
	"context"

	"github.com/corewing/bp/internal/engine"
	"github.com/corewing/bp/internal/ir"
)

// ExitReason classifies why Run stopped driving cycles (spec.md §6).
type ExitReason string

const (
	// ExitNormal means every b-thread terminated and nothing is pending.
	ExitNormal ExitReason = "normal"
	// ExitDeadlock means a non-daemon program had no selectable event while
	// b-threads remained live.
	ExitDeadlock ExitReason = "deadlock"
	// ExitAborted means the caller's context ended the run at a cycle
	// boundary (spec.md §5: honored only between cycles, never preempting
	// a resuming b-thread).
	ExitAborted ExitReason = "aborted"
	// ExitError means the arbiter or selection strategy surfaced one of the
	// engine package's typed errors (InvalidStatement, BodyFailure, ...).
	ExitError ExitReason = "error"
)

// Result reports how a Run call ended.
type Result struct {
	RunID  string
	Reason ExitReason
	Err    error
	Cycles int
}

// CycleHook is called after every successful Advance, with the resulting
// snapshot and the event that produced it. The bp facade uses this to
// forward per-cycle listener callbacks and optional trace persistence
// without the runner importing either.
type CycleHook func(snapshot engine.Snapshot, selected ir.Event)

// Runner drives a Program's arbiter through repeated cycles until
// termination, daemon-mode external-event wait, or cancellation.
type Runner struct {
	program  *engine.Program
	arbiter  *engine.Arbiter
	strategy engine.Strategy
	idGen    RunIDGenerator
}

// Option configures a Runner at construction.
type Option func(*Runner)

// WithStrategy overrides the default SimpleStrategy.
func WithStrategy(s engine.Strategy) Option {
	return func(r *Runner) { r.strategy = s }
}

// WithRunIDGenerator overrides the default UUIDv7Generator, e.g. with a
// FixedGenerator for deterministic golden-trace tests.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) { r.idGen = g }
}

// New builds a Runner bound to program and arb.
func New(program *engine.Program, arb *engine.Arbiter, opts ...Option) *Runner {
	r := &Runner{program: program, arbiter: arb, strategy: engine.SimpleStrategy{}, idGen: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives cycles until termination, deadlock, or ctx cancellation. If
// the program is in daemon mode and nothing is selectable, Run blocks on
// the program's external-event queue signal instead of returning
// ExitDeadlock, waking as soon as an event arrives or ctx ends.
func (r *Runner) Run(ctx context.Context, onCycle CycleHook) Result {
	runID := r.idGen.Generate()

	snap, err := r.arbiter.Start()
	if err != nil {
		return Result{RunID: runID, Reason: ExitError, Err: err}
	}

	cycles := 0
	for {
		if len(snap.BThreads) == 0 {
			return Result{RunID: runID, Reason: ExitNormal, Cycles: cycles}
		}

		select {
		case <-ctx.Done():
			return Result{RunID: runID, Reason: ExitAborted, Err: ctx.Err(), Cycles: cycles}
		default:
		}

		sel, ok, err := r.strategy.Select(snap)
		if err != nil {
			return Result{RunID: runID, Reason: ExitError, Err: err, Cycles: cycles}
		}
		if !ok {
			if !snap.Daemon {
				return Result{RunID: runID, Reason: ExitDeadlock, Err: deadlockOf(snap), Cycles: cycles}
			}
			select {
			case <-ctx.Done():
				return Result{RunID: runID, Reason: ExitAborted, Err: ctx.Err(), Cycles: cycles}
			case <-r.program.QueueSignal():
				snap = r.arbiter.Refresh(snap)
				continue
			}
		}

		next, err := r.arbiter.Advance(snap, sel.Event)
		if err != nil {
			return Result{RunID: runID, Reason: ExitError, Err: err, Cycles: cycles}
		}
		cycles++
		if onCycle != nil {
			onCycle(next, sel.Event)
		}
		snap = next
	}
}

func deadlockOf(snap engine.Snapshot) error {
	names := make([]string, len(snap.BThreads))
	for i, bt := range snap.BThreads {
		names[i] = bt.Name
	}
	return &engine.DeadlockError{Waiting: names}
}
