package bp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corewing/bp/internal/bthread"
	"github.com/corewing/bp/internal/engine"
	"github.com/corewing/bp/internal/eventset"
	"github.com/corewing/bp/internal/ir"
	"github.com/corewing/bp/internal/runner"
	"github.com/corewing/bp/internal/store"
	"github.com/corewing/bp/internal/syncstmt"
)

// Re-exported types, so callers never need to import an internal package
// directly (spec.md §6's programmatic API).
type (
	Event           = ir.Event
	EventSet        = eventset.Set
	Statement       = syncstmt.Statement
	StatementOption = syncstmt.Option
	BodyFunc        = syncstmt.BodyFunc
	BreakUponFunc   = syncstmt.BreakUponFunc
	Ctx             = syncstmt.Ctx
	BreakCtx        = syncstmt.BreakCtx
	Snapshot        = engine.Snapshot
	BThreadSnapshot = bthread.Snapshot
	Listener        = engine.Listener
	Strategy        = engine.Strategy
	Selection       = engine.Selection
	GlobalScope     = *bthread.Scope
	RunResult       = runner.Result
	ExitReason      = runner.ExitReason
)

// Re-exported constructors and combinators.
var (
	NewEvent            = ir.NewEvent
	NewEventWithPayload = ir.NewEventWithPayload

	All        = eventset.All
	None       = eventset.None
	Singleton  = eventset.Singleton
	Enumerated = eventset.Enumerated
	AllExcept  = eventset.AllExcept
	Union      = eventset.Union
	Intersect  = eventset.Intersection
	HostSet    = eventset.HostPredicate

	New           = syncstmt.New
	Request       = syncstmt.Request
	WaitFor       = syncstmt.WaitFor
	Block         = syncstmt.Block
	Interrupt     = syncstmt.Interrupt
	WithBreakUpon = syncstmt.WithBreakUpon

	SimpleStrategy = func() Strategy { return engine.SimpleStrategy{} }

	BaseListener = engine.BaseListener{}
)

const (
	ExitNormal   = runner.ExitNormal
	ExitDeadlock = runner.ExitDeadlock
	ExitAborted  = runner.ExitAborted
	ExitError    = runner.ExitError
)

// OracleStrategy hands the full selectable set to pick, letting a caller
// (e.g. a model checker) choose instead of the fixed-priority default.
func OracleStrategy(pick func(selectable []Event) (int, error)) Strategy {
	return engine.OracleStrategy{Pick: engine.Oracle(pick)}
}

// Program is the root handle for one Behavioral Programming run: the
// Program-facing host (registration, the external queue, daemon mode,
// resources, clock, globals, listeners), the cycle arbiter, and the
// persistent drive loop, wired together (spec.md §6).
type Program struct {
	engine      *engine.Program
	arbiter     *engine.Arbiter
	strategy    Strategy
	traceDBPath string
	seed        *int64
}

// ResourceLoader reads a named resource for Ctx.LoadResource.
type ResourceLoader = engine.ResourceLoader

// Option configures a Program at construction.
type Option func(*config)

type config struct {
	programOpts []engine.ProgramOption
	arbiterOpts []engine.ArbiterOption
	strategy    Strategy
	traceDBPath string
	seed        *int64
	listeners   []Listener
}

// WithSeed fixes the program's deterministic random seed (spec.md §6,
// §9 — every b-thread's Ctx.Random() derives its own sub-stream from this).
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.programOpts = append(c.programOpts, engine.WithSeed(seed))
		c.seed = &seed
	}
}

// WithTraceDB persists a durable per-cycle trace of every Run call to a
// SQLite database at path (SPEC_FULL.md §6's added persistence section):
// one row per cycle with the selected event and the resulting snapshot
// hash, plus a run header and terminal result row. Opened on each Run call;
// failing to open it or to write the run header ends that Run with
// ExitError, while a failed cycle or result write is joined into
// RunResult.Err without changing the run's exit reason.
func WithTraceDB(path string) Option {
	return func(c *config) { c.traceDBPath = path }
}

// WithClock overrides Ctx.GetTime's time source. Tests use this to pin time.
func WithClock(clock func() time.Time) Option {
	return func(c *config) { c.programOpts = append(c.programOpts, engine.WithClock(clock)) }
}

// WithResourceLoader installs the loader backing Ctx.LoadResource.
func WithResourceLoader(loader ResourceLoader) Option {
	return func(c *config) { c.programOpts = append(c.programOpts, engine.WithResourceLoader(loader)) }
}

// WithExternalEvents seeds the external queue before the first Start.
func WithExternalEvents(events ...Event) Option {
	return func(c *config) { c.programOpts = append(c.programOpts, engine.WithExternalEvents(events...)) }
}

// WithWorkers bounds how many b-thread resumes the arbiter runs
// concurrently within one cycle (spec.md §5).
func WithWorkers(n int) Option {
	return func(c *config) { c.arbiterOpts = append(c.arbiterOpts, engine.WithWorkers(n)) }
}

// WithCycleTimeout sets a wall-clock budget per cycle (spec.md §5, §7).
func WithCycleTimeout(d time.Duration) Option {
	return func(c *config) { c.arbiterOpts = append(c.arbiterOpts, engine.WithCycleTimeout(d)) }
}

// WithStrategy overrides the default SimpleStrategy for Program.Run.
func WithStrategy(s Strategy) Option {
	return func(c *config) { c.strategy = s }
}

// WithListener attaches l to the program at construction, before any
// b-thread has a chance to run — equivalent to calling AddListener
// immediately after NewProgram returns, but usable where only Options are
// accepted (e.g. harness.Run's extraOpts).
func WithListener(l Listener) Option {
	return func(c *config) { c.listeners = append(c.listeners, l) }
}

// NewProgram constructs a Program ready for b-thread registration.
func NewProgram(opts ...Option) *Program {
	c := &config{strategy: engine.SimpleStrategy{}}
	for _, opt := range opts {
		opt(c)
	}
	eng := engine.NewProgram(c.programOpts...)
	p := &Program{
		engine:      eng,
		arbiter:     engine.NewArbiter(eng, c.arbiterOpts...),
		strategy:    c.strategy,
		traceDBPath: c.traceDBPath,
		seed:        c.seed,
	}
	for _, l := range c.listeners {
		p.AddListener(l)
	}
	return p
}

// RegisterBThread queues body to start at the next drain point, returning
// its resolved name (spec.md §4.4 step 5, §6).
func (p *Program) RegisterBThread(name string, body BodyFunc) string {
	return p.engine.RegisterBThread(name, body)
}

// EnqueueExternalEvent appends e to the external queue from outside a
// cycle. Safe to call concurrently with a running Program.Run loop.
func (p *Program) EnqueueExternalEvent(e Event) {
	p.engine.EnqueueExternalEvent(e)
}

// SetDaemonMode and IsDaemonMode control whether Run waits for external
// events instead of exiting ExitDeadlock when nothing is selectable.
func (p *Program) SetDaemonMode(daemon bool) { p.engine.SetDaemonMode(daemon) }
func (p *Program) IsDaemonMode() bool        { return p.engine.IsDaemonMode() }

// AddListener and RemoveListener manage lifecycle observers (spec.md §6).
func (p *Program) AddListener(l Listener)    { p.engine.AddListener(l) }
func (p *Program) RemoveListener(l Listener) { p.engine.RemoveListener(l) }

// GlobalScope exposes the globalScope.get test hook (spec.md §6): bindings
// a b-thread body published via Ctx.SetGlobal.
func (p *Program) GlobalScope() GlobalScope { return p.engine.GlobalScope() }

// Start runs every currently-registered b-thread to its first suspension,
// producing the program's first Snapshot (spec.md §4.4, §6).
func (p *Program) Start() (Snapshot, error) { return p.arbiter.Start() }

// Advance performs one super-step given the event selected for snapshot s
// (spec.md §4.4, §6). A Snapshot may only be advanced once.
func (p *Program) Advance(s Snapshot, selected Event) (Snapshot, error) {
	return p.arbiter.Advance(s, selected)
}

// Refresh merges external events queued since s was produced into a copy
// of s, without consuming a cycle — used when nothing was selectable in
// daemon mode and the caller is driving cycles by hand instead of via Run.
func (p *Program) Refresh(s Snapshot) Snapshot { return p.arbiter.Refresh(s) }

// Select applies the program's configured strategy to snapshot s.
func (p *Program) Select(s Snapshot) (Selection, bool, error) { return p.strategy.Select(s) }

// Run drives Start/Select/Advance to completion, deadlock, or ctx
// cancellation (spec.md §4.6, component C10). onCycle, if non-nil, is
// called after every successful Advance.
func (p *Program) Run(ctx context.Context, onCycle func(Snapshot, Event)) RunResult {
	if p.traceDBPath == "" {
		r := runner.New(p.engine, p.arbiter, runner.WithStrategy(p.strategy))
		return r.Run(ctx, runner.CycleHook(onCycle))
	}
	return p.runWithTrace(ctx, onCycle)
}

// runWithTrace wraps Run with a SQLite trace store: a run header written
// before the first cycle, one row per cycle as onCycle fires, and a
// terminal result row once the runner returns (SPEC_FULL.md §6). A failed
// trace write is logged and joined into the returned RunResult.Err rather
// than dropped — the run itself still completes on its own terms, but the
// caller finds out its trace is incomplete.
func (p *Program) runWithTrace(ctx context.Context, onCycle func(Snapshot, Event)) RunResult {
	db, err := store.Open(p.traceDBPath)
	if err != nil {
		return RunResult{Reason: ExitError, Err: fmt.Errorf("open trace db: %w", err)}
	}
	defer db.Close()

	idGen := runner.UUIDv7Generator{}
	runID := idGen.Generate()
	if err := db.WriteRun(ctx, runID, time.Now(), p.engine.IsDaemonMode(), p.seed); err != nil {
		return RunResult{RunID: runID, Reason: ExitError, Err: fmt.Errorf("write run header: %w", err)}
	}

	seq := 0
	var traceErrs []error
	hook := func(snap Snapshot, e Event) {
		if onCycle != nil {
			onCycle(snap, e)
		}
		snapHash, hashErr := snap.Hash(true)
		if hashErr != nil {
			snapHash = ""
		}
		if err := db.WriteCycle(ctx, runID, seq, e.Name, e.Hash(), snapHash, len(snap.BThreads)); err != nil {
			slog.Error("trace db write failed", "run_id", runID, "seq", seq, "event", e.Name, "error", err)
			traceErrs = append(traceErrs, fmt.Errorf("write cycle %d: %w", seq, err))
		}
		seq++
	}

	r := runner.New(p.engine, p.arbiter, runner.WithStrategy(p.strategy), runner.WithRunIDGenerator(runner.NewFixedGenerator(runID)))
	result := r.Run(ctx, hook)

	var resultErr error
	if result.Err != nil {
		resultErr = result.Err
	}
	if err := db.WriteRunResult(ctx, runID, string(result.Reason), resultErr, result.Cycles); err != nil {
		slog.Error("trace db write failed", "run_id", runID, "error", err)
		traceErrs = append(traceErrs, fmt.Errorf("write run result: %w", err))
	}

	if len(traceErrs) > 0 {
		result.Err = errors.Join(result.Err, errors.Join(traceErrs...))
	}

	return result
}
