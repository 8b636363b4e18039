package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corewing/bp/internal/bthread"
	"github.com/corewing/bp/internal/eventset"
	"github.com/corewing/bp/internal/ir"
)

// DefaultWorkers bounds how many b-thread resumes one cycle runs
// concurrently when an Arbiter isn't given an explicit worker count.
const DefaultWorkers = 8

// Arbiter orchestrates one super-step (spec.md §4.4, component C9):
// collect, select, resume, drain new b-threads, handle interrupts,
// assemble the next snapshot. An Arbiter is bound to the one Program given
// to NewArbiter and owns no state of its own beyond its tuning knobs — all
// program state lives on that Program and in the Snapshots it passes
// between calls, so Arbiters of independent programs share nothing
// (spec.md §9, "Global mutable state").
type Arbiter struct {
	program      *Program
	workers      int
	cycleTimeout time.Duration
}

// ArbiterOption configures an Arbiter at construction.
type ArbiterOption func(*Arbiter)

// WithWorkers bounds how many b-thread resumes run concurrently within
// one cycle (spec.md §5: independent resumes are embarrassingly
// parallel).
func WithWorkers(n int) ArbiterOption {
	return func(a *Arbiter) { a.workers = n }
}

// WithCycleTimeout sets a wall-clock budget for the resume phase of a
// single cycle. Exceeding it surfaces CycleTimeoutError (spec.md §5, §7).
// Zero (the default) disables the budget.
func WithCycleTimeout(d time.Duration) ArbiterOption {
	return func(a *Arbiter) { a.cycleTimeout = d }
}

// NewArbiter builds an Arbiter bound to program.
func NewArbiter(program *Program, opts ...ArbiterOption) *Arbiter {
	a := &Arbiter{program: program, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start runs every currently-registered b-thread to its first suspension
// (spec.md §4.4, "the initial start() is the same algorithm without
// step 2-3"), producing the program's first Snapshot.
func (a *Arbiter) Start() (Snapshot, error) {
	slog.Info("arbiter starting")
	a.program.notify(func(l Listener) { l.Started() })

	live, err := a.drainRegistrations()
	if err != nil {
		slog.Error("arbiter halted during start", "error", err)
		a.program.notify(func(l Listener) { l.Halted(err) })
		return Snapshot{}, err
	}

	next := newSnapshot(live, a.program.drainQueue(), a.program.IsDaemonMode(), a.program.autoIDSnapshot())
	slog.Debug("first snapshot assembled", "bthreads", len(next.BThreads), "queue", len(next.Queue))
	a.program.notify(func(l Listener) { l.SuperstepDone(next) })
	return next, nil
}

// Refresh merges any external events that arrived since s was produced
// into s's queue, without advancing a cycle — s must not have been passed
// to Advance yet. This is what a daemon-mode runner calls after waking on
// Program.QueueSignal with nothing yet selectable: the selection strategy
// needs those events visible without a selected event to drive Advance
// with (spec.md §5, §6 daemon mode).
func (a *Arbiter) Refresh(s Snapshot) Snapshot {
	s.Queue = append(s.Queue, a.program.drainQueue()...)
	return s
}

// Advance performs one super-step of spec.md §4.4 given the event
// selected for snapshot s, returning the resulting snapshot.
func (a *Arbiter) Advance(s Snapshot, selected ir.Event) (Snapshot, error) {
	if !s.tryTrigger() {
		return Snapshot{}, &SnapshotReusedError{}
	}

	slog.Debug("super-step starting", "selected_event", selected.Name, "bthreads", len(s.BThreads), "queue", len(s.Queue))
	a.program.notify(func(l Listener) { l.EventSelected(s, selected) })

	live, interrupted, err := a.partitionInterrupts(s.BThreads, selected)
	if err != nil {
		slog.Error("arbiter halted partitioning interrupts", "selected_event", selected.Name, "error", err)
		a.program.notify(func(l Listener) { l.Halted(err) })
		return Snapshot{}, err
	}

	if err := a.handleInterrupts(interrupted, selected); err != nil {
		slog.Error("arbiter halted handling interrupts", "selected_event", selected.Name, "error", err)
		a.program.notify(func(l Listener) { l.Halted(err) })
		return Snapshot{}, err
	}

	resuming, err := a.partitionResuming(live, selected)
	if err != nil {
		slog.Error("arbiter halted partitioning resumable bthreads", "selected_event", selected.Name, "error", err)
		a.program.notify(func(l Listener) { l.Halted(err) })
		return Snapshot{}, err
	}

	resumedByName, err := a.resumeAll(resuming, selected)
	if err != nil {
		slog.Error("arbiter halted resuming bthreads", "selected_event", selected.Name, "error", err)
		a.program.notify(func(l Listener) { l.Halted(err) })
		return Snapshot{}, err
	}

	started, err := a.drainRegistrations()
	if err != nil {
		slog.Error("arbiter halted draining registrations", "selected_event", selected.Name, "error", err)
		a.program.notify(func(l Listener) { l.Halted(err) })
		return Snapshot{}, err
	}

	// Reassemble in the same relative order as live (itself s.BThreads
	// minus interrupts), never grouped by sleeping/resumed: SimpleStrategy's
	// tie-break is registration order, and that order has to survive every
	// cycle a b-thread merely sleeps through, not just the one it resumes
	// in (spec.md §4.5).
	newLive := make([]bthread.Snapshot, 0, len(live)+len(started))
	resumingSet := make(map[string]bool, len(resuming))
	for _, bt := range resuming {
		resumingSet[bt.Name] = true
	}
	for _, bt := range live {
		if !resumingSet[bt.Name] {
			newLive = append(newLive, bt)
			continue
		}
		if next, alive := resumedByName[bt.Name]; alive {
			newLive = append(newLive, next)
		}
	}
	newLive = append(newLive, started...)

	newQueue := removeOneOccurrence(s.Queue, selected)
	newQueue = append(newQueue, a.program.drainQueue()...)

	next := newSnapshot(newLive, newQueue, a.program.IsDaemonMode(), a.program.autoIDSnapshot())
	slog.Debug("super-step done", "selected_event", selected.Name, "bthreads", len(next.BThreads), "queue", len(next.Queue))
	a.program.notify(func(l Listener) { l.SuperstepDone(next) })
	return next, nil
}

// partitionInterrupts splits bthreads into those the selected event
// removes (spec.md §4.4 step 2) and those that remain live.
func (a *Arbiter) partitionInterrupts(bthreads []bthread.Snapshot, selected ir.Event) (live, interrupted []bthread.Snapshot, err error) {
	for _, bt := range bthreads {
		isInterrupt, err := bt.Statement.Interrupt.Contains(selected)
		if err != nil {
			return nil, nil, classifyPredicateError(bt.Name, err)
		}
		if isInterrupt {
			interrupted = append(interrupted, bt)
			continue
		}
		live = append(live, bt)
	}
	return live, interrupted, nil
}

// handleInterrupts kills each interrupted b-thread's continuation,
// synchronously runs its break-upon handler if it has one, and notifies
// listeners — all before any resume happens, per spec.md §5's fixed
// callback ordering.
func (a *Arbiter) handleInterrupts(interrupted []bthread.Snapshot, selected ir.Event) error {
	for _, bt := range interrupted {
		bt.Interrupt()
		if bt.Statement.BreakUpon != nil {
			if err := a.runBreakUpon(bt, selected); err != nil {
				return err
			}
		}
		slog.Debug("bthread removed", "name", bt.Name, "interrupted_by", selected.Name)
		a.program.notify(func(l Listener) { l.BThreadRemoved(bt.Name) })
	}
	return nil
}

func (a *Arbiter) runBreakUpon(bt bthread.Snapshot, selected ir.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &BodyFailureError{BThread: bt.Name, Err: fmt.Errorf("break-upon handler panicked: %v", r)}
		}
	}()
	bt.Statement.BreakUpon(a.program.bind(bt.Name), selected)
	return nil
}

// partitionResuming splits the remaining live b-threads into those the
// selected event resumes (spec.md §4.4 step 3) and, implicitly, those that
// stay sleeping — the caller already holds the full live list and can tell
// the two apart by name.
func (a *Arbiter) partitionResuming(live []bthread.Snapshot, selected ir.Event) (resuming []bthread.Snapshot, err error) {
	for _, bt := range live {
		matches, err := bt.Statement.Resumable(selected)
		if err != nil {
			return nil, classifyPredicateError(bt.Name, err)
		}
		if matches {
			resuming = append(resuming, bt)
		}
	}
	return resuming, nil
}

// resumeAll advances every resuming b-thread concurrently (spec.md §5:
// independent resumes within one step are embarrassingly parallel), reports
// terminations, and returns the still-alive ones keyed by name so the
// caller can reinsert them at their original position.
func (a *Arbiter) resumeAll(resuming []bthread.Snapshot, selected ir.Event) (map[string]bthread.Snapshot, error) {
	resumed := make([]bthread.Snapshot, len(resuming))
	errs := make([]error, len(resuming))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, bt := range resuming {
		i, bt := i, bt
		g.Go(func() error {
			next, alive, err := bt.Resume(selected)
			if err != nil {
				errs[i] = classifyBThreadError(bt.Name, err)
				return errs[i]
			}
			if alive {
				resumed[i] = next
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	if a.cycleTimeout > 0 {
		select {
		case err := <-done:
			if err != nil {
				return nil, err
			}
		case <-time.After(a.cycleTimeout):
			return nil, &CycleTimeoutError{Budget: a.cycleTimeout}
		}
	} else if err := <-done; err != nil {
		return nil, err
	}

	stillLive := make(map[string]bthread.Snapshot, len(resumed))
	for i, bt := range resumed {
		if bt.Alive() {
			stillLive[resuming[i].Name] = bt
		} else {
			slog.Debug("bthread done", "name", resuming[i].Name)
			a.program.notify(func(l Listener) { l.BThreadDone(resuming[i].Name) })
		}
	}
	return stillLive, nil
}

// drainRegistrations starts every pending b-thread registration to its
// first suspension, looping because starting one may register more
// (spec.md §4.4 step 5). Registration order is preserved as discovery
// order: Program.drainPending always returns pending entries FIFO, and
// this loop processes each batch before asking for the next.
func (a *Arbiter) drainRegistrations() ([]bthread.Snapshot, error) {
	var started []bthread.Snapshot
	for {
		batch := a.program.drainPending()
		if len(batch) == 0 {
			return started, nil
		}
		for _, reg := range batch {
			snap, alive, err := bthread.Start(reg.name, reg.body, a.program.bind(reg.name))
			if err != nil {
				return nil, classifyBThreadError(reg.name, err)
			}
			slog.Debug("bthread registered", "name", reg.name, "alive", alive)
			a.program.notify(func(l Listener) { l.BThreadAdded(snap) })
			if alive {
				started = append(started, snap)
			} else {
				a.program.notify(func(l Listener) { l.BThreadDone(reg.name) })
			}
		}
	}
}

// classifyBThreadError maps an error surfaced from bthread.Start or
// bthread.Snapshot.Resume onto the engine's typed error kinds (spec.md
// §7): a panic becomes BodyFailureError, a failing host predicate becomes
// HostPredicateFailureError, anything else (a malformed statement) becomes
// InvalidStatementError.
func classifyBThreadError(name string, err error) error {
	var panicErr *bthread.BodyPanicError
	if errors.As(err, &panicErr) {
		return &BodyFailureError{BThread: name, Err: err}
	}
	var hpe *eventset.HostPredicateError
	if errors.As(err, &hpe) {
		return &HostPredicateFailureError{Err: err}
	}
	return &InvalidStatementError{BThread: name, Err: err}
}

// classifyPredicateError maps an error from querying a statement's own
// event sets (Interrupt.Contains, Resumable's WaitFor.Contains) onto
// HostPredicateFailureError when a host predicate failed, and onto
// InvalidStatementError for any other error a Set implementation returns.
func classifyPredicateError(name string, err error) error {
	var hpe *eventset.HostPredicateError
	if errors.As(err, &hpe) {
		return &HostPredicateFailureError{Err: err}
	}
	return &InvalidStatementError{BThread: name, Err: err}
}

func removeOneOccurrence(queue []ir.Event, e ir.Event) []ir.Event {
	out := make([]ir.Event, 0, len(queue))
	removed := false
	for _, candidate := range queue {
		if !removed && candidate.Equal(e) {
			removed = true
			continue
		}
		out = append(out, candidate)
	}
	return out
}
