package harness

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/corewing/bp"
	"github.com/corewing/bp/internal/ir"
)

// Run builds a bp.Program from spec using reg to resolve each b-thread's
// role, drives it to completion (or ctx cancellation), and checks the
// scenario's declared assertions (expected_trace, expected_globals,
// expected_reason) against the actual run.
func Run(ctx context.Context, reg *Registry, spec *ir.ScenarioSpec, extraOpts ...bp.Option) (*Result, error) {
	slog.Info("scenario starting", "name", spec.Name, "daemon", spec.Daemon, "bthreads", len(spec.BThreads))

	var opts []bp.Option
	if spec.Seed != nil {
		opts = append(opts, bp.WithSeed(*spec.Seed))
	}
	opts = append(opts, extraOpts...)

	var immediate []bp.Event
	pending := map[int][]bp.Event{}
	for _, ev := range spec.ExternalEvents {
		e := bp.NewEvent(ev.Event)
		if ev.AfterCycle == 0 {
			immediate = append(immediate, e)
		} else {
			pending[ev.AfterCycle] = append(pending[ev.AfterCycle], e)
		}
	}
	if len(immediate) > 0 {
		opts = append(opts, bp.WithExternalEvents(immediate...))
	}

	prog := bp.NewProgram(opts...)
	prog.SetDaemonMode(spec.Daemon)

	for _, bt := range spec.BThreads {
		body, err := reg.Build(bt)
		if err != nil {
			slog.Error("scenario failed to build bthread", "name", spec.Name, "bthread", bt.Name, "role", bt.Role, "error", err)
			return nil, fmt.Errorf("scenario %q: bthread %q: %w", spec.Name, bt.Name, err)
		}
		prog.RegisterBThread(bt.Name, body)
	}

	result := NewResult()
	cycle := 0
	runResult := prog.Run(ctx, func(_ bp.Snapshot, e bp.Event) {
		cycle++
		result.Trace = append(result.Trace, TraceEvent{Seq: cycle, Event: e.Name})
		for _, e := range pending[cycle] {
			prog.EnqueueExternalEvent(e)
		}
	})
	result.Reason = string(runResult.Reason)
	slog.Info("scenario finished", "name", spec.Name, "reason", result.Reason, "cycles", cycle)

	expectedReason := spec.ExpectedReason
	if expectedReason == "" {
		expectedReason = string(bp.ExitNormal)
	}
	if result.Reason != expectedReason {
		result.AddError(fmt.Sprintf("exit reason = %q, expected %q", result.Reason, expectedReason))
	}

	if spec.ExpectedTrace != nil {
		got := make([]string, len(result.Trace))
		for i, te := range result.Trace {
			got[i] = te.Event
		}
		if !reflect.DeepEqual(got, spec.ExpectedTrace) {
			result.AddError(fmt.Sprintf("trace = %v, expected %v", got, spec.ExpectedTrace))
		}
	}

	if len(spec.ExpectedGlobals) > 0 {
		result.Globals = map[string]any{}
		globals := prog.GlobalScope()
		for key, want := range spec.ExpectedGlobals {
			got, ok := globals.Get(key)
			if !ok {
				result.AddError(fmt.Sprintf("global %q not set", key))
				continue
			}
			result.Globals[key] = got
			if !reflect.DeepEqual(got, want) {
				result.AddError(fmt.Sprintf("global %q = %v, expected %v", key, got, want))
			}
		}
	}

	if len(result.Errors) > 0 {
		slog.Warn("scenario assertions failed", "name", spec.Name, "errors", result.Errors)
	}

	return result, nil
}
