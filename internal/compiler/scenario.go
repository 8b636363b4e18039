package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/corewing/bp/internal/ir"
)

// Compile parses CUE source text and compiles its top-level value into an
// ir.ScenarioSpec. source is expected to define the scenario fields
// directly at the top level (name, bthreads, ...), not nested under a
// struct label — unlike the teacher's concept.* convention, a scenario
// file defines exactly one scenario.
func Compile(source string) (*ir.ScenarioSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(source)
	return CompileScenario(v)
}

// CompileScenario compiles an already-evaluated CUE value into an
// ir.ScenarioSpec (the Go-API entry point; Compile is the string-source
// convenience wrapper around it).
func CompileScenario(v cue.Value) (*ir.ScenarioSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ScenarioSpec{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Field: "name", Message: "name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Name = name

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Description = desc
	}

	if daemonVal := v.LookupPath(cue.ParsePath("daemon")); daemonVal.Exists() {
		daemon, err := daemonVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Daemon = daemon
	}

	if seedVal := v.LookupPath(cue.ParsePath("seed")); seedVal.Exists() {
		seed, err := seedVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Seed = &seed
	}

	bthreadsVal := v.LookupPath(cue.ParsePath("bthreads"))
	if !bthreadsVal.Exists() {
		return nil, &CompileError{Field: "bthreads", Message: "at least one bthread is required", Pos: v.Pos()}
	}
	spec.BThreads, err = parseBThreads(bthreadsVal)
	if err != nil {
		return nil, err
	}
	if len(spec.BThreads) == 0 {
		return nil, &CompileError{Field: "bthreads", Message: "at least one bthread is required", Pos: v.Pos()}
	}

	if eventsVal := v.LookupPath(cue.ParsePath("external_events")); eventsVal.Exists() {
		spec.ExternalEvents, err = parseExternalEvents(eventsVal)
		if err != nil {
			return nil, err
		}
	}

	if traceVal := v.LookupPath(cue.ParsePath("expected_trace")); traceVal.Exists() {
		spec.ExpectedTrace, err = parseStringList(traceVal)
		if err != nil {
			return nil, err
		}
	}

	if globalsVal := v.LookupPath(cue.ParsePath("expected_globals")); globalsVal.Exists() {
		goVal, err := cueToGo(globalsVal)
		if err != nil {
			return nil, err
		}
		m, ok := goVal.(map[string]any)
		if !ok {
			return nil, &CompileError{Field: "expected_globals", Message: "must be a struct", Pos: globalsVal.Pos()}
		}
		spec.ExpectedGlobals = m
	}

	if reasonVal := v.LookupPath(cue.ParsePath("expected_reason")); reasonVal.Exists() {
		reason, err := reasonVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.ExpectedReason = reason
	}

	return spec, nil
}

func parseBThreads(v cue.Value) ([]ir.BThreadSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.BThreadSpec
	for iter.Next() {
		item := iter.Value()

		roleVal := item.LookupPath(cue.ParsePath("role"))
		if !roleVal.Exists() {
			return nil, &CompileError{Field: "bthreads[].role", Message: "role is required", Pos: item.Pos()}
		}
		role, err := roleVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		bt := ir.BThreadSpec{Role: role}

		if nameVal := item.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
			name, err := nameVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			bt.Name = name
		}

		if paramsVal := item.LookupPath(cue.ParsePath("params")); paramsVal.Exists() {
			goVal, err := cueToGo(paramsVal)
			if err != nil {
				return nil, err
			}
			m, ok := goVal.(map[string]any)
			if !ok {
				return nil, &CompileError{Field: "bthreads[].params", Message: "must be a struct", Pos: paramsVal.Pos()}
			}
			bt.Params = m
		}

		out = append(out, bt)
	}
	return out, nil
}

func parseExternalEvents(v cue.Value) ([]ir.ExternalEventSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.ExternalEventSpec
	for iter.Next() {
		item := iter.Value()

		eventVal := item.LookupPath(cue.ParsePath("event"))
		if !eventVal.Exists() {
			return nil, &CompileError{Field: "external_events[].event", Message: "event is required", Pos: item.Pos()}
		}
		event, err := eventVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		ev := ir.ExternalEventSpec{Event: event}
		if afterVal := item.LookupPath(cue.ParsePath("after_cycle")); afterVal.Exists() {
			after, err := afterVal.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			ev.AfterCycle = int(after)
		}

		out = append(out, ev)
	}
	return out, nil
}

func parseStringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// cueToGo converts a CUE value into a plain Go value (string, int64, bool,
// []any, or map[string]any) for use as role params or expected-globals
// comparison data. Float kinds are forbidden, as in the teacher's type
// parser (CP-5) — BP payloads use ir.IRInt, never float.
func cueToGo(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.BoolKind:
		return v.Bool()
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var out []any
		for iter.Next() {
			item, err := cueToGo(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := map[string]any{}
		for iter.Next() {
			item, err := cueToGo(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Label()] = item
		}
		return out, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{Field: "type", Message: "float types are forbidden, use int instead", Pos: v.Pos()}
	default:
		return nil, &CompileError{Field: "type", Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()), Pos: v.Pos()}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from a CUE error so CompileError
// reports a single, located failure instead of CUE's full multi-error dump.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{Field: "cue", Message: firstErr.Error(), Pos: positions[0]}
	}
	return err
}
