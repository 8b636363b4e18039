package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/corewing/bp/internal/ir"
)

// RunWithGolden runs spec through reg and compares its trace against
// testdata/golden/<spec.Name>.golden, canonicalized through
// ir.MarshalCanonical so the comparison is whitespace- and
// key-order-insensitive. Regenerate golden files with
// `go test ./internal/harness -update`.
func RunWithGolden(t *testing.T, reg *Registry, spec *ir.ScenarioSpec) *Result {
	t.Helper()

	result, err := Run(context.Background(), reg, spec)
	if err != nil {
		t.Fatalf("scenario %q: %v", spec.Name, err)
	}

	traceList := make([]any, len(result.Trace))
	for i, te := range result.Trace {
		traceList[i] = map[string]any{"seq": te.Seq, "event": te.Event}
	}
	canonicalMap := map[string]any{
		"scenario_name": spec.Name,
		"trace":         traceList,
		"reason":        result.Reason,
	}

	traceJSON, err := ir.MarshalCanonical(canonicalMap)
	if err != nil {
		t.Fatalf("scenario %q: canonicalize trace: %v", spec.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, spec.Name, traceJSON)

	return result
}
