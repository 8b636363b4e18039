// Package harness drives a bp.Program from an ir.ScenarioSpec and
// compares the resulting trace against a golden file, giving the six
// literal end-to-end scenarios in spec.md §8 — and any scenario fixture
// under scenario/compiler — a single execution path to run through.
//
// A scenario names b-threads by role rather than embedding Go source, so
// Registry maps role names to BodyFactory constructors the way a real BP
// test fixture format has to: YAML/CUE data can name a body, not define
// one. Grounded on the teacher's internal/harness package: Result/
// TraceEvent accumulate a canonical trace (types.go) and RunWithGolden
// compares it against testdata/golden/<name>.golden via
// github.com/sebdah/goldie/v2, after canonicalizing through
// ir.MarshalCanonical (golden.go) so float/ordering noise never causes a
// spurious golden diff.
package harness
