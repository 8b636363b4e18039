// Package compiler compiles a CUE scenario definition into an
// ir.ScenarioSpec, the same IR internal/scenario produces from YAML.
//
// Grounded on the teacher's internal/compiler/concept.go: a cue.Value is
// walked field by field with cue.ParsePath/LookupPath, required fields
// missing from the value produce a *CompileError carrying the CUE source
// position, and underlying cue/errors values are unwrapped with
// formatCUEError to surface position info instead of CUE's default
// multi-error dump. This package retargets that walk from concept specs
// (purpose/state/actions) to BP scenarios (bthreads/external_events).
package compiler
