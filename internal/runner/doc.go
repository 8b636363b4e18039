// Package runner implements component C10 (spec.md §4.6): the persistent
// drive loop sitting above the cycle arbiter. Where internal/engine's
// Arbiter exposes Start/Advance as two separate calls so a model-checking
// layer can fork between them, runner.Runner is the "just run it" loop a
// normal program wants — grounded on the teacher's internal/cli command-loop
// shape (collect -> act -> report), generalized from one-shot CLI
// invocation into repeated cycles with a fixed exit-reason vocabulary.
package runner
