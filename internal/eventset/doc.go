// Package eventset implements the EventSet predicate algebra (spec.md §4.1,
// component C2): a decidable membership predicate over events, with
// combinators that build new sets without mutating their inputs.
//
// The matching style — small pure functions dispatching on a typed clause —
// is grounded on the teacher's internal/engine/matcher.go, generalized from
// "does this completion match this when-clause" to "does this event belong
// to this set".
package eventset
