package eventset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corewing/bp/internal/ir"
)

// Set is a decidable membership predicate over events (spec.md §3/§4.1).
// Implementations must be pure: Contains may be called many times per
// cycle and must not depend on anything but e and the Set's own closed-over
// state.
type Set interface {
	Contains(e ir.Event) (bool, error)
}

// Fingerprinter is an optional capability a Set may implement to support
// snapshot deduplication by model-checking layers (spec.md §4.2). Equality
// of event sets is explicitly not required to be decidable (spec.md §4.1),
// so Fingerprint is a best-effort structural approximation, not a proof of
// semantic equivalence: two structurally different sets that happen to
// agree on every event may still fingerprint differently.
type Fingerprinter interface {
	Fingerprint() string
}

// Fingerprint returns s's structural fingerprint if it implements
// Fingerprinter, or otherwise a fallback built from its dynamic type name
// alone, so two opaque sets of the same type share a fingerprint.
func Fingerprint(s Set) string {
	if f, ok := s.(Fingerprinter); ok {
		return f.Fingerprint()
	}
	return fmt.Sprintf("opaque:%T", s)
}

// HostPredicateError wraps a failure raised by a host-supplied predicate
// function (spec.md §4.1, §7 HostPredicateFailure). The engine detects this
// via errors.As and aborts the program, naming the offending predicate.
type HostPredicateError struct {
	Name string
	Err  error
}

func (e *HostPredicateError) Error() string {
	return fmt.Sprintf("event set predicate %q failed: %v", e.Name, e.Err)
}

func (e *HostPredicateError) Unwrap() error { return e.Err }

type allSet struct{}

func (allSet) Contains(ir.Event) (bool, error) { return true, nil }
func (allSet) Fingerprint() string             { return "all" }

// All is the event set containing every event.
var All Set = allSet{}

type noneSet struct{}

func (noneSet) Contains(ir.Event) (bool, error) { return false, nil }
func (noneSet) Fingerprint() string             { return "none" }

// None is the empty event set.
var None Set = noneSet{}

type singletonSet struct{ event ir.Event }

func (s singletonSet) Contains(e ir.Event) (bool, error) { return s.event.Equal(e), nil }
func (s singletonSet) Fingerprint() string               { return "singleton:" + s.event.Hash() }

// Singleton returns a set containing exactly one event.
func Singleton(e ir.Event) Set { return singletonSet{event: e} }

type enumeratedSet struct{ events []ir.Event }

func (s enumeratedSet) Contains(e ir.Event) (bool, error) {
	for _, candidate := range s.events {
		if candidate.Equal(e) {
			return true, nil
		}
	}
	return false, nil
}

func (s enumeratedSet) Fingerprint() string {
	hashes := make([]string, len(s.events))
	for i, e := range s.events {
		hashes[i] = e.Hash()
	}
	sort.Strings(hashes)
	return "enumerated:" + strings.Join(hashes, ",")
}

// Enumerated returns a set containing exactly the given events.
func Enumerated(events ...ir.Event) Set {
	cp := make([]ir.Event, len(events))
	copy(cp, events)
	return enumeratedSet{events: cp}
}

type allExceptSet struct{ inner Set }

func (s allExceptSet) Contains(e ir.Event) (bool, error) {
	in, err := s.inner.Contains(e)
	if err != nil {
		return false, err
	}
	return !in, nil
}

func (s allExceptSet) Fingerprint() string { return "allExcept:" + Fingerprint(s.inner) }

// AllExcept returns the complement of s: every event not in s.
func AllExcept(s Set) Set { return allExceptSet{inner: s} }

// Complement is an alias for AllExcept, matching spec.md's naming of the
// combinator as both "AllExcept" (§3) and "Complement" (§3 variant list).
func Complement(s Set) Set { return AllExcept(s) }

type unionSet struct{ sets []Set }

func (s unionSet) Contains(e ir.Event) (bool, error) {
	for _, member := range s.sets {
		in, err := member.Contains(e)
		if err != nil {
			return false, err
		}
		if in {
			return true, nil
		}
	}
	return false, nil
}

func (s unionSet) Fingerprint() string {
	parts := make([]string, len(s.sets))
	for i, member := range s.sets {
		parts[i] = Fingerprint(member)
	}
	sort.Strings(parts)
	return "union:" + strings.Join(parts, ",")
}

// Union returns the set of events belonging to any of sets.
func Union(sets ...Set) Set {
	cp := make([]Set, len(sets))
	copy(cp, sets)
	return unionSet{sets: cp}
}

type intersectionSet struct{ sets []Set }

func (s intersectionSet) Contains(e ir.Event) (bool, error) {
	for _, member := range s.sets {
		in, err := member.Contains(e)
		if err != nil {
			return false, err
		}
		if !in {
			return false, nil
		}
	}
	return true, nil
}

func (s intersectionSet) Fingerprint() string {
	parts := make([]string, len(s.sets))
	for i, member := range s.sets {
		parts[i] = Fingerprint(member)
	}
	sort.Strings(parts)
	return "intersection:" + strings.Join(parts, ",")
}

// Intersection returns the set of events belonging to every one of sets.
// An empty sets list is All (vacuously true), matching set-theoretic
// convention.
func Intersection(sets ...Set) Set {
	cp := make([]Set, len(sets))
	copy(cp, sets)
	return intersectionSet{sets: cp}
}

// HostPredicateFunc is a host-supplied, possibly-failing membership test.
type HostPredicateFunc func(e ir.Event) (bool, error)

type hostPredicateSet struct {
	name string
	fn   HostPredicateFunc
}

func (s hostPredicateSet) Contains(e ir.Event) (bool, error) {
	in, err := s.fn(e)
	if err != nil {
		// Per spec.md §4.1: treat the query as false AND surface the
		// failure so the caller can abort the program.
		return false, &HostPredicateError{Name: s.name, Err: err}
	}
	return in, nil
}

// HostPredicate wraps an arbitrary host-supplied predicate as an event set.
// name identifies the predicate in HostPredicateError when it fails.
func HostPredicate(name string, fn HostPredicateFunc) Set {
	return hostPredicateSet{name: name, fn: fn}
}

// Fingerprint identifies a host predicate set by name only, not by its
// closure's behavior — two HostPredicate sets with the same name are
// treated as identical for dedup purposes even if their functions differ,
// and two different closures with different names never collide. Callers
// that need precise identity should give each predicate a unique name.
func (s hostPredicateSet) Fingerprint() string { return "host:" + s.name }
