package harness

import (
	"context"
	"fmt"

	"github.com/corewing/bp"
	"github.com/corewing/bp/internal/ir"
)

// Violation records one universal invariant failing to hold at some point
// during a run.
type Violation struct {
	Invariant string
	Cycle     int
	Detail    string
}

func (v Violation) String() string {
	return fmt.Sprintf("cycle %d: %s: %s", v.Cycle, v.Invariant, v.Detail)
}

// Invariant names, used as Violation.Invariant. These hold for every
// program regardless of scenario, independent of any single role body's
// own correctness.
const (
	// InvariantBlockingDominates: the event a cycle selects must not be
	// blocked by any live b-thread's current statement.
	InvariantBlockingDominates = "blocking-dominates"

	// InvariantNoRemovedBThreadReappears: once a b-thread has been
	// reported done or removed, its name must not reappear in a later
	// snapshot without an intervening BThreadAdded.
	InvariantNoRemovedBThreadReappears = "no-removed-bthread-reappears"

	// InvariantRegistrationOrderPreserved: the relative order in which
	// b-threads currently alive were registered must survive every
	// snapshot, independent of which ones happened to resume or sleep.
	InvariantRegistrationOrderPreserved = "registration-order-preserved"

	// InvariantSnapshotImmutable: a snapshot handed to a listener must
	// never change after the fact — the next cycle operates on a new
	// value, never mutates the one just observed.
	InvariantSnapshotImmutable = "snapshot-immutable"
)

// InvariantMonitor is a bp.Listener that checks the universal invariants
// every Behavioral Programming run must hold, independent of scenario
// content — the properties spec.md §8 calls out rather than anything a
// particular b-thread body asserts about itself. Attach one to a Program
// with AddListener before calling Run, then inspect Violations after the
// run completes.
type InvariantMonitor struct {
	live            map[string]bool
	registeredOrder []string

	lastSnapshot bp.Snapshot
	lastHash     string
	cycle        int

	Violations []Violation
}

// NewInvariantMonitor returns an InvariantMonitor ready to attach to a
// program via Program.AddListener.
func NewInvariantMonitor() *InvariantMonitor {
	return &InvariantMonitor{live: map[string]bool{}}
}

func (m *InvariantMonitor) fail(invariant, format string, args ...any) {
	m.Violations = append(m.Violations, Violation{
		Invariant: invariant,
		Cycle:     m.cycle,
		Detail:    fmt.Sprintf(format, args...),
	})
}

func (m *InvariantMonitor) Started() {}

// BThreadAdded marks name live and records it at the tail of registration
// order, the position SimpleStrategy's tie-break treats as authoritative.
func (m *InvariantMonitor) BThreadAdded(bt bp.BThreadSnapshot) {
	if !m.live[bt.Name] {
		m.registeredOrder = append(m.registeredOrder, bt.Name)
	}
	m.live[bt.Name] = true
}

func (m *InvariantMonitor) BThreadDone(name string) {
	m.live[name] = false
}

func (m *InvariantMonitor) BThreadRemoved(name string) {
	m.live[name] = false
}

// EventSelected checks blocking-dominates against the pre-advance
// snapshot: selected must not be in any live b-thread's Block set.
func (m *InvariantMonitor) EventSelected(snapshot bp.Snapshot, event bp.Event) {
	for _, bt := range snapshot.BThreads {
		blocked, err := bt.Statement.Block.Contains(event)
		if err != nil {
			m.fail(InvariantBlockingDominates, "bthread %q: block predicate error: %v", bt.Name, err)
			continue
		}
		if blocked {
			m.fail(InvariantBlockingDominates, "event %q selected while blocked by bthread %q", event.Name, bt.Name)
		}
	}

	if m.lastHash != "" {
		h, err := m.lastSnapshot.Hash(true)
		if err == nil && h != m.lastHash {
			m.fail(InvariantSnapshotImmutable, "previously observed snapshot's hash changed from %s to %s", m.lastHash, h)
		}
	}
}

// SuperstepDone checks that the resulting snapshot's live b-thread set and
// relative order are exactly what the Added/Done/Removed narration this
// cycle implied, then remembers the snapshot to re-verify immutability
// next cycle.
func (m *InvariantMonitor) SuperstepDone(snapshot bp.Snapshot) {
	m.cycle++

	seen := make(map[string]bool, len(snapshot.BThreads))
	var order []string
	for _, bt := range snapshot.BThreads {
		seen[bt.Name] = true
		if !m.live[bt.Name] {
			m.fail(InvariantNoRemovedBThreadReappears, "bthread %q present in snapshot but not marked live by Added/Done/Removed narration", bt.Name)
		}
		order = append(order, bt.Name)
	}
	for name, alive := range m.live {
		if alive && !seen[name] {
			m.fail(InvariantNoRemovedBThreadReappears, "bthread %q marked live but missing from snapshot", name)
		}
	}

	expected := make([]string, 0, len(order))
	for _, name := range m.registeredOrder {
		if seen[name] {
			expected = append(expected, name)
		}
	}
	for i, name := range order {
		if i >= len(expected) || expected[i] != name {
			m.fail(InvariantRegistrationOrderPreserved, "snapshot order %v diverges from registration order %v", order, expected)
			break
		}
	}

	m.lastSnapshot = snapshot
	if h, err := snapshot.Hash(true); err == nil {
		m.lastHash = h
	}
}

func (m *InvariantMonitor) AssertionFailed(reason string) {}
func (m *InvariantMonitor) Ended()                        {}
func (m *InvariantMonitor) Halted(reason error)           {}

// CheckDeterminism runs spec through reg runs times with the same
// configuration (spec must carry a fixed Seed for this to mean anything:
// the simple strategy is otherwise deterministic on its own, but a
// scenario's role bodies may consult the program's random source) and
// reports a violation if any run's trace diverges from the first.
func CheckDeterminism(ctx context.Context, reg *Registry, spec *ir.ScenarioSpec, runs int) ([]Violation, error) {
	var violations []Violation
	var first []string

	for i := 0; i < runs; i++ {
		result, err := Run(ctx, reg, spec)
		if err != nil {
			return nil, fmt.Errorf("determinism check run %d: %w", i, err)
		}
		trace := make([]string, len(result.Trace))
		for j, te := range result.Trace {
			trace[j] = te.Event
		}
		if i == 0 {
			first = trace
			continue
		}
		if len(trace) != len(first) {
			violations = append(violations, Violation{
				Invariant: "determinism-under-simple-strategy",
				Detail:    fmt.Sprintf("run %d trace length %d, run 0 trace length %d", i, len(trace), len(first)),
			})
			continue
		}
		for j := range trace {
			if trace[j] != first[j] {
				violations = append(violations, Violation{
					Invariant: "determinism-under-simple-strategy",
					Detail:    fmt.Sprintf("run %d diverges from run 0 at event %d: %q vs %q", i, j, trace[j], first[j]),
				})
				break
			}
		}
	}

	return violations, nil
}
