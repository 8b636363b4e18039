package engine

import (
	"fmt"

	"github.com/corewing/bp/internal/ir"
)

// Selection is the outcome of one selection-strategy call: the chosen
// event, and whether it came from the external queue (informational —
// Advance removes a matching event from the queue regardless of this
// flag, since an event requested by a b-thread that also happens to sit
// in the queue should still be consumed from it).
type Selection struct {
	Event     ir.Event
	FromQueue bool
}

// Strategy picks one event from a snapshot's current sync statements and
// external queue (spec.md §4.5, component C8). ok is false when nothing
// is selectable.
type Strategy interface {
	Select(snapshot Snapshot) (Selection, bool, error)
}

// candidate is one member of Selectable: an event plus where it was
// found, used to resolve FromQueue once a strategy has picked an index.
type candidate struct {
	event   ir.Event
	inQueue bool
}

// computeSelectable builds Selectable = (Requested ∪ externalQueue) \
// Blocked (spec.md §4.5), preserving b-thread registration order then
// request-list order for the Requested portion, followed by any
// queue-only events in queue order. Duplicate events (requested and also
// queued) appear once, at their Requested position, with inQueue merged
// in so Advance still consumes the queue copy if it's the one selected.
func computeSelectable(snap Snapshot) ([]candidate, error) {
	isBlocked := func(e ir.Event) (bool, error) {
		for _, bt := range snap.BThreads {
			blocked, err := bt.Statement.Block.Contains(e)
			if err != nil {
				return false, &HostPredicateFailureError{Err: err}
			}
			if blocked {
				return true, nil
			}
		}
		return false, nil
	}

	var result []candidate
	seen := make(map[string]int)

	add := func(e ir.Event, inQueue bool) error {
		blocked, err := isBlocked(e)
		if err != nil {
			return err
		}
		if blocked {
			return nil
		}
		h := e.Hash()
		if idx, ok := seen[h]; ok {
			if inQueue {
				result[idx].inQueue = true
			}
			return nil
		}
		seen[h] = len(result)
		result = append(result, candidate{event: e, inQueue: inQueue})
		return nil
	}

	for _, bt := range snap.BThreads {
		for _, e := range bt.Statement.Request {
			if err := add(e, false); err != nil {
				return nil, err
			}
		}
	}
	for _, e := range snap.Queue {
		if err := add(e, true); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// SimpleStrategy implements spec.md §4.5's default: pick the first
// selectable requested event in (registration index, request-list
// position) order, falling back to the head of the external queue.
type SimpleStrategy struct{}

func (SimpleStrategy) Select(snap Snapshot) (Selection, bool, error) {
	candidates, err := computeSelectable(snap)
	if err != nil {
		return Selection{}, false, err
	}
	if len(candidates) == 0 {
		return Selection{}, false, nil
	}
	first := candidates[0]
	return Selection{Event: first.event, FromQueue: first.inQueue}, true, nil
}

// Oracle picks one event among the given selectable candidates, returning
// its index. Used by model-checking layers that want to branch over every
// choice rather than accept the simple strategy's fixed priority.
type Oracle func(selectable []ir.Event) (int, error)

// OracleStrategy hands the full Selectable set to a pluggable Oracle
// (spec.md §4.5, "pluggable random/arbitrary strategy").
type OracleStrategy struct {
	Pick Oracle
}

func (s OracleStrategy) Select(snap Snapshot) (Selection, bool, error) {
	candidates, err := computeSelectable(snap)
	if err != nil {
		return Selection{}, false, err
	}
	if len(candidates) == 0 {
		return Selection{}, false, nil
	}

	events := make([]ir.Event, len(candidates))
	for i, c := range candidates {
		events[i] = c.event
	}

	idx, err := s.Pick(events)
	if err != nil {
		return Selection{}, false, err
	}
	if idx < 0 || idx >= len(candidates) {
		return Selection{}, false, fmt.Errorf("oracle strategy: index %d out of range [0,%d)", idx, len(candidates))
	}

	chosen := candidates[idx]
	return Selection{Event: chosen.event, FromQueue: chosen.inQueue}, true, nil
}
