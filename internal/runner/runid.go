package runner

import (
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator produces the identifier tagging one Run call, used to
// correlate a persisted cycle trace (internal/store) with listener
// callbacks and CLI output (spec.md §6, "persisted state layout").
// Grounded on the teacher's engine.FlowTokenGenerator: time-sortable
// UUIDv7 here for the same reason it sorts flow tokens there.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run identifiers.
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run IDs in order, for deterministic
// tests and golden-trace comparison.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator builds a generator that yields ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id, panicking once exhausted —
// a fail-fast signal that a test ran more runs than it configured for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all run ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
