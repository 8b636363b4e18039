package engine

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/corewing/bp/internal/bthread"
	"github.com/corewing/bp/internal/ir"
	"github.com/corewing/bp/internal/syncstmt"
)

// ResourceLoader reads a named resource for Ctx.LoadResource (spec.md
// §6). The engine treats the returned bytes as opaque.
type ResourceLoader interface {
	Load(path string) ([]byte, error)
}

// Program is the host every b-thread body's Ctx delegates to for
// everything except Bsync (spec.md §6, "Engine-to-body"). Per spec.md §9
// ("Global mutable state"), a Program owns everything a process-wide
// singleton would otherwise own: its own auto-id counter, its own
// external queue, its own listener list, and a deterministic per-b-thread
// random sub-stream — so that concurrent programs (needed for
// model-checking) and concurrent resumes within one cycle never share
// mutable state.
type Program struct {
	mu            sync.Mutex
	seed          int64
	nextAutoID    int
	pending       []pendingRegistration
	daemon        bool
	perThreadRand map[string]*rand.Rand
	listeners     []Listener

	queue     *externalQueue
	global    *bthread.Scope
	clock     func() time.Time
	resources ResourceLoader
}

type pendingRegistration struct {
	name string
	body syncstmt.BodyFunc
}

// ProgramOption configures a Program at construction.
type ProgramOption func(*Program)

// WithSeed fixes the program's deterministic random seed. Every b-thread
// gets its own sub-stream derived from this seed and its name, so replay
// with the same seed reproduces the same sequence per b-thread regardless
// of how resumes were scheduled across the worker pool.
func WithSeed(seed int64) ProgramOption {
	return func(p *Program) { p.seed = seed }
}

// WithClock overrides the wall-clock source used by GetTime. Tests use
// this to pin time instead of reading the platform clock.
func WithClock(clock func() time.Time) ProgramOption {
	return func(p *Program) { p.clock = clock }
}

// WithResourceLoader installs the loader used by LoadResource.
func WithResourceLoader(loader ResourceLoader) ProgramOption {
	return func(p *Program) { p.resources = loader }
}

// WithExternalEvents seeds the program's external queue before start().
func WithExternalEvents(events ...ir.Event) ProgramOption {
	return func(p *Program) { p.queue = newExternalQueue(events) }
}

// NewProgram constructs an empty Program.
func NewProgram(opts ...ProgramOption) *Program {
	p := &Program{
		queue:  newExternalQueue(nil),
		global: bthread.NewScope(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegisterBThread queues body to be started at the next drain point
// (spec.md §4.4 step 5, or immediately before the first Start). name is
// resolved to "autoadded-<n>" if empty, n being a per-program
// monotonically increasing counter (spec.md §6).
func (p *Program) RegisterBThread(name string, body syncstmt.BodyFunc) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("autoadded-%d", p.nextAutoID)
		p.nextAutoID++
	}
	p.pending = append(p.pending, pendingRegistration{name: name, body: body})
	return name
}

// EnqueueExternalEvent appends e to the external queue. Thread-safe: may
// be called by the host program between cycles, or by a running b-thread
// body (or a break-upon handler) during a cycle.
func (p *Program) EnqueueExternalEvent(e ir.Event) {
	p.queue.Enqueue(e)
}

// SetDaemonMode and IsDaemonMode control whether the program waits for
// external events instead of terminating when nothing is selectable.
func (p *Program) SetDaemonMode(daemon bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.daemon = daemon
}

func (p *Program) IsDaemonMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.daemon
}

// LoadResource delegates to the configured ResourceLoader.
func (p *Program) LoadResource(path string) ([]byte, error) {
	if p.resources == nil {
		return nil, fmt.Errorf("loadResource %q: no resource loader configured", path)
	}
	return p.resources.Load(path)
}

// GetTime returns the program's clock reading.
func (p *Program) GetTime() time.Time {
	return p.clock()
}

// SetGlobal publishes a named binding to the program's global scope.
func (p *Program) SetGlobal(name string, value any) {
	p.global.Set(name, value)
}

// GlobalScope exposes the globalScope.get test hook (spec.md §6).
func (p *Program) GlobalScope() *bthread.Scope {
	return p.global
}

// AddListener registers l to receive lifecycle callbacks.
func (p *Program) AddListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// RemoveListener unregisters l, a no-op if it was never added.
func (p *Program) RemoveListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.listeners {
		if existing == l {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

func (p *Program) notify(fn func(Listener)) {
	p.mu.Lock()
	ls := make([]Listener, len(p.listeners))
	copy(ls, p.listeners)
	p.mu.Unlock()
	for _, l := range ls {
		fn(l)
	}
}

func (p *Program) drainPending() []pendingRegistration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil
	}
	out := p.pending
	p.pending = nil
	return out
}

func (p *Program) drainQueue() []ir.Event {
	return p.queue.Drain()
}

// QueueSignal returns a channel that receives whenever an external event is
// enqueued (spec.md §5, "Cancellation and timeouts" / daemon mode). The
// runner selects on it while a daemon-mode program has nothing selectable,
// instead of busy-polling.
func (p *Program) QueueSignal() <-chan struct{} {
	return p.queue.Wait()
}

func (p *Program) autoIDSnapshot() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextAutoID
}

// bind returns the BreakCtx a specific b-thread's body or break-upon
// handler sees: every Program capability, plus that b-thread's own
// deterministic random sub-stream.
func (p *Program) bind(name string) syncstmt.BreakCtx {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.perThreadRand == nil {
		p.perThreadRand = make(map[string]*rand.Rand)
	}
	r, ok := p.perThreadRand[name]
	if !ok {
		r = rand.New(rand.NewSource(deriveSeed(p.seed, name)))
		p.perThreadRand[name] = r
	}
	return &boundHost{Program: p, name: name, rng: r}
}

// deriveSeed produces a deterministic per-name sub-seed from base, so
// every b-thread gets an independent, replay-stable random stream without
// any b-thread sharing a *rand.Rand with another running concurrently.
func deriveSeed(base int64, name string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", base, name)
	return int64(h.Sum64())
}

// boundHost adapts Program into the BreakCtx a single b-thread observes.
// It embeds *Program for every capability except Random, and additionally
// refuses Bsync outright — a break-upon handler is handed a boundHost
// directly (never wrapped in the bthread package's liveCtx, which is the
// only type that implements the suspension primitive), so any attempt to
// duck-type its way to Bsync lands here instead of a panic.
type boundHost struct {
	*Program
	name string
	rng  *rand.Rand
}

func (b *boundHost) Random() *rand.Rand { return b.rng }

func (b *boundHost) Bsync(syncstmt.Statement) (ir.Event, error) {
	return ir.Event{}, &BreakUponMisuseError{BThread: b.name}
}
