package bp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewing/bp"
)

func namesOf(seq []bp.Event) []string {
	out := make([]string, len(seq))
	for i, e := range seq {
		out[i] = e.Name
	}
	return out
}

// Scenario 1: hot/cold alternation, tie-broken by registration order, with
// a final allDone request once the alternator's three rounds complete.
func TestScenarioHotColdAlternation(t *testing.T) {
	hot := bp.NewEvent("hot")
	cold := bp.NewEvent("cold")
	allDone := bp.NewEvent("allDone")

	prog := bp.NewProgram()
	prog.RegisterBThread("A", func(ctx bp.Ctx) {
		for i := 0; i < 3; i++ {
			if _, err := ctx.Bsync(bp.New(bp.Request(hot))); err != nil {
				return
			}
		}
	})
	prog.RegisterBThread("B", func(ctx bp.Ctx) {
		for i := 0; i < 3; i++ {
			if _, err := ctx.Bsync(bp.New(bp.Request(cold))); err != nil {
				return
			}
		}
	})
	prog.RegisterBThread("C", func(ctx bp.Ctx) {
		for i := 0; i < 3; i++ {
			if _, err := ctx.Bsync(bp.New(bp.WaitFor(bp.Singleton(cold)), bp.Block(bp.Singleton(hot)))); err != nil {
				return
			}
			if _, err := ctx.Bsync(bp.New(bp.WaitFor(bp.Singleton(hot)), bp.Block(bp.Singleton(cold)))); err != nil {
				return
			}
		}
		ctx.Bsync(bp.New(bp.Request(allDone)))
	})

	var seq []bp.Event
	result := prog.Run(context.Background(), func(_ bp.Snapshot, e bp.Event) { seq = append(seq, e) })

	require.NoError(t, result.Err)
	assert.Equal(t, bp.ExitNormal, result.Reason)
	assert.Equal(t,
		[]string{"cold", "hot", "cold", "hot", "cold", "hot", "allDone"},
		namesOf(seq),
	)
}

// Scenario 2: in daemon mode, a b-thread gated entirely on an external event
// waits, instead of deadlocking, until that event is enqueued from outside
// the run loop.
func TestScenarioExternalEventGate(t *testing.T) {
	gate := bp.NewEvent("gate")
	opened := bp.NewEvent("opened")

	prog := bp.NewProgram()
	prog.SetDaemonMode(true)
	prog.RegisterBThread("gatekeeper", func(ctx bp.Ctx) {
		if _, err := ctx.Bsync(bp.New(bp.WaitFor(bp.Singleton(gate)))); err != nil {
			return
		}
		ctx.Bsync(bp.New(bp.Request(opened)))
	})

	resultCh := make(chan bp.RunResult, 1)
	var seq []bp.Event
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() {
		resultCh <- prog.Run(ctx, func(_ bp.Snapshot, e bp.Event) { seq = append(seq, e) })
	}()

	time.Sleep(20 * time.Millisecond)
	prog.EnqueueExternalEvent(gate)

	select {
	case result := <-resultCh:
		require.NoError(t, result.Err)
		assert.Equal(t, bp.ExitNormal, result.Reason)
		assert.Equal(t, []string{"gate", "opened"}, namesOf(seq))
	case <-time.After(time.Second):
		t.Fatal("program never woke up once the gate event was enqueued")
	}
}

// Scenario 2b: the same gate, but non-daemon and never opened, deadlocks.
func TestScenarioExternalEventGateDeadlocksWithoutDaemonMode(t *testing.T) {
	gate := bp.NewEvent("gate")

	prog := bp.NewProgram()
	prog.RegisterBThread("gatekeeper", func(ctx bp.Ctx) {
		ctx.Bsync(bp.New(bp.WaitFor(bp.Singleton(gate))))
	})

	result := prog.Run(context.Background(), nil)
	assert.Equal(t, bp.ExitDeadlock, result.Reason)
	require.Error(t, result.Err)
}

// Scenario 3: a b-thread dynamically registers a new one mid-run; the new
// b-thread is drained and runs within the same overall program, its first
// statement taking effect the cycle after it was registered.
func TestScenarioDynamicRegistration(t *testing.T) {
	spawn := bp.NewEvent("spawn")
	leaf := bp.NewEvent("leaf")

	prog := bp.NewProgram()
	prog.RegisterBThread("spawner", func(ctx bp.Ctx) {
		if _, err := ctx.Bsync(bp.New(bp.Request(spawn))); err != nil {
			return
		}
		ctx.RegisterBThread("", func(ctx bp.Ctx) {
			ctx.Bsync(bp.New(bp.Request(leaf)))
		})
	})

	var seq []bp.Event
	result := prog.Run(context.Background(), func(_ bp.Snapshot, e bp.Event) { seq = append(seq, e) })

	require.NoError(t, result.Err)
	assert.Equal(t, []string{"spawn", "leaf"}, namesOf(seq))
}

// Scenario 4: an interrupt event removes a b-thread instead of resuming it
// normally, running its break-upon handler, which may publish to global
// scope but may not call Bsync.
func TestScenarioBreakUpon(t *testing.T) {
	tick := bp.NewEvent("tick")
	cancel := bp.NewEvent("cancel")

	prog := bp.NewProgram()
	prog.RegisterBThread("worker", func(ctx bp.Ctx) {
		ctx.Bsync(bp.New(
			bp.WaitFor(bp.Singleton(tick)),
			bp.Interrupt(bp.Singleton(cancel)),
			bp.WithBreakUpon(func(bctx bp.BreakCtx, selected bp.Event) {
				bctx.SetGlobal("cancelledBy", selected.Name)
			}),
		))
	})
	prog.RegisterBThread("canceller", func(ctx bp.Ctx) {
		ctx.Bsync(bp.New(bp.Request(cancel)))
	})

	result := prog.Run(context.Background(), nil)
	require.NoError(t, result.Err)
	assert.Equal(t, bp.ExitNormal, result.Reason)

	got, ok := prog.GlobalScope().Get("cancelledBy")
	require.True(t, ok)
	assert.Equal(t, "cancel", got)
}

// Scenario 5: Ctx.GetTime and Ctx.SetGlobal round-trip through the
// program's configured clock and global scope.
func TestScenarioGetTimeAndGlobalScopeRoundTrip(t *testing.T) {
	fixed := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)

	prog := bp.NewProgram(bp.WithClock(func() time.Time { return fixed }))
	prog.RegisterBThread("recorder", func(ctx bp.Ctx) {
		ctx.SetGlobal("observedAt", ctx.GetTime())
	})

	result := prog.Run(context.Background(), nil)
	require.NoError(t, result.Err)

	got, ok := prog.GlobalScope().Get("observedAt")
	require.True(t, ok)
	assert.Equal(t, fixed, got)
}

// Scenario 6: a Snapshot cannot be advanced twice.
func TestScenarioSnapshotReuse(t *testing.T) {
	x := bp.NewEvent("x")

	prog := bp.NewProgram()
	prog.RegisterBThread("only", func(ctx bp.Ctx) {
		ctx.Bsync(bp.New(bp.Request(x)))
	})

	snap, err := prog.Start()
	require.NoError(t, err)

	sel, ok, err := prog.Select(snap)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = prog.Advance(snap, sel.Event)
	require.NoError(t, err)

	_, err = prog.Advance(snap, sel.Event)
	assert.Error(t, err)
}
