package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewing/bp/internal/engine"
	"github.com/corewing/bp/internal/eventset"
	"github.com/corewing/bp/internal/ir"
	"github.com/corewing/bp/internal/syncstmt"
)

func TestRunReachesNormalExit(t *testing.T) {
	done := ir.NewEvent("done")
	program := engine.NewProgram()
	program.RegisterBThread("only", func(ctx syncstmt.Ctx) {
		ctx.Bsync(syncstmt.New(syncstmt.Request(done)))
	})

	r := New(program, engine.NewArbiter(program))

	var seen []ir.Event
	result := r.Run(context.Background(), func(_ engine.Snapshot, e ir.Event) {
		seen = append(seen, e)
	})

	assert.Equal(t, ExitNormal, result.Reason)
	assert.NoError(t, result.Err)
	assert.Equal(t, 1, result.Cycles)
	require.Len(t, seen, 1)
	assert.Equal(t, "done", seen[0].Name)
}

func TestRunReportsDeadlock(t *testing.T) {
	unreachable := ir.NewEvent("unreachable")
	program := engine.NewProgram()
	program.RegisterBThread("stuck", func(ctx syncstmt.Ctx) {
		ctx.Bsync(syncstmt.New(syncstmt.WaitFor(eventset.Singleton(unreachable))))
	})

	r := New(program, engine.NewArbiter(program))
	result := r.Run(context.Background(), nil)

	assert.Equal(t, ExitDeadlock, result.Reason)
	var deadlock *engine.DeadlockError
	require.ErrorAs(t, result.Err, &deadlock)
	assert.Equal(t, []string{"stuck"}, deadlock.Waiting)
}

func TestRunWaitsForExternalEventInDaemonMode(t *testing.T) {
	gate := ir.NewEvent("gate")
	program := engine.NewProgram()
	program.SetDaemonMode(true)
	program.RegisterBThread("waiter", func(ctx syncstmt.Ctx) {
		ctx.Bsync(syncstmt.New(syncstmt.WaitFor(eventset.Singleton(gate))))
	})

	r := New(program, engine.NewArbiter(program))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resultCh := make(chan Result, 1)
	go func() { resultCh <- r.Run(ctx, nil) }()

	time.Sleep(20 * time.Millisecond)
	program.EnqueueExternalEvent(gate)

	select {
	case result := <-resultCh:
		assert.Equal(t, ExitNormal, result.Reason)
	case <-time.After(time.Second):
		t.Fatal("Run did not wake up after the gate event was enqueued")
	}
}

func TestRunHonorsContextCancellationAtCycleBoundary(t *testing.T) {
	x := ir.NewEvent("x")
	program := engine.NewProgram()
	program.SetDaemonMode(true)
	program.RegisterBThread("patient", func(ctx syncstmt.Ctx) {
		ctx.Bsync(syncstmt.New(syncstmt.WaitFor(eventset.Singleton(x))))
	})

	r := New(program, engine.NewArbiter(program))
	ctx, cancel := context.WithCancel(context.Background())

	resultCh := make(chan Result, 1)
	go func() { resultCh <- r.Run(ctx, nil) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case result := <-resultCh:
		assert.Equal(t, ExitAborted, result.Reason)
		assert.ErrorIs(t, result.Err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not observe context cancellation")
	}
}
