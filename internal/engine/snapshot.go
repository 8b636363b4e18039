package engine

import (
	"sync/atomic"

	"github.com/corewing/bp/internal/bthread"
	"github.com/corewing/bp/internal/ir"
)

// Snapshot is the immutable program state at a cycle boundary (spec.md
// §3, component C7): the live b-threads, the external queue contents as
// of that boundary, the daemon flag, and a one-shot triggered guard.
//
// A Snapshot may be read concurrently and shared across exploration
// forks. The only thing that can happen to it is being advanced — and
// tryTrigger's atomic.Bool.CompareAndSwap ensures that even two goroutines
// racing to advance the very same Snapshot value produce at most one
// winner, with the loser seeing SnapshotReusedError, never a data race.
type Snapshot struct {
	BThreads   []bthread.Snapshot
	Queue      []ir.Event
	Daemon     bool
	NextAutoID int

	triggered *atomic.Bool
}

func newSnapshot(bthreads []bthread.Snapshot, queue []ir.Event, daemon bool, nextAutoID int) Snapshot {
	return Snapshot{
		BThreads:   bthreads,
		Queue:      queue,
		Daemon:     daemon,
		NextAutoID: nextAutoID,
		triggered:  new(atomic.Bool),
	}
}

// tryTrigger marks the snapshot triggered, returning false if some caller
// already triggered it (spec.md §4.4 step 1).
func (s Snapshot) tryTrigger() bool {
	return s.triggered.CompareAndSwap(false, true)
}

// Hash combines every live b-thread's hash with the queue contents,
// honoring spec.md §9's Open Question on queue sensitivity: pass
// queueSensitive=true (the default a caller should use) to make the
// external queue part of the snapshot's identity, or false to compare
// snapshots "modulo queue" the way the source's BProgramSyncSnapshot.equals
// does — useful for state-space exploration that wants to collapse
// queue-only differences.
func (s Snapshot) Hash(queueSensitive bool) (string, error) {
	bthreadHashes := make([]string, len(s.BThreads))
	for i, bt := range s.BThreads {
		h, err := bt.Hash()
		if err != nil {
			return "", err
		}
		bthreadHashes[i] = h
	}

	var queueHashes []string
	if queueSensitive {
		queueHashes = make([]string, len(s.Queue))
		for i, e := range s.Queue {
			queueHashes[i] = e.Hash()
		}
	}

	return ir.SnapshotHash(bthreadHashes, queueHashes, s.Daemon)
}
