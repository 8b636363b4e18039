package engine

import (
	"github.com/corewing/bp/internal/bthread"
	"github.com/corewing/bp/internal/ir"
)

// Listener receives lifecycle callbacks from a running program (spec.md
// §6). Every method is invoked from the arbiter's single-writer goroutine
// in the order spec.md §5 fixes for one super-step: interrupts, resumes
// (which carry no callback of their own), terminations, new-b-thread
// starts, then the snapshot itself. Implementations must not block or
// call back into the program.
type Listener interface {
	Started()
	SuperstepDone(snapshot Snapshot)
	EventSelected(snapshot Snapshot, event ir.Event)
	BThreadAdded(bt bthread.Snapshot)
	BThreadDone(name string)
	BThreadRemoved(name string)
	AssertionFailed(reason string)
	Ended()
	Halted(reason error)
}

// BaseListener implements every Listener method as a no-op. Embed it to
// override only the callbacks a particular listener cares about.
type BaseListener struct{}

func (BaseListener) Started()                                        {}
func (BaseListener) SuperstepDone(snapshot Snapshot)                  {}
func (BaseListener) EventSelected(snapshot Snapshot, event ir.Event)  {}
func (BaseListener) BThreadAdded(bt bthread.Snapshot)                 {}
func (BaseListener) BThreadDone(name string)                          {}
func (BaseListener) BThreadRemoved(name string)                       {}
func (BaseListener) AssertionFailed(reason string)                    {}
func (BaseListener) Ended()                                           {}
func (BaseListener) Halted(reason error)                              {}
