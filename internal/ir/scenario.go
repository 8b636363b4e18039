package ir

// ScenarioSpec is the compiled, source-agnostic form of a Behavioral
// Programming test scenario: which b-threads to register, the external
// events to enqueue and when, and the trace a correct run is expected to
// produce. Both internal/scenario (YAML fixtures) and internal/compiler
// (CUE scenario language) compile down to this same shape, so the test
// harness only ever has to drive one type regardless of source format.
type ScenarioSpec struct {
	Name            string
	Description     string
	Daemon          bool
	Seed            *int64
	BThreads        []BThreadSpec
	ExternalEvents  []ExternalEventSpec
	ExpectedTrace   []string
	ExpectedGlobals map[string]any
	ExpectedReason  string
}

// BThreadSpec names one b-thread to register and the role (a body
// registered in the harness's body registry) it should run.
type BThreadSpec struct {
	Name   string
	Role   string
	Params map[string]any
}

// ExternalEventSpec is one entry in a scenario's external-event timeline.
type ExternalEventSpec struct {
	Event      string
	AfterCycle int
}
