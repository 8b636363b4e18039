// Package scenario defines the YAML fixture format the test harness and
// the `bp validate`/`bp run` CLI commands load scenarios from: a list of
// b-threads to register (by role, since a body is Go code and a fixture
// can only name which body to use), a timeline of external events to
// enqueue, the daemon flag, and the expected trace to compare against.
//
// Grounded on the teacher's internal/harness/scenario.go Scenario type —
// same shape (top-level metadata, a flow/timeline section, an assertions
// section), strict YAML decoding via gopkg.in/yaml.v3 to catch field-name
// typos, retargeted from action-invocation fixtures to Behavioral
// Programming b-thread/external-event fixtures.
package scenario
