package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileParsesBThreadsAndExternalEvents(t *testing.T) {
	source := `
name: "gate"
daemon: true
bthreads: [
	{name: "gatekeeper", role: "gate", params: {wait_for: "gate", then_request: "opened"}},
]
external_events: [
	{event: "gate", after_cycle: 0},
]
expected_trace: ["gate", "opened"]
`
	spec, err := Compile(source)
	require.NoError(t, err)
	assert.Equal(t, "gate", spec.Name)
	assert.True(t, spec.Daemon)
	require.Len(t, spec.BThreads, 1)
	assert.Equal(t, "gate", spec.BThreads[0].Role)
	assert.Equal(t, "gatekeeper", spec.BThreads[0].Name)
	assert.Equal(t, "gate", spec.BThreads[0].Params["wait_for"])
	require.Len(t, spec.ExternalEvents, 1)
	assert.Equal(t, []string{"gate", "opened"}, spec.ExpectedTrace)
}

func TestCompileRequiresName(t *testing.T) {
	source := `
bthreads: [{role: "request"}]
`
	_, err := Compile(source)
	require.Error(t, err)
	var compileErr *CompileError
	assert.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "name", compileErr.Field)
}

func TestCompileRequiresAtLeastOneBThread(t *testing.T) {
	source := `
name: "empty"
bthreads: []
`
	_, err := Compile(source)
	assert.Error(t, err)
}

func TestCompileRejectsFloatParams(t *testing.T) {
	source := `
name: "bad"
bthreads: [{role: "request", params: {ratio: 0.5}}]
`
	_, err := Compile(source)
	require.Error(t, err)
	var compileErr *CompileError
	assert.ErrorAs(t, err, &compileErr)
}

func TestCompileSurfacesCUESyntaxErrors(t *testing.T) {
	source := `name: "unterminated`
	_, err := Compile(source)
	assert.Error(t, err)
}
