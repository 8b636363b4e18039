package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesBThreadsAndExternalEvents(t *testing.T) {
	data := []byte(`
name: gate
daemon: true
bthreads:
  - name: gatekeeper
    role: gate
    params:
      wait_for: gate
      then_request: opened
external_events:
  - event: gate
    after_cycle: 0
expected_trace: [gate, opened]
`)

	spec, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, "gate", spec.Name)
	assert.True(t, spec.Daemon)
	require.Len(t, spec.BThreads, 1)
	assert.Equal(t, "gate", spec.BThreads[0].Role)
	assert.Equal(t, "gatekeeper", spec.BThreads[0].Name)
	require.Len(t, spec.ExternalEvents, 1)
	assert.Equal(t, "gate", spec.ExternalEvents[0].Event)
	assert.Equal(t, []string{"gate", "opened"}, spec.ExpectedTrace)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	data := []byte(`
name: typo
bthreads:
  - role: request
extenal_events: []
`)
	_, err := Load(data)
	assert.Error(t, err)
}

func TestLoadRejectsMissingName(t *testing.T) {
	data := []byte(`
bthreads:
  - role: request
`)
	_, err := Load(data)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyBThreads(t *testing.T) {
	data := []byte(`name: empty`)
	_, err := Load(data)
	assert.Error(t, err)
}

func TestLoadRejectsBThreadMissingRole(t *testing.T) {
	data := []byte(`
name: missing_role
bthreads:
  - name: x
`)
	_, err := Load(data)
	assert.Error(t, err)
}
