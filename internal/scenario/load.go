package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/corewing/bp/internal/ir"
)

// Load parses scenario YAML from data with strict field validation —
// unknown fields (a typo like "extenal_events:") are rejected rather than
// silently ignored.
func Load(data []byte) (*ir.ScenarioSpec, error) {
	var y yamlSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&y); err != nil {
		return nil, fmt.Errorf("parse scenario yaml: %w", err)
	}
	spec := y.toIR()
	if err := Validate(spec); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return spec, nil
}

// LoadFile reads and parses a scenario file at path.
func LoadFile(path string) (*ir.ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return Load(data)
}

// Validate checks a ScenarioSpec for the fields every source format must
// supply, regardless of whether it was compiled from YAML or CUE.
func Validate(s *ir.ScenarioSpec) error {
	if s.Name == "" {
		return fmt.Errorf("scenario missing required field: name")
	}
	if len(s.BThreads) == 0 {
		return fmt.Errorf("scenario %q has no bthreads", s.Name)
	}
	for i, bt := range s.BThreads {
		if bt.Role == "" {
			return fmt.Errorf("scenario %q: bthreads[%d] missing required field: role", s.Name, i)
		}
	}
	for i, ev := range s.ExternalEvents {
		if ev.Event == "" {
			return fmt.Errorf("scenario %q: external_events[%d] missing required field: event", s.Name, i)
		}
		if ev.AfterCycle < 0 {
			return fmt.Errorf("scenario %q: external_events[%d] has negative after_cycle", s.Name, i)
		}
	}
	return nil
}
