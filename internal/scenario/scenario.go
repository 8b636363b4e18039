package scenario

import "github.com/corewing/bp/internal/ir"

// yamlSpec mirrors ir.ScenarioSpec with yaml tags; gopkg.in/yaml.v3 decodes
// into this shape and toIR converts it, keeping internal/ir free of a
// yaml.v3 import (foundational packages stay dependency-light).
type yamlSpec struct {
	Name            string                 `yaml:"name"`
	Description     string                 `yaml:"description,omitempty"`
	Daemon          bool                   `yaml:"daemon,omitempty"`
	Seed            *int64                 `yaml:"seed,omitempty"`
	BThreads        []yamlBThread          `yaml:"bthreads"`
	ExternalEvents  []yamlExternalEvent    `yaml:"external_events,omitempty"`
	ExpectedTrace   []string               `yaml:"expected_trace,omitempty"`
	ExpectedGlobals map[string]interface{} `yaml:"expected_globals,omitempty"`
	ExpectedReason  string                 `yaml:"expected_reason,omitempty"`
}

type yamlBThread struct {
	Name   string                 `yaml:"name,omitempty"`
	Role   string                 `yaml:"role"`
	Params map[string]interface{} `yaml:"params,omitempty"`
}

type yamlExternalEvent struct {
	Event      string `yaml:"event"`
	AfterCycle int    `yaml:"after_cycle,omitempty"`
}

func (y *yamlSpec) toIR() *ir.ScenarioSpec {
	spec := &ir.ScenarioSpec{
		Name:            y.Name,
		Description:     y.Description,
		Daemon:          y.Daemon,
		Seed:            y.Seed,
		ExpectedTrace:   y.ExpectedTrace,
		ExpectedGlobals: y.ExpectedGlobals,
		ExpectedReason:  y.ExpectedReason,
	}
	for _, bt := range y.BThreads {
		spec.BThreads = append(spec.BThreads, ir.BThreadSpec{
			Name:   bt.Name,
			Role:   bt.Role,
			Params: bt.Params,
		})
	}
	for _, ev := range y.ExternalEvents {
		spec.ExternalEvents = append(spec.ExternalEvents, ir.ExternalEventSpec{
			Event:      ev.Event,
			AfterCycle: ev.AfterCycle,
		})
	}
	return spec
}
