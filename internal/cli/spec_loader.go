package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corewing/bp/internal/compiler"
	"github.com/corewing/bp/internal/ir"
	"github.com/corewing/bp/internal/scenario"
)

// loadScenarioFile compiles a scenario fixture from path, dispatching on
// its extension: .yaml/.yml go through internal/scenario, .cue through
// internal/compiler. Both converge on the same ir.ScenarioSpec.
func loadScenarioFile(path string) (*ir.ScenarioSpec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return scenario.LoadFile(path)
	case ".cue":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read scenario file: %w", err)
		}
		return compiler.Compile(string(data))
	default:
		return nil, fmt.Errorf("unrecognized scenario file extension %q (want .yaml, .yml, or .cue)", filepath.Ext(path))
	}
}
