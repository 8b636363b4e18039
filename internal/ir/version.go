package ir

// Version constants for the IR schema and the engine itself.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// EngineVersion is the arbiter/engine version. Neither traces nor the
	// trace store record it.
	EngineVersion = "0.1.0"
)
