// Package ir provides the canonical value representation shared by events,
// sync statements, and program snapshots.
//
// This package contains type definitions and pure serialization helpers
// only. All other internal packages import ir; ir imports nothing internal.
// This keeps ir the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - No float values anywhere — payloads use int64, never float64, so
//     hashing and equality stay exact across platforms.
//   - All JSON tags use snake_case.
//   - Canonical serialization (MarshalCanonical) is the only form used for
//     content-addressed hashing; ordinary MarshalJSON is for humans/logs.
package ir
