// Package store persists a durable trace of a Behavioral Programming run:
// one row per cycle recording the selected event and the snapshot hash it
// produced, plus a row per run recording the run id and its eventual exit
// reason (spec.md §6 "persisted state layout"; SPEC_FULL.md §6 added
// persistence section).
//
// This is not live-snapshot persistence — a Snapshot's b-thread bodies are
// running goroutines, and per spec.md §6 a continuation is "delegated to
// the scripting host and treated as opaque." What store keeps is the
// replayable shell around that: enough to drive `bp replay` and the golden
// trace harness without resurrecting a goroutine's instruction pointer.
//
// Grounded on the teacher's internal/store package: SQLite opened with WAL
// mode and a single-connection pool (store.go), ON CONFLICT(...) DO
// NOTHING idempotent writes keyed by natural ids (write.go), and an
// embedded schema with PRAGMA user_version migrations.
package store
