package store

import (
	"context"
	"fmt"
)

// CycleRow is one persisted cycle in a run's trace.
type CycleRow struct {
	Seq          int
	EventName    string
	EventHash    string
	SnapshotHash string
	BThreadCount int
}

// RunRow is one persisted run header.
type RunRow struct {
	ID        string
	StartedAt string
	Daemon    bool
	Seed      *int64
}

// ReadCycles returns every traced cycle for runID, ordered by seq — the
// sequence the `bp replay` command and the golden-trace harness walk.
func (s *Store) ReadCycles(ctx context.Context, runID string) ([]CycleRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, event_name, event_hash, snapshot_hash, bthread_count
		FROM cycles
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var c CycleRow
		if err := rows.Scan(&c.Seq, &c.EventName, &c.EventHash, &c.SnapshotHash, &c.BThreadCount); err != nil {
			return nil, fmt.Errorf("read cycles: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cycles: %w", err)
	}
	return out, nil
}

// ListRuns returns every run header in insertion order, newest last.
func (s *Store) ListRuns(ctx context.Context) ([]RunRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, daemon, seed FROM runs ORDER BY started_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var daemon int
		if err := rows.Scan(&r.ID, &r.StartedAt, &daemon, &r.Seed); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		r.Daemon = daemon != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
