package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun inserts a run record. Uses ON CONFLICT(id) DO NOTHING for
// idempotency — rerunning a trace-db write for the same run id is a no-op.
func (s *Store) WriteRun(ctx context.Context, runID string, startedAt time.Time, daemon bool, seed *int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, daemon, seed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, runID, startedAt.UTC().Format(time.RFC3339Nano), boolToInt(daemon), seed)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteCycle inserts one cycle's trace row. Uses ON CONFLICT(run_id, seq)
// DO NOTHING so replaying an already-traced run never duplicates rows.
func (s *Store) WriteCycle(ctx context.Context, runID string, seq int, eventName, eventHash, snapshotHash string, bthreadCount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles (run_id, seq, event_name, event_hash, snapshot_hash, bthread_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, runID, seq, eventName, eventHash, snapshotHash, bthreadCount)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	return nil
}

// WriteRunResult inserts the terminal outcome of a run. Uses ON
// CONFLICT(run_id) DO NOTHING — a run has exactly one result.
func (s *Store) WriteRunResult(ctx context.Context, runID, reason string, runErr error, cycles int) error {
	var errText *string
	if runErr != nil {
		s := runErr.Error()
		errText = &s
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_results (run_id, reason, error, cycles)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, runID, reason, errText, cycles)
	if err != nil {
		return fmt.Errorf("write run result: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
