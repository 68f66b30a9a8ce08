package store

import (
	"context"
	"fmt"
	"time"
)

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates run state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusApplied:
			health.Applied += count
		case StatusFailed:
			health.Failed += count
		default:
			if IsProcessingStatus(status) {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// RetryFailed re-queues failed runs. When ids are given only those runs are
// touched; otherwise all failed runs reset. Returns the number of runs moved
// back to pending.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	query := `UPDATE runs
	          SET status = ?, error_message = NULL, needs_review = 0, review_reason = NULL, updated_at = ?
	          WHERE status = ?`
	args := []any{StatusPending, timestamp, StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed runs: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted deletes applied runs, keeping history manageable.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs WHERE status = ?`, StatusApplied)
	if err != nil {
		return 0, fmt.Errorf("clear completed runs: %w", err)
	}
	return res.RowsAffected()
}

// ClearAll deletes every run regardless of status.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

// FailProcessing marks in-flight runs as failed with the supplied reason.
// Called on daemon shutdown so interrupted runs don't stay stuck in a
// processing status.
func (s *Store) FailProcessing(ctx context.Context, reason string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE status IN (?, ?)`,
		StatusFailed, reason, timestamp, StatusAnalyzing, StatusApplying,
	)
	if err != nil {
		return 0, fmt.Errorf("fail processing runs: %w", err)
	}
	return res.RowsAffected()
}
