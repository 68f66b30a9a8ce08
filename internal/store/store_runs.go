package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, status, run_trigger, item_count, plan_json, result_json, success_count, failure_count, error_message, needs_review, review_reason, created_at, updated_at"

// NewRun inserts a pending run. Trigger records what started it ("schedule"
// or "manual").
func (s *Store) NewRun(ctx context.Context, trigger string) (*Run, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (status, run_trigger, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		StatusPending,
		nullableString(trigger),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a run by identifier. Missing runs return (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Update persists changes to an existing run.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	run.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE runs
         SET status = ?, run_trigger = ?, item_count = ?, plan_json = ?, result_json = ?,
             success_count = ?, failure_count = ?, error_message = ?,
             needs_review = ?, review_reason = ?, updated_at = ?
         WHERE id = ?`,
		run.Status,
		nullableString(run.Trigger),
		run.ItemCount,
		nullableString(run.PlanJSON),
		nullableString(run.ResultJSON),
		run.SuccessCount,
		run.FailureCount,
		nullableString(run.ErrorMessage),
		boolToInt(run.NeedsReview),
		nullableString(run.ReviewReason),
		run.UpdatedAt.Format(time.RFC3339Nano),
		run.ID,
	); err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// NextPending claims the oldest pending run and moves it to analyzing.
// Returns (nil, nil) when no pending run exists.
func (s *Store) NextPending(ctx context.Context) (*Run, error) {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY id LIMIT 1`, StatusPending)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim run: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		StatusAnalyzing, now.Format(time.RFC3339Nano), run.ID,
	); err != nil {
		return nil, fmt.Errorf("mark run analyzing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	run.Status = StatusAnalyzing
	run.UpdatedAt = now
	return run, nil
}

// List returns runs newest-first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           int64
		statusStr    string
		trigger      sql.NullString
		itemCount    sql.NullInt64
		planJSON     sql.NullString
		resultJSON   sql.NullString
		successCount sql.NullInt64
		failureCount sql.NullInt64
		errorMessage sql.NullString
		needsReview  sql.NullInt64
		reviewReason sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&trigger,
		&itemCount,
		&planJSON,
		&resultJSON,
		&successCount,
		&failureCount,
		&errorMessage,
		&needsReview,
		&reviewReason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		Status:       Status(statusStr),
		Trigger:      trigger.String,
		ItemCount:    int(itemCount.Int64),
		PlanJSON:     planJSON.String,
		ResultJSON:   resultJSON.String,
		SuccessCount: int(successCount.Int64),
		FailureCount: int(failureCount.Int64),
		ErrorMessage: errorMessage.String,
		ReviewReason: reviewReason.String,
	}
	if needsReview.Valid {
		run.NeedsReview = needsReview.Int64 != 0
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
