package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobRecord is the persisted shape of a job. Status and compliance level are
// plain strings so the store never imports lifecycle packages.
type JobRecord struct {
	ID              string
	Status          string
	InputPath       string
	OutputPath      string
	ComplianceLevel string
	AppliedTier     int
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PersistJob writes the record, inserting on first sight and updating the
// mutable columns afterwards. created_at survives updates.
func (s *Store) PersistJob(ctx context.Context, rec JobRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("persist job: empty id")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	created := now
	if !rec.CreatedAt.IsZero() {
		created = rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (
            id, status, input_path, output_path, compliance_level,
            applied_tier, error_message, progress_stage, progress_percent,
            progress_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            output_path = excluded.output_path,
            compliance_level = excluded.compliance_level,
            applied_tier = excluded.applied_tier,
            error_message = excluded.error_message,
            progress_stage = excluded.progress_stage,
            progress_percent = excluded.progress_percent,
            progress_message = excluded.progress_message,
            updated_at = excluded.updated_at`,
		rec.ID,
		rec.Status,
		rec.InputPath,
		rec.OutputPath,
		rec.ComplianceLevel,
		rec.AppliedTier,
		rec.ErrorMessage,
		rec.ProgressStage,
		rec.ProgressPercent,
		rec.ProgressMessage,
		created,
		now,
	)
	if err != nil {
		return fmt.Errorf("persist job %s: %w", rec.ID, err)
	}
	return nil
}

// GetJob returns one record or ErrNotFound.
func (s *Store) GetJob(ctx context.Context, id string) (*JobRecord, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, input_path, output_path, compliance_level,
            applied_tier, error_message, progress_stage, progress_percent,
            progress_message, created_at, updated_at
        FROM jobs WHERE id = ?`, id)
	rec, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return rec, nil
}

// ListJobs returns records newest-first, optionally filtered by status.
func (s *Store) ListJobs(ctx context.Context, statuses ...string) ([]JobRecord, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, status, input_path, output_path, compliance_level,
            applied_tier, error_message, progress_stage, progress_percent,
            progress_message, created_at, updated_at
        FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := strings.Repeat("?,", len(statuses))
		query += " WHERE status IN (" + placeholders[:len(placeholders)-1] + ")"
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return records, nil
}

// DeleteJob removes a job row and its event history.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM job_events WHERE job_id = ?", id); err != nil {
		return fmt.Errorf("delete job events %s: %w", id, err)
	}
	if _, err := s.execWithRetry(ctx, "DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// ClearByStatus removes all jobs in the given statuses and returns how many
// rows were deleted.
func (s *Store) ClearByStatus(ctx context.Context, statuses ...string) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(statuses))
	clause := "(" + placeholders[:len(placeholders)-1] + ")"
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}

	if _, err := s.execWithRetry(ctx,
		"DELETE FROM job_events WHERE job_id IN (SELECT id FROM jobs WHERE status IN "+clause+")",
		args...); err != nil {
		return 0, fmt.Errorf("clear job events: %w", err)
	}
	res, err := s.execWithRetry(ctx, "DELETE FROM jobs WHERE status IN "+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// Stats reports how many jobs sit in each status.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*JobRecord, error) {
	var rec JobRecord
	var created, updated string
	if err := row.Scan(
		&rec.ID,
		&rec.Status,
		&rec.InputPath,
		&rec.OutputPath,
		&rec.ComplianceLevel,
		&rec.AppliedTier,
		&rec.ErrorMessage,
		&rec.ProgressStage,
		&rec.ProgressPercent,
		&rec.ProgressMessage,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTimestamp(created)
	rec.UpdatedAt = parseTimestamp(updated)
	return &rec, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
