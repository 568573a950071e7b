package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventRecord is one persisted lifecycle event. Details carries the original
// payload as JSON, or nil when the event had none.
type EventRecord struct {
	ID        int64
	JobID     string
	Type      string
	Message   string
	Details   json.RawMessage
	CreatedAt time.Time
}

// AppendEvent records one event at the end of a job's history.
func (s *Store) AppendEvent(ctx context.Context, jobID, eventType, message string, details any) error {
	var detailsJSON any
	if details != nil {
		encoded, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshal event details: %w", err)
		}
		detailsJSON = string(encoded)
	}

	_, err := s.execWithRetry(ctx,
		`INSERT INTO job_events (job_id, event_type, message, details_json, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		jobID,
		eventType,
		message,
		detailsJSON,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append event %s/%s: %w", jobID, eventType, err)
	}
	return nil
}

// EventsForJob returns a job's events in append order.
func (s *Store) EventsForJob(ctx context.Context, jobID string) ([]EventRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, event_type, message, details_json, created_at
         FROM job_events WHERE job_id = ? ORDER BY id ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("events for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var rec EventRecord
		var details sql.NullString
		var created string
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.Type, &rec.Message, &details, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if details.Valid {
			rec.Details = json.RawMessage(details.String)
		}
		rec.CreatedAt = parseTimestamp(created)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events for job %s: %w", jobID, err)
	}
	return records, nil
}
