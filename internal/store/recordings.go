package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recording is one continuous capture run for a channel .
type Recording struct {
	ID        string
	ChannelID string
	StartedAt time.Time
	EndedAt   sql.NullTime
	Status    string
}

// CreateRecording inserts a new running recording, satisfying
// internal/capture.RecordingStore.
func (s *Store) CreateRecording(ctx context.Context, channelID string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	const stmt = `INSERT INTO recordings (id, channel_id, started_at, status) VALUES (?, ?, ?, 'running')`
	if _, err := s.conn.ExecContext(ctx, stmt, id, channelID, startedAt); err != nil {
		return "", fmt.Errorf("create recording: %w", err)
	}
	return id, nil
}

// CompleteRecording sets ended_at and a terminal status, satisfying
// internal/capture.RecordingStore.
func (s *Store) CompleteRecording(ctx context.Context, recordingID string, endedAt time.Time, status string) error {
	const stmt = `UPDATE recordings SET ended_at = ?, status = ? WHERE id = ?`
	_, err := s.conn.ExecContext(ctx, stmt, endedAt, status, recordingID)
	if err != nil {
		return fmt.Errorf("complete recording %s: %w", recordingID, err)
	}
	return nil
}

// ListRecentRecordings lists recordings newest-first with optional filters.
func (s *Store) ListRecentRecordings(ctx context.Context, channelID string, since *time.Time, status string, limit, offset int) ([]*Recording, error) {
	q := `SELECT id, channel_id, started_at, ended_at, status FROM recordings WHERE 1=1`
	var args []any

	if channelID != "" {
		q += ` AND channel_id = ?`
		args = append(args, channelID)
	}
	if since != nil {
		q += ` AND started_at >= ?`
		args = append(args, *since)
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY started_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent recordings: %w", err)
	}
	defer rows.Close()

	var out []*Recording
	for rows.Next() {
		var r Recording
		if err := rows.Scan(&r.ID, &r.ChannelID, &r.StartedAt, &r.EndedAt, &r.Status); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
