package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity is a dictionary-matched span in a transcript .
type Entity struct {
	ID          string
	SegmentID   string
	ChannelID   string
	SpanStart   int
	SpanEnd     int
	Label       string
	SourceModel string
	CreatedAt   time.Time
}

// Alert is a dictionary-matched phrase hit in a transcript .
type Alert struct {
	ID            string
	ChannelID     string
	SegmentID     string
	MatchedPhrase string
	Category      string
	Score         *float64
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// InsertEntity records one entity match emitted by the NLP entities worker.
func (s *Store) InsertEntity(ctx context.Context, e Entity) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const stmt = `INSERT INTO entities (id, segment_id, channel_id, span_start, span_end, label, source_model) VALUES (?, ?, ?, ?, ?, ?, ?);`
	_, err := s.conn.ExecContext(ctx, stmt, e.ID, e.SegmentID, e.ChannelID, e.SpanStart, e.SpanEnd, e.Label, e.SourceModel)
	if err != nil {
		return "", fmt.Errorf("insert entity: %w", err)
	}
	return e.ID, nil
}

// InsertAlert records one alert match emitted by the NLP alerts worker.
func (s *Store) InsertAlert(ctx context.Context, a Alert) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const stmt = `INSERT INTO alerts (id, channel_id, segment_id, matched_phrase, category, score, payload) VALUES (?, ?, ?, ?, ?, ?, ?);`
	_, err := s.conn.ExecContext(ctx, stmt, a.ID, a.ChannelID, a.SegmentID, a.MatchedPhrase, a.Category, nullableFloat(a.Score), nullableJSON(a.Payload))
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return a.ID, nil
}

// ListEntities lists entities for a segment.
func (s *Store) ListEntities(ctx context.Context, segmentID string) ([]*Entity, error) {
	const q = `SELECT id, segment_id, channel_id, span_start, span_end, label, source_model, created_at FROM entities WHERE segment_id = ? ORDER BY span_start`
	rows, err := s.conn.QueryContext(ctx, q, segmentID)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []*Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.SegmentID, &e.ChannelID, &e.SpanStart, &e.SpanEnd, &e.Label, &e.SourceModel, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ListAlerts lists alerts with optional channel filter, newest-first.
func (s *Store) ListAlerts(ctx context.Context, channelID string, limit, offset int) ([]*Alert, error) {
	q := `SELECT id, channel_id, segment_id, matched_phrase, category, score, payload, created_at FROM alerts WHERE 1=1`
	var args []any
	if channelID != "" {
		q += ` AND channel_id = ?`
		args = append(args, channelID)
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		var a Alert
		var score sql.NullFloat64
		var payload sql.NullString
		if err := rows.Scan(&a.ID, &a.ChannelID, &a.SegmentID, &a.MatchedPhrase, &a.Category, &score, &payload, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if score.Valid {
			v := score.Float64
			a.Score = &v
		}
		if payload.Valid {
			a.Payload = json.RawMessage(payload.String)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
