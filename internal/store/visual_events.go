package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BoundingBox is an [x, y, w, h] rectangle in frame coordinates.
type BoundingBox struct {
	X, Y, W, H float64
}

// VisualEvent is one detection emitted by a vision worker .
type VisualEvent struct {
	ID               string
	CreatedAt        time.Time
	SegmentID        string
	SegmentStartedAt time.Time
	ChannelID        string
	OffsetSeconds    float64
	EventType        string
	BBox             *BoundingBox
	Confidence       *float64
	Payload          json.RawMessage
	VideoPath        string
	ScreenshotPath   string
}

// InsertVisualEvent records one vision-worker detection. Visual events
// are append-only (keyed by id, created_at), not upserted.
func (s *Store) InsertVisualEvent(ctx context.Context, ev VisualEvent) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	var bx, by, bw, bh sql.NullFloat64
	if ev.BBox != nil {
		bx = sql.NullFloat64{Float64: ev.BBox.X, Valid: true}
		by = sql.NullFloat64{Float64: ev.BBox.Y, Valid: true}
		bw = sql.NullFloat64{Float64: ev.BBox.W, Valid: true}
		bh = sql.NullFloat64{Float64: ev.BBox.H, Valid: true}
	}

	const stmt = `
		INSERT INTO visual_events (id, segment_id, segment_started_at, channel_id, offset_seconds, event_type,
			bbox_x, bbox_y, bbox_w, bbox_h, confidence, payload, video_path, screenshot_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := s.conn.ExecContext(ctx, stmt, ev.ID, ev.SegmentID, ev.SegmentStartedAt, ev.ChannelID, ev.OffsetSeconds,
		ev.EventType, bx, by, bw, bh, nullableFloat(ev.Confidence), nullableJSON(ev.Payload), ev.VideoPath, ev.ScreenshotPath)
	if err != nil {
		return "", fmt.Errorf("insert visual event: %w", err)
	}
	return ev.ID, nil
}

// VisualEventFilter is the read API's `/visual-events` and
// `/screenshots` query parameters.
type VisualEventFilter struct {
	ChannelID string
	EventType string
	Region    string
	Query     string
	Since     *time.Time
	Until     *time.Time
	MinConf   *float64
	Limit     int
	Offset    int
}

// ListVisualEvents lists visual events with optional filters, newest-first.
func (s *Store) ListVisualEvents(ctx context.Context, f VisualEventFilter) ([]*VisualEvent, error) {
	q := `SELECT id, created_at, segment_id, segment_started_at, channel_id, offset_seconds, event_type,
		bbox_x, bbox_y, bbox_w, bbox_h, confidence, payload, video_path, screenshot_path FROM visual_events WHERE 1=1`
	var args []any

	if f.ChannelID != "" {
		q += ` AND channel_id = ?`
		args = append(args, f.ChannelID)
	}
	if f.EventType != "" {
		q += ` AND event_type = ?`
		args = append(args, f.EventType)
	}
	if f.Region != "" {
		q += ` AND json_extract_string(payload, '$.region') = ?`
		args = append(args, f.Region)
	}
	if f.Query != "" {
		q += ` AND json_extract_string(payload, '$.text') ILIKE ?`
		args = append(args, "%"+f.Query+"%")
	}
	if f.Since != nil {
		q += ` AND created_at >= ?`
		args = append(args, *f.Since)
	}
	if f.Until != nil {
		q += ` AND created_at < ?`
		args = append(args, *f.Until)
	}
	if f.MinConf != nil {
		q += ` AND confidence >= ?`
		args = append(args, *f.MinConf)
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list visual events: %w", err)
	}
	defer rows.Close()

	var out []*VisualEvent
	for rows.Next() {
		var ev VisualEvent
		var bx, by, bw, bh, conf sql.NullFloat64
		var payload sql.NullString
		if err := rows.Scan(&ev.ID, &ev.CreatedAt, &ev.SegmentID, &ev.SegmentStartedAt, &ev.ChannelID,
			&ev.OffsetSeconds, &ev.EventType, &bx, &by, &bw, &bh, &conf, &payload, &ev.VideoPath, &ev.ScreenshotPath); err != nil {
			return nil, fmt.Errorf("scan visual event: %w", err)
		}
		if bx.Valid {
			ev.BBox = &BoundingBox{X: bx.Float64, Y: by.Float64, W: bw.Float64, H: bh.Float64}
		}
		if conf.Valid {
			c := conf.Float64
			ev.Confidence = &c
		}
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}
