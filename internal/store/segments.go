package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// segmentNamespace seeds the deterministic segment-id hash so re-scans
// produce the same identity without coordination .
var segmentNamespace = uuid.MustParse("6f6e7e2e-6d6f-6261-7368-65722d736567")

// SegmentID derives a segment's deterministic identity from its channel
// and start time: a namespaced hash of
// `channel_id ":" started_at_iso`.
func SegmentID(channelID string, startedAt time.Time) string {
	name := channelID + ":" + startedAt.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(segmentNamespace, []byte(name)).String()
}

// Segment is a fixed-duration slice of a recording's output .
type Segment struct {
	ID                string
	RecordingID       string
	ChannelID         string
	StartedAt         time.Time
	EndedAt           sql.NullTime
	AudioPath         sql.NullString
	VideoPath         sql.NullString
	SizeBytes         int64
	Status            string
	ASRStatus         string
	OCRStatus         string
	ObjectsStatus     string
	FacesStatus       string
	ScreenshotsStatus string
	EntitiesStatus    string
	AlertsStatus      string
}

// UpsertSegment upserts one detected file into its segment row, applying
// the merge semantics: preserve existing non-null media
// paths, take the maximum known file size, overwrite ended-at and
// status. Satisfies internal/capture.SegmentSink.
func (s *Store) UpsertSegment(ctx context.Context, channelID, kind, path string, startedAt, endedAt time.Time, sizeBytes int64) error {
	id := SegmentID(channelID, startedAt)

	var audioPath, videoPath sql.NullString
	switch kind {
	case "audio":
		audioPath = sql.NullString{String: path, Valid: true}
	case "video":
		videoPath = sql.NullString{String: path, Valid: true}
	}

	const stmt = `
		INSERT INTO segments (id, recording_id, channel_id, started_at, ended_at, audio_path, video_path, size_bytes, status)
		VALUES (?, '', ?, ?, ?, ?, ?, ?, 'completed')
		ON CONFLICT (id, started_at) DO UPDATE SET
			audio_path = COALESCE(segments.audio_path, excluded.audio_path),
			video_path = COALESCE(segments.video_path, excluded.video_path),
			size_bytes = GREATEST(segments.size_bytes, excluded.size_bytes),
			ended_at = excluded.ended_at,
			status = excluded.status;
	`
	err := withConflictRetry(func() error {
		_, execErr := s.conn.ExecContext(ctx, stmt, id, channelID, startedAt, endedAt, audioPath, videoPath, sizeBytes)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("upsert segment %s: %w", id, err)
	}
	return nil
}

// ListSegments lists segments with optional channel/time/status filters.
func (s *Store) ListSegments(ctx context.Context, channelID string, start, end *time.Time, status string, limit, offset int) ([]*Segment, error) {
	q := `SELECT id, recording_id, channel_id, started_at, ended_at, audio_path, video_path, size_bytes,
		status, asr_status, ocr_status, objects_status, faces_status, screenshots_status, entities_status, alerts_status
		FROM segments WHERE 1=1`
	var args []any

	if channelID != "" {
		q += ` AND channel_id = ?`
		args = append(args, channelID)
	}
	if start != nil {
		q += ` AND started_at >= ?`
		args = append(args, *start)
	}
	if end != nil {
		q += ` AND started_at < ?`
		args = append(args, *end)
	}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY started_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()
	return scanSegments(rows)
}

// GetSegment fetches one segment by its composite (id, started_at)
// identity, used by internal/worker's fetch step ( step 1).
func (s *Store) GetSegment(ctx context.Context, id string, startedAt time.Time) (*Segment, error) {
	const q = `SELECT id, recording_id, channel_id, started_at, ended_at, audio_path, video_path, size_bytes,
		status, asr_status, ocr_status, objects_status, faces_status, screenshots_status, entities_status, alerts_status
		FROM segments WHERE id = ? AND started_at = ?`

	rows, err := s.conn.QueryContext(ctx, q, id, startedAt)
	if err != nil {
		return nil, fmt.Errorf("get segment %s: %w", id, err)
	}
	defer rows.Close()

	segs, err := scanSegments(rows)
	if err != nil {
		return nil, fmt.Errorf("get segment %s: %w", id, err)
	}
	if len(segs) == 0 {
		return nil, sql.ErrNoRows
	}
	return segs[0], nil
}

// ListSegmentsMissingTranscripts uses a negative-existence predicate on
// the transcript table.
func (s *Store) ListSegmentsMissingTranscripts(ctx context.Context, channelID string, since *time.Time, limit int) ([]*Segment, error) {
	return s.listSegmentsMissingStage(ctx, "transcripts", channelID, since, limit, "")
}

// ListSegmentsMissingVision lists segments lacking a vision artifact,
// driven by kind ("objects_segment", "faces_segment", "ocr_segment",
// "screenshots_segment") mapped to its per-stage status column.
func (s *Store) ListSegmentsMissingVision(ctx context.Context, kind, channelID string, since *time.Time, limit int) ([]*Segment, error) {
	column, ok := visionStatusColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown vision kind %q", kind)
	}
	return s.listSegmentsMissingStage(ctx, "", channelID, since, limit, column)
}

var visionStatusColumns = map[string]string{
	"ocr_segment":         "ocr_status",
	"objects_segment":     "objects_status",
	"faces_segment":       "faces_status",
	"screenshots_segment": "screenshots_status",
}

// listSegmentsMissingStage implements both the transcript negative-join
// form and the vision per-stage-status form from one helper.
func (s *Store) listSegmentsMissingStage(ctx context.Context, antiJoinTable, channelID string, since *time.Time, limit int, statusColumn string) ([]*Segment, error) {
	q := `SELECT s.id, s.recording_id, s.channel_id, s.started_at, s.ended_at, s.audio_path, s.video_path, s.size_bytes,
		s.status, s.asr_status, s.ocr_status, s.objects_status, s.faces_status, s.screenshots_status, s.entities_status, s.alerts_status
		FROM segments s WHERE 1=1`
	var args []any

	if antiJoinTable != "" {
		q += fmt.Sprintf(` AND NOT EXISTS (SELECT 1 FROM %s t WHERE t.segment_id = s.id AND t.segment_started_at = s.started_at)`, antiJoinTable)
	}
	if statusColumn != "" {
		q += fmt.Sprintf(` AND s.%s = 'pending'`, statusColumn)
	}
	if channelID != "" {
		q += ` AND s.channel_id = ?`
		args = append(args, channelID)
	}
	if since != nil {
		q += ` AND s.started_at >= ?`
		args = append(args, *since)
	}
	q += ` ORDER BY s.started_at ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list segments missing stage: %w", err)
	}
	defer rows.Close()
	return scanSegments(rows)
}

// SetStageStatus updates one per-stage status column for a segment,
// used by schedulers (→ queued) and workers (→ processing/completed/failed).
func (s *Store) SetStageStatus(ctx context.Context, segmentID string, startedAt time.Time, stage, status string) error {
	column, ok := map[string]string{
		"asr":         "asr_status",
		"ocr":         "ocr_status",
		"objects":     "objects_status",
		"faces":       "faces_status",
		"screenshots": "screenshots_status",
		"entities":    "entities_status",
		"alerts":      "alerts_status",
	}[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}

	stmt := fmt.Sprintf(`UPDATE segments SET %s = ? WHERE id = ? AND started_at = ?`, column)
	_, err := s.conn.ExecContext(ctx, stmt, status, segmentID, startedAt)
	if err != nil {
		return fmt.Errorf("set stage status %s: %w", stage, err)
	}
	return nil
}

func scanSegments(rows *sql.Rows) ([]*Segment, error) {
	var out []*Segment
	for rows.Next() {
		var seg Segment
		if err := rows.Scan(
			&seg.ID, &seg.RecordingID, &seg.ChannelID, &seg.StartedAt, &seg.EndedAt,
			&seg.AudioPath, &seg.VideoPath, &seg.SizeBytes, &seg.Status,
			&seg.ASRStatus, &seg.OCRStatus, &seg.ObjectsStatus, &seg.FacesStatus,
			&seg.ScreenshotsStatus, &seg.EntitiesStatus, &seg.AlertsStatus,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, &seg)
	}
	return out, rows.Err()
}
