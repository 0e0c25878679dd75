package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Transcript is one ASR result for a segment .
type Transcript struct {
	SegmentID        string
	SegmentStartedAt time.Time
	Language         string
	Text             string
	TextNorm         sql.NullString
	Words            json.RawMessage
	Confidence       sql.NullFloat64
	ModelName        string
	ModelVersion     sql.NullString
	ProcessingTimeMs sql.NullInt64
	EngineTimeMs     sql.NullInt64
	CreatedAt        time.Time
}

// UpsertTranscript writes (or overwrites) a segment's transcript.
func (s *Store) UpsertTranscript(ctx context.Context, segmentID string, segmentStartedAt time.Time, text string, textNorm *string, language string, confidence *float64, words any, modelName string, modelVersion *string, processingTimeMs, engineTimeMs *int64) error {
	var wordsJSON []byte
	if words != nil {
		var err error
		wordsJSON, err = json.Marshal(words)
		if err != nil {
			return fmt.Errorf("marshal words: %w", err)
		}
	}

	const stmt = `
		INSERT INTO transcripts (segment_id, segment_started_at, language, text, text_norm, words, confidence, model_name, model_version, processing_time_ms, engine_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (segment_id, segment_started_at) DO UPDATE SET
			language = excluded.language,
			text = excluded.text,
			text_norm = excluded.text_norm,
			words = excluded.words,
			confidence = excluded.confidence,
			model_name = excluded.model_name,
			model_version = excluded.model_version,
			processing_time_ms = excluded.processing_time_ms,
			engine_time_ms = excluded.engine_time_ms;
	`
	_, err := s.conn.ExecContext(ctx, stmt, segmentID, segmentStartedAt, language, text,
		nullableString(textNorm), nullableJSON(wordsJSON), nullableFloat(confidence), modelName,
		nullableString(modelVersion), nullableInt(processingTimeMs), nullableInt(engineTimeMs))
	if err != nil {
		return fmt.Errorf("upsert transcript %s: %w", segmentID, err)
	}
	return nil
}

// GetTranscriptText fetches one segment's transcript text, used by the
// NLP stages (entities, alerts) to populate worker.Segment.TranscriptText
// before running, per their Needs{Transcript: true}.
func (s *Store) GetTranscriptText(ctx context.Context, segmentID string, startedAt time.Time) (string, error) {
	const q = `SELECT text FROM transcripts WHERE segment_id = ? AND segment_started_at = ?`

	var text string
	err := s.conn.QueryRowContext(ctx, q, segmentID, startedAt).Scan(&text)
	if err != nil {
		return "", fmt.Errorf("get transcript text %s: %w", segmentID, err)
	}
	return text, nil
}

// ListRecentTranscripts lists transcripts newest-first with optional
// channel and since filters.
func (s *Store) ListRecentTranscripts(ctx context.Context, channelID string, since *time.Time, limit, offset int) ([]*Transcript, error) {
	q := `SELECT t.segment_id, t.segment_started_at, t.language, t.text, t.text_norm, t.words,
		t.confidence, t.model_name, t.model_version, t.processing_time_ms, t.engine_time_ms, t.created_at
		FROM transcripts t WHERE 1=1`
	var args []any
	if channelID != "" {
		q = `SELECT t.segment_id, t.segment_started_at, t.language, t.text, t.text_norm, t.words,
			t.confidence, t.model_name, t.model_version, t.processing_time_ms, t.engine_time_ms, t.created_at
			FROM transcripts t JOIN segments s ON s.id = t.segment_id AND s.started_at = t.segment_started_at
			WHERE s.channel_id = ?`
		args = append(args, channelID)
	}
	if since != nil {
		q += ` AND t.segment_started_at >= ?`
		args = append(args, *since)
	}
	q += ` ORDER BY t.segment_started_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent transcripts: %w", err)
	}
	defer rows.Close()

	var out []*Transcript
	for rows.Next() {
		var t Transcript
		var wordsJSON sql.NullString
		if err := rows.Scan(&t.SegmentID, &t.SegmentStartedAt, &t.Language, &t.Text, &t.TextNorm, &wordsJSON,
			&t.Confidence, &t.ModelName, &t.ModelVersion, &t.ProcessingTimeMs, &t.EngineTimeMs, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		if wordsJSON.Valid {
			t.Words = json.RawMessage(wordsJSON.String)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// TranscriptWithSegment pairs a transcript with its owning segment, the
// shape the read API's `/transcripts` endpoint returns .
type TranscriptWithSegment struct {
	Segment    *Segment
	Transcript *Transcript
}

// ListTranscriptsWithSegments lists transcript/segment pairs newest
// first, for the read API.
func (s *Store) ListTranscriptsWithSegments(ctx context.Context, channelID string, since *time.Time, limit, offset int) ([]*TranscriptWithSegment, error) {
	q := `SELECT
		s.id, s.recording_id, s.channel_id, s.started_at, s.ended_at, s.audio_path, s.video_path, s.size_bytes,
		s.status, s.asr_status, s.ocr_status, s.objects_status, s.faces_status, s.screenshots_status, s.entities_status, s.alerts_status,
		t.segment_id, t.segment_started_at, t.language, t.text, t.text_norm, t.words,
		t.confidence, t.model_name, t.model_version, t.processing_time_ms, t.engine_time_ms, t.created_at
		FROM transcripts t JOIN segments s ON s.id = t.segment_id AND s.started_at = t.segment_started_at
		WHERE 1=1`
	var args []any

	if channelID != "" {
		q += ` AND s.channel_id = ?`
		args = append(args, channelID)
	}
	if since != nil {
		q += ` AND t.segment_started_at >= ?`
		args = append(args, *since)
	}
	q += ` ORDER BY t.segment_started_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transcripts with segments: %w", err)
	}
	defer rows.Close()

	var out []*TranscriptWithSegment
	for rows.Next() {
		var seg Segment
		var t Transcript
		var wordsJSON sql.NullString
		if err := rows.Scan(
			&seg.ID, &seg.RecordingID, &seg.ChannelID, &seg.StartedAt, &seg.EndedAt,
			&seg.AudioPath, &seg.VideoPath, &seg.SizeBytes, &seg.Status,
			&seg.ASRStatus, &seg.OCRStatus, &seg.ObjectsStatus, &seg.FacesStatus,
			&seg.ScreenshotsStatus, &seg.EntitiesStatus, &seg.AlertsStatus,
			&t.SegmentID, &t.SegmentStartedAt, &t.Language, &t.Text, &t.TextNorm, &wordsJSON,
			&t.Confidence, &t.ModelName, &t.ModelVersion, &t.ProcessingTimeMs, &t.EngineTimeMs, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transcript with segment: %w", err)
		}
		if wordsJSON.Valid {
			t.Words = json.RawMessage(wordsJSON.String)
		}
		out = append(out, &TranscriptWithSegment{Segment: &seg, Transcript: &t})
	}
	return out, rows.Err()
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullableInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullableJSON(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
