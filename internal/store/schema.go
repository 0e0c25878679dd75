package store

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core tables: channels, recordings, segments,
// transcripts, segment_embeddings, visual_events, entities, alerts. Per
// the data model.
func (s *Store) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, stmt := range tableCreationStatements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w (statement: %s)", err, stmt)
		}
	}
	return nil
}

var tableCreationStatements = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		headers JSON,
		active BOOLEAN NOT NULL DEFAULT true,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS recordings (
		id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'running',
		metadata JSON,
		PRIMARY KEY (id, started_at)
	);`,

	`CREATE TABLE IF NOT EXISTS segments (
		id TEXT NOT NULL,
		recording_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		audio_path TEXT,
		video_path TEXT,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'created',
		asr_status TEXT NOT NULL DEFAULT 'pending',
		ocr_status TEXT NOT NULL DEFAULT 'pending',
		objects_status TEXT NOT NULL DEFAULT 'pending',
		faces_status TEXT NOT NULL DEFAULT 'pending',
		screenshots_status TEXT NOT NULL DEFAULT 'pending',
		entities_status TEXT NOT NULL DEFAULT 'pending',
		alerts_status TEXT NOT NULL DEFAULT 'pending',
		metadata JSON,
		PRIMARY KEY (id, started_at)
	);`,

	`CREATE TABLE IF NOT EXISTS transcripts (
		segment_id TEXT NOT NULL,
		segment_started_at TIMESTAMPTZ NOT NULL,
		language TEXT,
		text TEXT NOT NULL,
		text_norm TEXT,
		words JSON,
		confidence DOUBLE,
		model_name TEXT NOT NULL,
		model_version TEXT,
		processing_time_ms BIGINT,
		engine_time_ms BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (segment_id, segment_started_at)
	);`,

	`CREATE TABLE IF NOT EXISTS segment_embeddings (
		segment_id TEXT NOT NULL,
		segment_started_at TIMESTAMPTZ NOT NULL,
		model_name TEXT NOT NULL,
		vector FLOAT[384],
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (segment_id, segment_started_at)
	);`,

	`CREATE TABLE IF NOT EXISTS visual_events (
		id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		segment_id TEXT NOT NULL,
		segment_started_at TIMESTAMPTZ NOT NULL,
		channel_id TEXT NOT NULL,
		offset_seconds DOUBLE NOT NULL,
		event_type TEXT NOT NULL,
		bbox_x DOUBLE,
		bbox_y DOUBLE,
		bbox_w DOUBLE,
		bbox_h DOUBLE,
		confidence DOUBLE,
		payload JSON,
		video_path TEXT,
		screenshot_path TEXT,
		PRIMARY KEY (id, created_at)
	);`,

	`CREATE TABLE IF NOT EXISTS entities (
		id TEXT NOT NULL,
		segment_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		span_start INTEGER NOT NULL,
		span_end INTEGER NOT NULL,
		label TEXT NOT NULL,
		source_model TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	);`,

	`CREATE TABLE IF NOT EXISTS alerts (
		id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		segment_id TEXT NOT NULL,
		matched_phrase TEXT NOT NULL,
		category TEXT NOT NULL,
		score DOUBLE,
		payload JSON,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id)
	);`,
}

func (s *Store) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	// HNSW indexes are experimental on disk-backed databases; this pragma
	// is required for the vss index below to survive a reopen.
	if _, err := s.conn.ExecContext(ctx, "SET hnsw_enable_experimental_persistence=true;"); err != nil {
		return fmt.Errorf("enable hnsw persistence: %w", err)
	}

	for _, stmt := range indexStatements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w (statement: %s)", err, stmt)
		}
	}
	return nil
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_recordings_channel_started ON recordings (channel_id, started_at);`,
	`CREATE INDEX IF NOT EXISTS idx_segments_channel_started ON segments (channel_id, started_at);`,
	`CREATE INDEX IF NOT EXISTS idx_segments_asr_status ON segments (asr_status);`,
	`CREATE INDEX IF NOT EXISTS idx_segments_ocr_status ON segments (ocr_status);`,
	`CREATE INDEX IF NOT EXISTS idx_visual_events_segment ON visual_events (segment_id, segment_started_at);`,
	`CREATE INDEX IF NOT EXISTS idx_entities_segment ON entities (segment_id);`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_channel ON alerts (channel_id, created_at);`,
	// HNSW index over the vss extension, backing semantic_search_segments_by_vector's
	// ascending-L2-distance ordering.
	`CREATE INDEX IF NOT EXISTS idx_segment_embeddings_vector ON segment_embeddings USING HNSW (vector) WITH (metric = 'l2sq');`,
}
