package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SegmentMatch is one result row of a semantic search: a segment id
// paired with its vector distance from the query.
type SegmentMatch struct {
	SegmentID        string
	SegmentStartedAt time.Time
	ChannelID        string
	Distance         float64
}

// UpsertEmbedding writes (or overwrites) a segment's vector embedding.
func (s *Store) UpsertEmbedding(ctx context.Context, segmentID string, segmentStartedAt time.Time, modelName string, vector []float32) error {
	const stmt = `
		INSERT INTO segment_embeddings (segment_id, segment_started_at, model_name, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (segment_id, segment_started_at) DO UPDATE SET
			model_name = excluded.model_name,
			vector = excluded.vector;
	`
	_, err := s.conn.ExecContext(ctx, stmt, segmentID, segmentStartedAt, modelName, formatVector(vector))
	if err != nil {
		return fmt.Errorf("upsert embedding %s: %w", segmentID, err)
	}
	return nil
}

// SemanticSearchSegmentsByVector returns the topK nearest segments to
// query by L2 distance over the vss HNSW index.
func (s *Store) SemanticSearchSegmentsByVector(ctx context.Context, query []float32, topK int, modelName, channelID string) ([]SegmentMatch, error) {
	q := `
		SELECT e.segment_id, e.segment_started_at, s.channel_id,
			array_distance(e.vector, ?::FLOAT[384]) AS distance
		FROM segment_embeddings e
		JOIN segments s ON s.id = e.segment_id AND s.started_at = e.segment_started_at
		WHERE 1=1
	`
	args := []any{formatVector(query)}

	if modelName != "" {
		q += ` AND e.model_name = ?`
		args = append(args, modelName)
	}
	if channelID != "" {
		q += ` AND s.channel_id = ?`
		args = append(args, channelID)
	}
	q += ` ORDER BY distance ASC LIMIT ?`
	args = append(args, topK)

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	defer rows.Close()

	var out []SegmentMatch
	for rows.Next() {
		var m SegmentMatch
		if err := rows.Scan(&m.SegmentID, &m.SegmentStartedAt, &m.ChannelID, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan segment match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// formatVector renders a float32 slice as DuckDB's `[v1, v2, ...]` array
// literal syntax.
func formatVector(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
