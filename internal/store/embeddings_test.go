package store

import (
	"testing"
	"time"
)

func TestFormatVectorRendersArrayLiteral(t *testing.T) {
	got := formatVector([]float32{1, 0.5, -2})
	want := "[1, 0.5, -2]"
	if got != want {
		t.Errorf("formatVector = %q, want %q", got, want)
	}
}

func TestUpsertAndSemanticSearchEmbedding(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	started := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	if err := st.UpsertSegment(ctx, "ch1", "audio", "/data/a.wav", started, started.Add(time.Minute), 10000); err != nil {
		t.Fatalf("UpsertSegment: %v", err)
	}
	id := SegmentID("ch1", started)

	vec := make([]float32, 384)
	vec[0] = 1.0
	if err := st.UpsertEmbedding(ctx, id, started, "minilm", vec); err != nil {
		t.Fatalf("UpsertEmbedding: %v", err)
	}

	query := make([]float32, 384)
	query[0] = 1.0
	matches, err := st.SemanticSearchSegmentsByVector(ctx, query, 5, "minilm", "ch1")
	if err != nil {
		t.Fatalf("SemanticSearchSegmentsByVector: %v", err)
	}
	if len(matches) != 1 || matches[0].SegmentID != id {
		t.Fatalf("expected one exact match, got %+v", matches)
	}
	if matches[0].Distance > 1e-6 {
		t.Errorf("expected near-zero distance for identical vector, got %f", matches[0].Distance)
	}
}
