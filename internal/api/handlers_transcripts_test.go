package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/AthbiHC/mobasher/internal/store"
)

type fakeTranscriptStore struct {
	pairs []*store.TranscriptWithSegment
}

func (f *fakeTranscriptStore) ListTranscriptsWithSegments(ctx context.Context, channelID string, since *time.Time, limit, offset int) ([]*store.TranscriptWithSegment, error) {
	return f.pairs, nil
}

func TestListTranscriptsReturnsSegmentTranscriptPairs(t *testing.T) {
	pairs := &fakeTranscriptStore{pairs: []*store.TranscriptWithSegment{
		{
			Segment:    &store.Segment{ID: "seg1", ChannelID: "ch1"},
			Transcript: &store.Transcript{SegmentID: "seg1", Text: "hello world", ModelName: "whisper-small"},
		},
	}}
	h := NewHandler(nil, nil, nil, pairs, nil)

	req := httptest.NewRequest(http.MethodGet, "/transcripts?channel_id=ch1", nil)
	rec := httptest.NewRecorder()
	h.ListTranscripts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var env listEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	items, ok := env.Items.([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one pair, got %+v", env.Items)
	}
}

func TestListTranscriptsRejectsMalformedSince(t *testing.T) {
	h := NewHandler(nil, nil, nil, &fakeTranscriptStore{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/transcripts?since=not-a-time", nil)
	rec := httptest.NewRecorder()
	h.ListTranscripts(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}
