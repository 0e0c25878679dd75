package store

import (
	"testing"
	"time"
)

func TestSegmentIDDeterministic(t *testing.T) {
	started := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	a := SegmentID("ch1", started)
	b := SegmentID("ch1", started)
	if a != b {
		t.Errorf("expected deterministic id, got %s != %s", a, b)
	}

	c := SegmentID("ch2", started)
	if a == c {
		t.Error("expected different channel to produce different id")
	}
}

func TestUpsertSegmentMergesAcrossLegs(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	started := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	ended := started.Add(time.Minute)

	if err := st.UpsertSegment(ctx, "ch1", "audio", "/data/ch1/audio/ch1-20260730-120000.wav", started, ended, 1000); err != nil {
		t.Fatalf("UpsertSegment audio: %v", err)
	}
	if err := st.UpsertSegment(ctx, "ch1", "video", "/data/ch1/video/ch1-20260730-120000.mp4", started, ended, 5000); err != nil {
		t.Fatalf("UpsertSegment video: %v", err)
	}

	segs, err := st.ListSegments(ctx, "ch1", nil, nil, "", 10, 0)
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected one merged segment row, got %d", len(segs))
	}
	seg := segs[0]
	if !seg.AudioPath.Valid || !seg.VideoPath.Valid {
		t.Errorf("expected both audio and video paths set after merge: %+v", seg)
	}
	if seg.SizeBytes != 5000 {
		t.Errorf("expected GREATEST size_bytes=5000, got %d", seg.SizeBytes)
	}

	if err := st.UpsertSegment(ctx, "ch1", "video", "/data/ch1/video/ch1-20260730-120000.mp4", started, ended, 3000); err != nil {
		t.Fatalf("UpsertSegment video smaller: %v", err)
	}
	segs, err = st.ListSegments(ctx, "ch1", nil, nil, "", 10, 0)
	if err != nil {
		t.Fatalf("ListSegments after smaller rewrite: %v", err)
	}
	if segs[0].SizeBytes != 5000 {
		t.Errorf("expected size_bytes to stay at max 5000, got %d", segs[0].SizeBytes)
	}
}

func TestListSegmentsMissingTranscripts(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	started := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	ended := started.Add(time.Minute)
	if err := st.UpsertSegment(ctx, "ch1", "audio", "/data/a.wav", started, ended, 10000); err != nil {
		t.Fatalf("UpsertSegment: %v", err)
	}

	id := SegmentID("ch1", started)
	missing, err := st.ListSegmentsMissingTranscripts(ctx, "ch1", nil, 10)
	if err != nil {
		t.Fatalf("ListSegmentsMissingTranscripts: %v", err)
	}
	if len(missing) != 1 || missing[0].ID != id {
		t.Fatalf("expected the segment to be missing a transcript, got %+v", missing)
	}

	if err := st.UpsertTranscript(ctx, id, started, "hello world", nil, "en", nil, nil, "whisper", nil, nil, nil); err != nil {
		t.Fatalf("UpsertTranscript: %v", err)
	}

	missing, err = st.ListSegmentsMissingTranscripts(ctx, "ch1", nil, 10)
	if err != nil {
		t.Fatalf("ListSegmentsMissingTranscripts after upsert: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected no segments missing a transcript, got %+v", missing)
	}
}

func TestListSegmentsMissingVisionUnknownKind(t *testing.T) {
	st := setupTestStore(t)
	if _, err := st.ListSegmentsMissingVision(t.Context(), "bogus_segment", "", nil, 10); err == nil {
		t.Error("expected error for unknown vision kind")
	}
}

func TestListSegmentsMissingVisionTracksStatus(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	started := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	ended := started.Add(time.Minute)
	if err := st.UpsertSegment(ctx, "ch1", "video", "/data/v.mp4", started, ended, 600000); err != nil {
		t.Fatalf("UpsertSegment: %v", err)
	}
	id := SegmentID("ch1", started)

	missing, err := st.ListSegmentsMissingVision(ctx, "ocr_segment", "ch1", nil, 10)
	if err != nil {
		t.Fatalf("ListSegmentsMissingVision: %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("expected segment pending ocr, got %+v", missing)
	}

	if err := st.SetStageStatus(ctx, id, started, "ocr", "completed"); err != nil {
		t.Fatalf("SetStageStatus: %v", err)
	}

	missing, err = st.ListSegmentsMissingVision(ctx, "ocr_segment", "ch1", nil, 10)
	if err != nil {
		t.Fatalf("ListSegmentsMissingVision after complete: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected no segments pending ocr, got %+v", missing)
	}
}

func TestSetStageStatusUnknownStage(t *testing.T) {
	st := setupTestStore(t)
	err := st.SetStageStatus(t.Context(), "id", time.Now(), "bogus", "completed")
	if err == nil {
		t.Error("expected error for unknown stage")
	}
}
