package queue

import (
	"testing"
	"time"
)

func TestDedupeKeyFormat(t *testing.T) {
	startedAt := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	got := DedupeKey("asr.transcribe_segment", "seg-1", startedAt)
	want := "asr.transcribe_segment:queued:seg-1:2026-03-01T12:30:00Z"
	if got != want {
		t.Fatalf("DedupeKey() = %q, want %q", got, want)
	}
}

func TestDedupeKeyNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	startedAt := time.Date(2026, 3, 1, 15, 30, 0, 0, loc)
	got := DedupeKey("vision.ocr_segment", "seg-2", startedAt)
	want := "vision.ocr_segment:queued:seg-2:2026-03-01T12:30:00Z"
	if got != want {
		t.Fatalf("DedupeKey() = %q, want %q", got, want)
	}
}

func TestMarshalUnmarshalArgsRoundTrip(t *testing.T) {
	in := Args{SegmentID: "seg-1", SegmentStartedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	data, err := marshalArgs(in)
	if err != nil {
		t.Fatalf("marshalArgs() error = %v", err)
	}
	out, err := unmarshalArgs(data)
	if err != nil {
		t.Fatalf("unmarshalArgs() error = %v", err)
	}
	if out.SegmentID != in.SegmentID || !out.SegmentStartedAt.Equal(in.SegmentStartedAt) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestUnmarshalArgsRejectsGarbage(t *testing.T) {
	if _, err := unmarshalArgs([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestTaskNamesCoversSevenTasks(t *testing.T) {
	if len(TaskNames) != 7 {
		t.Fatalf("len(TaskNames) = %d, want 7", len(TaskNames))
	}
	seen := make(map[TaskName]bool)
	for _, name := range TaskNames {
		if seen[name] {
			t.Fatalf("duplicate task name %s", name)
		}
		seen[name] = true
	}
}
