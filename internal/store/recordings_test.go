package store

import (
	"testing"
	"time"
)

func TestCreateAndCompleteRecording(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	started := time.Now().UTC().Truncate(time.Second)
	id, err := st.CreateRecording(ctx, "ch1", started)
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty recording id")
	}

	recs, err := st.ListRecentRecordings(ctx, "ch1", nil, "", 10, 0)
	if err != nil {
		t.Fatalf("ListRecentRecordings: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != "running" {
		t.Fatalf("expected one running recording, got %+v", recs)
	}

	ended := started.Add(time.Hour)
	if err := st.CompleteRecording(ctx, id, ended, "completed"); err != nil {
		t.Fatalf("CompleteRecording: %v", err)
	}

	recs, err = st.ListRecentRecordings(ctx, "ch1", nil, "completed", 10, 0)
	if err != nil {
		t.Fatalf("ListRecentRecordings after complete: %v", err)
	}
	if len(recs) != 1 || !recs[0].EndedAt.Valid {
		t.Fatalf("expected completed recording with ended_at set, got %+v", recs)
	}
}

func TestListRecentRecordingsFiltersByChannel(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()
	now := time.Now().UTC()

	if _, err := st.CreateRecording(ctx, "ch1", now); err != nil {
		t.Fatalf("CreateRecording ch1: %v", err)
	}
	if _, err := st.CreateRecording(ctx, "ch2", now); err != nil {
		t.Fatalf("CreateRecording ch2: %v", err)
	}

	recs, err := st.ListRecentRecordings(ctx, "ch2", nil, "", 10, 0)
	if err != nil {
		t.Fatalf("ListRecentRecordings: %v", err)
	}
	if len(recs) != 1 || recs[0].ChannelID != "ch2" {
		t.Fatalf("expected only ch2 recordings, got %+v", recs)
	}
}
