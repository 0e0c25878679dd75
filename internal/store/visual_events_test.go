package store

import (
	"testing"
	"time"
)

func TestInsertAndListVisualEvents(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()

	started := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	ev := VisualEvent{
		SegmentID:        "seg1",
		SegmentStartedAt: started,
		ChannelID:        "ch1",
		OffsetSeconds:    3.5,
		EventType:        "object",
		BBox:             &BoundingBox{X: 0.1, Y: 0.2, W: 0.3, H: 0.4},
		VideoPath:        "/data/v.mp4",
	}
	id, err := st.InsertVisualEvent(ctx, ev)
	if err != nil {
		t.Fatalf("InsertVisualEvent: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	list, err := st.ListVisualEvents(ctx, VisualEventFilter{ChannelID: "ch1", EventType: "object", Limit: 10})
	if err != nil {
		t.Fatalf("ListVisualEvents: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one visual event, got %d", len(list))
	}
	if list[0].BBox == nil || list[0].BBox.W != 0.3 {
		t.Errorf("bbox not round-tripped: %+v", list[0].BBox)
	}

	none, err := st.ListVisualEvents(ctx, VisualEventFilter{ChannelID: "ch1", EventType: "face", Limit: 10})
	if err != nil {
		t.Fatalf("ListVisualEvents filtered: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no face events, got %+v", none)
	}
}

func TestListVisualEventsFiltersByRegionQueryAndMinConf(t *testing.T) {
	st := setupTestStore(t)
	ctx := t.Context()
	started := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	conf := 0.4

	if _, err := st.InsertVisualEvent(ctx, VisualEvent{
		SegmentID: "seg1", SegmentStartedAt: started, ChannelID: "ch1",
		EventType: "ocr", Confidence: &conf,
		Payload: []byte(`{"region":"ticker","text":"breaking update"}`),
	}); err != nil {
		t.Fatalf("InsertVisualEvent: %v", err)
	}

	hit, err := st.ListVisualEvents(ctx, VisualEventFilter{ChannelID: "ch1", Region: "ticker", Limit: 10})
	if err != nil {
		t.Fatalf("ListVisualEvents region: %v", err)
	}
	if len(hit) != 1 {
		t.Fatalf("expected one region match, got %d", len(hit))
	}

	miss, err := st.ListVisualEvents(ctx, VisualEventFilter{ChannelID: "ch1", Region: "headline", Limit: 10})
	if err != nil {
		t.Fatalf("ListVisualEvents region miss: %v", err)
	}
	if len(miss) != 0 {
		t.Fatalf("expected no region match, got %+v", miss)
	}

	qHit, err := st.ListVisualEvents(ctx, VisualEventFilter{ChannelID: "ch1", Query: "breaking", Limit: 10})
	if err != nil {
		t.Fatalf("ListVisualEvents query: %v", err)
	}
	if len(qHit) != 1 {
		t.Fatalf("expected one query match, got %d", len(qHit))
	}

	minConf := 0.9
	confMiss, err := st.ListVisualEvents(ctx, VisualEventFilter{ChannelID: "ch1", MinConf: &minConf, Limit: 10})
	if err != nil {
		t.Fatalf("ListVisualEvents min_conf: %v", err)
	}
	if len(confMiss) != 0 {
		t.Fatalf("expected no events above min_conf, got %+v", confMiss)
	}
}
