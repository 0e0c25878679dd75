package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/AthbiHC/mobasher/internal/store"
)

type fakeVisualEventStore struct {
	events   []*store.VisualEvent
	lastFilt store.VisualEventFilter
}

func (f *fakeVisualEventStore) ListVisualEvents(ctx context.Context, filt store.VisualEventFilter) ([]*store.VisualEvent, error) {
	f.lastFilt = filt
	return f.events, nil
}

func TestListVisualEventsRejectsUnknownEventType(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, &fakeVisualEventStore{})
	req := httptest.NewRequest(http.MethodGet, "/visual-events?event_type=bogus", nil)
	rec := httptest.NewRecorder()
	h.ListVisualEvents(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestListVisualEventsRejectsOutOfRangeMinConf(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, &fakeVisualEventStore{})
	req := httptest.NewRequest(http.MethodGet, "/visual-events?min_conf=1.5", nil)
	rec := httptest.NewRecorder()
	h.ListVisualEvents(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestListVisualEventsPropagatesFilters(t *testing.T) {
	events := &fakeVisualEventStore{events: []*store.VisualEvent{{ID: "ev1", EventType: "ocr"}}}
	h := NewHandler(nil, nil, nil, nil, events)

	req := httptest.NewRequest(http.MethodGet, "/visual-events?event_type=ocr&region=ticker&q=breaking", nil)
	rec := httptest.NewRecorder()
	h.ListVisualEvents(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if events.lastFilt.Region != "ticker" || events.lastFilt.Query != "breaking" || events.lastFilt.EventType != "ocr" {
		t.Fatalf("filters not propagated: %+v", events.lastFilt)
	}
}

func TestListScreenshotsPinsEventType(t *testing.T) {
	events := &fakeVisualEventStore{events: []*store.VisualEvent{{ID: "shot1", EventType: "screenshot"}}}
	h := NewHandler(nil, nil, nil, nil, events)

	req := httptest.NewRequest(http.MethodGet, "/screenshots?limit=201", nil)
	rec := httptest.NewRecorder()
	h.ListScreenshots(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 above the 200 cap", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/screenshots", nil)
	rec = httptest.NewRecorder()
	h.ListScreenshots(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if events.lastFilt.EventType != "screenshot" {
		t.Fatalf("expected event_type pinned to screenshot, got %+v", events.lastFilt)
	}

	var env listEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
}
