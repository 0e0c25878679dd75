package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouterServesHealthAndMetrics(t *testing.T) {
	h := NewHandler(newFakeChannelStore(), &fakeRecordingStore{}, &fakeSegmentStore{}, &fakeTranscriptStore{}, &fakeVisualEventStore{})
	router := NewRouter(h, DefaultRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
}

func TestRouterGatesChannelsWhenBearerModeEnabled(t *testing.T) {
	h := NewHandler(newFakeChannelStore(), &fakeRecordingStore{}, &fakeSegmentStore{}, &fakeTranscriptStore{}, &fakeVisualEventStore{})
	cfg := DefaultRouterConfig()
	cfg.AuthMode = AuthModeBearer
	cfg.AuthSecret = []byte("secret")
	router := NewRouter(h, cfg)

	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without a token", rec.Code)
	}
}
