package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AthbiHC/mobasher/internal/store"
)

var validVisualEventTypes = map[string]bool{
	"ocr": true, "object": true, "face": true, "logo": true, "scene_change": true,
}

type boundingBoxResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type visualEventResponse struct {
	ID               string               `json:"id"`
	CreatedAt        time.Time            `json:"created_at"`
	SegmentID        string               `json:"segment_id"`
	SegmentStartedAt time.Time            `json:"segment_started_at"`
	ChannelID        string               `json:"channel_id"`
	OffsetSeconds    float64              `json:"offset_seconds"`
	EventType        string               `json:"event_type"`
	BBox             *boundingBoxResponse `json:"bbox,omitempty"`
	Confidence       *float64             `json:"confidence,omitempty"`
	Payload          json.RawMessage      `json:"payload,omitempty"`
	VideoPath        string               `json:"video_path,omitempty"`
	ScreenshotPath   string               `json:"screenshot_path,omitempty"`
}

func toVisualEventResponse(ev *store.VisualEvent) visualEventResponse {
	resp := visualEventResponse{
		ID: ev.ID, CreatedAt: ev.CreatedAt, SegmentID: ev.SegmentID, SegmentStartedAt: ev.SegmentStartedAt,
		ChannelID: ev.ChannelID, OffsetSeconds: ev.OffsetSeconds, EventType: ev.EventType,
		Confidence: ev.Confidence, Payload: ev.Payload, VideoPath: ev.VideoPath, ScreenshotPath: ev.ScreenshotPath,
	}
	if ev.BBox != nil {
		resp.BBox = &boundingBoxResponse{X: ev.BBox.X, Y: ev.BBox.Y, W: ev.BBox.W, H: ev.BBox.H}
	}
	return resp
}

// ListVisualEvents handles `GET /visual-events`:
// `channel_id?, event_type∈{ocr,object,face,logo,scene_change}, region?,
// q?, since?, until?, min_conf∈[0,1]?, limit≤500, offset`.
func (h *Handler) ListVisualEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r, 50, 500)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	eventType := r.URL.Query().Get("event_type")
	if eventType != "" && !validVisualEventTypes[eventType] {
		writeValidationError(w, "invalid event_type")
		return
	}

	since, err := parseTimeParam(r, "since")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	until, err := parseTimeParam(r, "until")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	minConf, err := parseFloatParam(r, "min_conf")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if minConf != nil && (*minConf < 0 || *minConf > 1) {
		writeValidationError(w, "min_conf must be in [0, 1]")
		return
	}

	events, err := h.visualEvents.ListVisualEvents(r.Context(), store.VisualEventFilter{
		ChannelID: r.URL.Query().Get("channel_id"),
		EventType: eventType,
		Region:    r.URL.Query().Get("region"),
		Query:     r.URL.Query().Get("q"),
		Since:     since,
		Until:     until,
		MinConf:   minConf,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	items := make([]visualEventResponse, 0, len(events))
	for _, ev := range events {
		items = append(items, toVisualEventResponse(ev))
	}
	writeList(w, items, len(items), limit, offset)
}

// ListScreenshots handles `GET /screenshots`:
// `channel_id?, since?, limit≤200, offset`. Screenshots are visual
// events with event_type "screenshot" (the periodic full-frame capture
// worker) so this reuses the same store query with that type pinned.
func (h *Handler) ListScreenshots(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r, 50, 200)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	since, err := parseTimeParam(r, "since")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	events, err := h.visualEvents.ListVisualEvents(r.Context(), store.VisualEventFilter{
		ChannelID: r.URL.Query().Get("channel_id"),
		EventType: "screenshot",
		Since:     since,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	items := make([]visualEventResponse, 0, len(events))
	for _, ev := range events {
		items = append(items, toVisualEventResponse(ev))
	}
	writeList(w, items, len(items), limit, offset)
}
