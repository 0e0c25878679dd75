package api

import (
	"net/http"
	"time"

	"github.com/AthbiHC/mobasher/internal/store"
)

type segmentResponse struct {
	ID                string     `json:"id"`
	RecordingID       string     `json:"recording_id"`
	ChannelID         string     `json:"channel_id"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	AudioPath         string     `json:"audio_path,omitempty"`
	VideoPath         string     `json:"video_path,omitempty"`
	SizeBytes         int64      `json:"size_bytes"`
	Status            string     `json:"status"`
	ASRStatus         string     `json:"asr_status"`
	OCRStatus         string     `json:"ocr_status"`
	ObjectsStatus     string     `json:"objects_status"`
	FacesStatus       string     `json:"faces_status"`
	ScreenshotsStatus string     `json:"screenshots_status"`
	EntitiesStatus    string     `json:"entities_status"`
	AlertsStatus      string     `json:"alerts_status"`
}

func toSegmentResponse(s *store.Segment) segmentResponse {
	resp := segmentResponse{
		ID: s.ID, RecordingID: s.RecordingID, ChannelID: s.ChannelID, StartedAt: s.StartedAt,
		SizeBytes: s.SizeBytes, Status: s.Status, ASRStatus: s.ASRStatus, OCRStatus: s.OCRStatus,
		ObjectsStatus: s.ObjectsStatus, FacesStatus: s.FacesStatus, ScreenshotsStatus: s.ScreenshotsStatus,
		EntitiesStatus: s.EntitiesStatus, AlertsStatus: s.AlertsStatus,
	}
	if s.EndedAt.Valid {
		resp.EndedAt = &s.EndedAt.Time
	}
	if s.AudioPath.Valid {
		resp.AudioPath = s.AudioPath.String
	}
	if s.VideoPath.Valid {
		resp.VideoPath = s.VideoPath.String
	}
	return resp
}

// ListSegments handles `GET /segments`:
// `channel_id?, start?, end?, status?, limit≤1000, offset`.
func (h *Handler) ListSegments(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r, 50, 1000)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	start, err := parseTimeParam(r, "start")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	channelID := r.URL.Query().Get("channel_id")
	status := r.URL.Query().Get("status")

	segments, err := h.segments.ListSegments(r.Context(), channelID, start, end, status, limit, offset)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	items := make([]segmentResponse, 0, len(segments))
	for _, s := range segments {
		items = append(items, toSegmentResponse(s))
	}
	writeList(w, items, len(items), limit, offset)
}
