package api

import (
	"net/http"
	"time"

	"github.com/AthbiHC/mobasher/internal/store"
)

type recordingResponse struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channel_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    string     `json:"status"`
}

func toRecordingResponse(r *store.Recording) recordingResponse {
	resp := recordingResponse{ID: r.ID, ChannelID: r.ChannelID, StartedAt: r.StartedAt, Status: r.Status}
	if r.EndedAt.Valid {
		resp.EndedAt = &r.EndedAt.Time
	}
	return resp
}

// ListRecordings handles `GET /recordings`:
// `channel_id?, since?, status?, limit≤500, offset`.
func (h *Handler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r, 50, 500)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	since, err := parseTimeParam(r, "since")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	channelID := r.URL.Query().Get("channel_id")
	status := r.URL.Query().Get("status")

	recordings, err := h.recordings.ListRecentRecordings(r.Context(), channelID, since, status, limit, offset)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	items := make([]recordingResponse, 0, len(recordings))
	for _, rec := range recordings {
		items = append(items, toRecordingResponse(rec))
	}
	writeList(w, items, len(items), limit, offset)
}
