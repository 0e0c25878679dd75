package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AthbiHC/mobasher/internal/store"
)

type transcriptResponse struct {
	SegmentID        string          `json:"segment_id"`
	SegmentStartedAt time.Time       `json:"segment_started_at"`
	Language         string          `json:"language"`
	Text             string          `json:"text"`
	TextNorm         string          `json:"text_norm,omitempty"`
	Words            json.RawMessage `json:"words,omitempty"`
	Confidence       *float64        `json:"confidence,omitempty"`
	ModelName        string          `json:"model_name"`
	ModelVersion     string          `json:"model_version,omitempty"`
}

func toTranscriptResponse(t *store.Transcript) transcriptResponse {
	resp := transcriptResponse{
		SegmentID: t.SegmentID, SegmentStartedAt: t.SegmentStartedAt, Language: t.Language,
		Text: t.Text, Words: t.Words, ModelName: t.ModelName,
	}
	if t.TextNorm.Valid {
		resp.TextNorm = t.TextNorm.String
	}
	if t.Confidence.Valid {
		c := t.Confidence.Float64
		resp.Confidence = &c
	}
	if t.ModelVersion.Valid {
		resp.ModelVersion = t.ModelVersion.String
	}
	return resp
}

// segmentTranscriptPair is the `{segment, transcript}` shape returned
// for `GET /transcripts`.
type segmentTranscriptPair struct {
	Segment    segmentResponse    `json:"segment"`
	Transcript transcriptResponse `json:"transcript"`
}

// ListTranscripts handles `GET /transcripts`:
// `channel_id?, since?, limit≤500, offset`.
func (h *Handler) ListTranscripts(w http.ResponseWriter, r *http.Request) {
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

	pairs, err := h.transcripts.ListTranscriptsWithSegments(r.Context(), channelID, since, limit, offset)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	items := make([]segmentTranscriptPair, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, segmentTranscriptPair{
			Segment:    toSegmentResponse(p.Segment),
			Transcript: toTranscriptResponse(p.Transcript),
		})
	}
	writeList(w, items, len(items), limit, offset)
}
