package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/AthbiHC/mobasher/internal/store"
)

// channelResponse is the JSON projection of store.Channel, per the
// channel descriptor's fields.
type channelResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
	Active      bool              `json:"active"`
	Description string            `json:"description,omitempty"`
}

func toChannelResponse(c *store.Channel) channelResponse {
	return channelResponse{
		ID:          c.ID,
		Name:        c.Name,
		URL:         c.URL,
		Headers:     c.Headers,
		Active:      c.Active,
		Description: c.Description,
	}
}

// ListChannels handles `GET /channels`.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	activeOnly := parseBoolParam(r, "active_only")

	channels, err := h.channels.ListChannels(r.Context(), activeOnly)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	limit, offset, err := parsePagination(r, 50, 500)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	page := paginateSlice(channels, limit, offset)
	items := make([]channelResponse, 0, len(page))
	for _, c := range page {
		items = append(items, toChannelResponse(c))
	}
	writeList(w, items, len(page), limit, offset)
}

// GetChannel handles `GET /channels/{id}`.
func (h *Handler) GetChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ch, err := h.channels.GetChannel(r.Context(), id)
	if err == store.ErrNotFound {
		writeNotFound(w, "channel not found")
		return
	}
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toChannelResponse(ch))
}

// channelUpsertRequest is the body of `POST /channels`, matching a
// channel descriptor's fields.
type channelUpsertRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers"`
	Active      bool              `json:"active"`
	Description string            `json:"description"`
}

// UpsertChannel handles `POST /channels`.
func (h *Handler) UpsertChannel(w http.ResponseWriter, r *http.Request) {
	var req channelUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed JSON body")
		return
	}
	if req.ID == "" || req.Name == "" || req.URL == "" {
		writeValidationError(w, "id, name, and url are required")
		return
	}

	ch, err := h.channels.UpsertChannel(r.Context(), req.ID, req.Name, req.URL, req.Headers, req.Active, req.Description)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toChannelResponse(ch))
}

// paginateSlice applies limit/offset over an already-fetched in-memory
// slice. ListChannels has no natural SQL LIMIT/OFFSET point since every
// caller needs the full active/inactive set to decide active_only, so
// pagination happens here instead.
func paginateSlice[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
