package api

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
}

// Health handles `GET /health`.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
