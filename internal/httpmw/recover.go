package httpmw

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/AthbiHC/mobasher/internal/logging"
)

// ErrorEnvelope is the body of every non-2xx API response, e.g.
// `500 {error:"internal_error", detail}`.
type ErrorEnvelope struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// WriteError writes an ErrorEnvelope with the given status code.
func WriteError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Error: code, Detail: detail})
}

// Recover converts a panicking handler into a 500 internal_error response
// instead of crashing the API process.
func Recover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Ctx(r.Context()).Error().Any("panic", rec).Msg("recovered from panic in handler")
				WriteError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			}
		}()
		next(w, r)
	}
}
