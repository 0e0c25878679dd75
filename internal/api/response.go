package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/AthbiHC/mobasher/internal/httpmw"
)

// listMeta is the pagination block of every listing response:
// `next_offset` appears only when the page was full.
type listMeta struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	NextOffset *int `json:"next_offset,omitempty"`
}

// listEnvelope is the `{items, meta}` shape every listing endpoint
// returns.
type listEnvelope struct {
	Items any      `json:"items"`
	Meta  listMeta `json:"meta"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeList wraps items in the pagination envelope. count is the number
// of items actually returned, used (alongside limit) to decide whether
// a next page exists.
func writeList(w http.ResponseWriter, items any, count, limit, offset int) {
	meta := listMeta{Limit: limit, Offset: offset}
	if count == limit {
		next := offset + limit
		meta.NextOffset = &next
	}
	writeJSON(w, http.StatusOK, listEnvelope{Items: items, Meta: meta})
}

func writeValidationError(w http.ResponseWriter, detail string) {
	httpmw.WriteError(w, http.StatusUnprocessableEntity, "validation_failed", detail)
}

func writeInternalError(w http.ResponseWriter, detail string) {
	httpmw.WriteError(w, http.StatusInternalServerError, "internal_error", detail)
}

func writeNotFound(w http.ResponseWriter, detail string) {
	httpmw.WriteError(w, http.StatusNotFound, "not_found", detail)
}

// parsePagination reads `limit` and `offset`, defaulting limit to
// defaultLimit and capping it at maxLimit.
func parsePagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int, err error) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, errInvalidParam("limit")
		}
		if limit > maxLimit {
			return 0, 0, errInvalidParam("limit")
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, errInvalidParam("offset")
		}
	}
	return limit, offset, nil
}

// parseTimeParam parses an RFC 3339 query parameter, returning nil when
// the parameter is absent.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errInvalidParam(name)
	}
	return &t, nil
}

// parseFloatParam parses a float query parameter, returning nil when
// the parameter is absent.
func parseFloatParam(r *http.Request, name string) (*float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, errInvalidParam(name)
	}
	return &f, nil
}

func parseBoolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	ok, _ := strconv.ParseBool(v)
	return ok
}

type paramError struct {
	name string
}

func (e paramError) Error() string {
	return "invalid query parameter: " + e.name
}

func errInvalidParam(name string) error {
	return paramError{name: name}
}
