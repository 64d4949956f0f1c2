package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"pricelink.org/internal/auth"
	"pricelink.org/internal/catalog"
	"pricelink.org/internal/link"
	"pricelink.org/internal/obs"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.LogRequest(map[string]any{
			"level": "error",
			"msg":   "response encode failed",
			"error": err.Error(),
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps service errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail goes to the log,
// not the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "insufficient privileges")
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, link.ErrLinkNotFound),
		errors.Is(err, link.ErrDealerUnavailable), errors.Is(err, link.ErrNoFiles):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, catalog.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, catalog.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		obs.LogRequest(map[string]any{
			"level":      "error",
			"msg":        "request failed",
			"request_id": RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
			"error":      err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
