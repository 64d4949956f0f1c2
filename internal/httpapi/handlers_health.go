package httpapi

import (
	"net/http"

	"pricelink.org/internal/obs"
)

// SetReady flips the readiness state exposed by /readyz and the ready
// metric gauge.
func (a *API) SetReady(ok bool) {
	a.readyFlag.Store(ok)
	obs.SetReady(ok)
}

func (a *API) ready() bool { return a.readyFlag.Load() }

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the process finished startup, as flipped by
// main once the database and storage checks pass.
func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if !a.ready() {
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
