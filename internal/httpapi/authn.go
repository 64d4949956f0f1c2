package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"pricelink.org/internal/auth"
)

type principalHandler func(w http.ResponseWriter, r *http.Request, p auth.Principal)

func bearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(raw) > len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
		return strings.TrimSpace(raw[len(prefix):])
	}
	return ""
}

// authenticated verifies the access credential and hands the principal to
// the wrapped handler.
func (a *API) authenticated(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		p, err := a.sessions.Verify(r.Context(), token, auth.KindAccess)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		ctx := auth.ContextWithPrincipal(auth.ContextWithToken(r.Context(), token), p)
		next(w, r.WithContext(ctx), p)
	}
}

// admin narrows authenticated to the admin role. The two failure modes
// stay distinct: no credential is 401, wrong role is 403.
func (a *API) admin(next principalHandler) http.HandlerFunc {
	return a.authenticated(func(w http.ResponseWriter, r *http.Request, p auth.Principal) {
		if err := p.RequireAdmin(); err != nil {
			writeDomainError(w, r, err)
			return
		}
		next(w, r, p)
	})
}

// partner gates the integration endpoints behind the static API key.
func (a *API) partner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if a.cfg.PartnerAPIKey == "" || key == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(a.cfg.PartnerAPIKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next(w, r)
	}
}
