package httpapi

import (
	"net/http"
	"time"

	"pricelink.org/internal/audit"
	"pricelink.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	AccessExpiresAt  time.Time         `json:"access_expires_at"`
	RefreshExpiresAt time.Time         `json:"refresh_expires_at"`
	Principal        principalResponse `json:"principal"`
}

type principalResponse struct {
	Role           string `json:"role"`
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	CustomerNumber string `json:"customer_number,omitempty"`
}

func toPrincipalResponse(p auth.Principal) principalResponse {
	return principalResponse{
		Role:           string(p.Role),
		ID:             p.ID,
		Email:          p.Email,
		Name:           p.Name,
		CustomerNumber: p.CustomerNumber,
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair, p, err := a.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogEvent(r.Context(), "login_failed", map[string]any{"email": req.Email})
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "login", map[string]any{
		"role": string(p.Role), "principal_id": p.ID,
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		Principal:        toPrincipalResponse(p),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair, p, err := a.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		Principal:        toPrincipalResponse(p),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	writeJSON(w, http.StatusOK, toPrincipalResponse(p))
}
