package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"pricelink.org/internal/audit"
	"pricelink.org/internal/auth"
	"pricelink.org/internal/link"
	"pricelink.org/internal/mail"
	"pricelink.org/internal/obs"
	"pricelink.org/internal/storage"
)

type linkResponse struct {
	ID           int64      `json:"id"`
	FileID       int64      `json:"file_id"`
	DealerID     int64      `json:"dealer_id"`
	URL          string     `json:"url"`
	ExpiresAt    time.Time  `json:"expires_at"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`
}

func (a *API) toLinkResponse(l *link.DownloadLink) linkResponse {
	resp := linkResponse{
		ID:        l.ID,
		FileID:    l.FileID,
		DealerID:  l.DealerID,
		URL:       a.downloadURL(l.Token),
		ExpiresAt: l.ExpiresAt,
	}
	if l.DownloadedAt.Valid {
		t := l.DownloadedAt.Time
		resp.DownloadedAt = &t
	}
	return resp
}

func (a *API) downloadURL(token string) string {
	return a.cfg.PublicBaseURL + "/api/links/download/" + token
}

type generateLinksRequest struct {
	DealerID  int64   `json:"dealer_id"`
	FileIDs   []int64 `json:"file_ids"`
	SendEmail bool    `json:"send_email"`
}

func (a *API) handleGenerateLinks(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	var req generateLinksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DealerID <= 0 || len(req.FileIDs) == 0 {
		writeError(w, http.StatusBadRequest, "dealer_id and file_ids are required")
		return
	}
	issued, err := a.links.Issue(r.Context(), req.DealerID, req.FileIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	obs.CountLinksIssued(len(issued))
	audit.LogEvent(r.Context(), "links_issued", map[string]any{
		"dealer_id": req.DealerID, "requested": len(req.FileIDs), "issued": len(issued),
	})
	if req.SendEmail && len(issued) > 0 {
		a.emailLinks(r, req.DealerID, issued)
	}
	out := make([]linkResponse, 0, len(issued))
	for _, l := range issued {
		out = append(out, a.toLinkResponse(l))
	}
	writeJSON(w, http.StatusCreated, out)
}

// emailLinks sends the dealer their fresh links. Best effort: failures are
// logged and the links remain valid and visible in the response.
func (a *API) emailLinks(r *http.Request, dealerID int64, issued []*link.DownloadLink) {
	ctx := r.Context()
	dealer, err := a.catalog.Store().Dealers().Find(ctx, dealerID)
	if err != nil {
		return
	}
	items := make([]mail.LinkItem, 0, len(issued))
	for _, l := range issued {
		item := mail.LinkItem{
			URL:       a.downloadURL(l.Token),
			ExpiresAt: l.ExpiresAt,
		}
		if file, err := a.catalog.Store().Files().Find(ctx, l.FileID); err == nil {
			item.Filename = file.Filename
			if vendor, err := a.catalog.Store().Vendors().Find(ctx, file.VendorID); err == nil {
				item.Vendor = vendor.Code
			}
		}
		items = append(items, item)
	}
	body, err := mail.RenderDownloadLinks(dealer.Name, items)
	if err == nil {
		err = a.mailer.Send(ctx, mail.Message{
			To:      []string{dealer.Email},
			Subject: "New price files are ready",
			Body:    body,
		})
	}
	if err != nil {
		obs.LogRequest(map[string]any{
			"level":      "warn",
			"msg":        "link email failed",
			"request_id": RequestIDFromContext(ctx),
			"dealer_id":  dealerID,
			"error":      err.Error(),
		})
	}
}

// handleListLinks shows dealers their own links. Admins see everything,
// optionally narrowed with ?dealer_id=.
func (a *API) handleListLinks(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var (
		links []*link.DownloadLink
		err   error
	)
	switch {
	case p.Role == auth.RoleDealer:
		links, err = a.links.ListForDealer(r.Context(), p.ID)
	case r.URL.Query().Get("dealer_id") != "":
		dealerID, parseErr := strconv.ParseInt(r.URL.Query().Get("dealer_id"), 10, 64)
		if parseErr != nil || dealerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid dealer_id")
			return
		}
		links, err = a.links.ListForDealer(r.Context(), dealerID)
	default:
		links, err = a.links.ListAll(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]linkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, a.toLinkResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDownload is the unauthenticated consumption endpoint. The token is
// the only credential. Consumption is stamped after the blob is confirmed
// readable, so a resolver hit with a missing blob does not burn the token.
func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	l, file, err := a.links.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, link.ErrLinkNotFound) {
			obs.CountDownload("rejected")
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeDomainError(w, r, err)
		return
	}

	rc, size, err := a.blobs.Open(file.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			obs.CountDownload("missing_blob")
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeDomainError(w, r, err)
		return
	}
	defer rc.Close()

	if err := a.links.MarkDownloaded(r.Context(), l); err != nil {
		obs.LogRequest(map[string]any{
			"level":      "warn",
			"msg":        "consumption mark failed",
			"request_id": RequestIDFromContext(r.Context()),
			"link_id":    l.ID,
			"error":      err.Error(),
		})
	}
	audit.LogEvent(r.Context(), "file_downloaded", map[string]any{
		"link_id": l.ID, "file_id": file.ID, "dealer_id": l.DealerID,
	})
	obs.CountDownload("ok")

	ctype := mime.TypeByExtension(filepath.Ext(file.Filename))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		obs.LogRequest(map[string]any{
			"level":      "warn",
			"msg":        "download stream interrupted",
			"request_id": RequestIDFromContext(r.Context()),
			"link_id":    l.ID,
			"error":      err.Error(),
		})
	}
}
