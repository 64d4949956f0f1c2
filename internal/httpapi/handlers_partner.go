package httpapi

import (
	"errors"
	"net/http"
	"time"

	"pricelink.org/internal/audit"
	"pricelink.org/internal/link"
	"pricelink.org/internal/mail"
	"pricelink.org/internal/obs"
)

type partnerGetLinksRequest struct {
	CustomerNumber string   `json:"customer_number"`
	Vendors        []string `json:"vendors"`
	SendEmail      bool     `json:"send_email"`
}

type partnerLink struct {
	Vendor    string    `json:"vendor"`
	Link      string    `json:"link"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

type partnerGetLinksResponse struct {
	Links       []partnerLink `json:"links"`
	DealerEmail string        `json:"dealer_email"`
}

// handlePartnerGetLinks resolves vendor identifiers for a dealer and mints
// one link per resolved file. Unknown identifiers are skipped; the call
// fails only for a bad customer or an empty result.
func (a *API) handlePartnerGetLinks(w http.ResponseWriter, r *http.Request) {
	var req partnerGetLinksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerNumber == "" || len(req.Vendors) == 0 {
		writeError(w, http.StatusBadRequest, "customer_number and vendors are required")
		return
	}

	dealer, fileIDs, err := a.links.ResolveFiles(r.Context(), req.CustomerNumber, req.Vendors)
	if err != nil {
		// Bad customer and empty result map to the same status but stay
		// distinct in the log for operators.
		reason := "error"
		switch {
		case errors.Is(err, link.ErrDealerUnavailable):
			reason = "dealer_unavailable"
		case errors.Is(err, link.ErrNoFiles):
			reason = "no_files"
		}
		obs.LogRequest(map[string]any{
			"level":           "info",
			"msg":             "partner resolution failed",
			"request_id":      RequestIDFromContext(r.Context()),
			"customer_number": req.CustomerNumber,
			"reason":          reason,
		})
		writeDomainError(w, r, err)
		return
	}

	issued, err := a.links.Issue(r.Context(), dealer.ID, fileIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	obs.CountLinksIssued(len(issued))
	audit.LogEvent(r.Context(), "partner_links_issued", map[string]any{
		"customer_number": dealer.CustomerNumber,
		"vendors":         req.Vendors,
		"issued":          len(issued),
	})
	if req.SendEmail && len(issued) > 0 {
		a.emailLinks(r, dealer.ID, issued)
	}

	out := partnerGetLinksResponse{
		Links:       make([]partnerLink, 0, len(issued)),
		DealerEmail: dealer.Email,
	}
	for _, l := range issued {
		item := partnerLink{Link: a.downloadURL(l.Token), ExpiresAt: l.ExpiresAt}
		if file, err := a.catalog.Store().Files().Find(r.Context(), l.FileID); err == nil {
			item.Filename = file.Filename
			if vendor, err := a.catalog.Store().Vendors().Find(r.Context(), file.VendorID); err == nil {
				item.Vendor = vendor.Code
			}
		}
		out.Links = append(out.Links, item)
	}
	writeJSON(w, http.StatusCreated, out)
}

type partnerNotifyUploadRequest struct {
	Vendor     string   `json:"vendor"`
	Filename   string   `json:"filename"`
	Version    string   `json:"version"`
	Recipients []string `json:"recipients"`
}

// handlePartnerNotifyUpload emails the operators that a partner dropped a
// new file. It records nothing; the upload itself arrives separately.
func (a *API) handlePartnerNotifyUpload(w http.ResponseWriter, r *http.Request) {
	var req partnerNotifyUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Vendor == "" || req.Filename == "" || len(req.Recipients) == 0 {
		writeError(w, http.StatusBadRequest, "vendor, filename and recipients are required")
		return
	}

	body, err := mail.RenderUploadNotice(req.Vendor, req.Filename, req.Version)
	if err == nil {
		err = a.mailer.Send(r.Context(), mail.Message{
			To:      req.Recipients,
			Subject: "New price file uploaded: " + req.Vendor,
			Body:    body,
		})
	}
	if err != nil {
		obs.LogRequest(map[string]any{
			"level":      "warn",
			"msg":        "upload notice failed",
			"request_id": RequestIDFromContext(r.Context()),
			"vendor":     req.Vendor,
			"error":      err.Error(),
		})
		writeError(w, http.StatusBadGateway, "notification delivery failed")
		return
	}
	audit.LogEvent(r.Context(), "upload_notice_sent", map[string]any{
		"vendor": req.Vendor, "filename": req.Filename,
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
