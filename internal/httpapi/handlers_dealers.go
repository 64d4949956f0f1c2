package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"pricelink.org/internal/audit"
	"pricelink.org/internal/auth"
	"pricelink.org/internal/catalog"
	"pricelink.org/internal/mail"
	"pricelink.org/internal/obs"
)

type dealerResponse struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	CustomerNumber string     `json:"customer_number"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

func toDealerResponse(d *catalog.Dealer) dealerResponse {
	resp := dealerResponse{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		CustomerNumber: d.CustomerNumber,
		Active:         d.Active,
		CreatedAt:      d.CreatedAt,
	}
	if d.UpdatedAt.Valid {
		t := d.UpdatedAt.Time
		resp.UpdatedAt = &t
	}
	return resp
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func (a *API) handleListDealers(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	dealers, err := a.catalog.Store().Dealers().List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]dealerResponse, 0, len(dealers))
	for _, d := range dealers {
		out = append(out, toDealerResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

type createDealerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	CustomerNumber string `json:"customer_number"`
	Active         *bool  `json:"active"`
}

func (a *API) handleCreateDealer(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	var req createDealerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	dealer, err := a.catalog.CreateDealer(r.Context(), catalog.NewDealer{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		CustomerNumber: req.CustomerNumber,
		Active:         active,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "dealer_created", map[string]any{
		"dealer_id": dealer.ID, "customer_number": dealer.CustomerNumber,
	})
	a.sendWelcome(r, dealer)
	writeJSON(w, http.StatusCreated, toDealerResponse(dealer))
}

// sendWelcome delivers the account email without holding up the response.
// A failed send is a log line, nothing more.
func (a *API) sendWelcome(r *http.Request, dealer *catalog.Dealer) {
	body, err := mail.RenderWelcome(dealer.Name, dealer.Email, a.cfg.PublicBaseURL+"/login")
	if err == nil {
		err = a.mailer.Send(r.Context(), mail.Message{
			To:      []string{dealer.Email},
			Subject: "Your price file portal account",
			Body:    body,
		})
	}
	if err != nil {
		obs.LogRequest(map[string]any{
			"level":      "warn",
			"msg":        "welcome email failed",
			"request_id": RequestIDFromContext(r.Context()),
			"dealer_id":  dealer.ID,
			"error":      err.Error(),
		})
	}
}

func (a *API) handleGetDealer(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}
	dealer, err := a.catalog.Store().Dealers().Find(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDealerResponse(dealer))
}

type updateDealerRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	CustomerNumber *string `json:"customer_number"`
	Active         *bool   `json:"active"`
}

func (a *API) handleUpdateDealer(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}
	var req updateDealerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dealer, err := a.catalog.UpdateDealer(r.Context(), id, catalog.DealerPatch{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		CustomerNumber: req.CustomerNumber,
		Active:         req.Active,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "dealer_updated", map[string]any{"dealer_id": id})
	writeJSON(w, http.StatusOK, toDealerResponse(dealer))
}

func (a *API) handleDeleteDealer(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}
	if err := a.catalog.DeleteDealer(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "dealer_deleted", map[string]any{"dealer_id": id})
	writeJSON(w, http.StatusNoContent, nil)
}

type vendorAssignmentResponse struct {
	ID         int64  `json:"id"`
	DealerID   int64  `json:"dealer_id"`
	VendorID   int64  `json:"vendor_id"`
	FolderName string `json:"folder_name,omitempty"`
}

func (a *API) handleDealerVendors(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}
	assignments, err := a.catalog.Store().Dealers().VendorAssignments(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]vendorAssignmentResponse, 0, len(assignments))
	for _, dv := range assignments {
		out = append(out, vendorAssignmentResponse{
			ID:         dv.ID,
			DealerID:   dv.DealerID,
			VendorID:   dv.VendorID,
			FolderName: dv.FolderName.String,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type assignVendorRequest struct {
	VendorID   int64  `json:"vendor_id"`
	FolderName string `json:"folder_name"`
}

func (a *API) handleAssignVendor(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}
	var req assignVendorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dv, err := a.catalog.AssignVendor(r.Context(), id, req.VendorID, req.FolderName)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "vendor_assigned", map[string]any{
		"dealer_id": id, "vendor_id": req.VendorID,
	})
	writeJSON(w, http.StatusCreated, vendorAssignmentResponse{
		ID:         dv.ID,
		DealerID:   dv.DealerID,
		VendorID:   dv.VendorID,
		FolderName: dv.FolderName.String,
	})
}

func (a *API) handleRemoveVendor(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dealer id")
		return
	}
	vendorID, ok := pathID(r, "vendorID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}
	if err := a.catalog.Store().Dealers().RemoveVendor(r.Context(), id, vendorID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "vendor_unassigned", map[string]any{
		"dealer_id": id, "vendor_id": vendorID,
	})
	writeJSON(w, http.StatusNoContent, nil)
}
