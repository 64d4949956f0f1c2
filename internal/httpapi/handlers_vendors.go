package httpapi

import (
	"net/http"
	"time"

	"pricelink.org/internal/audit"
	"pricelink.org/internal/auth"
	"pricelink.org/internal/catalog"
)

type vendorResponse struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toVendorResponse(v *catalog.Vendor) vendorResponse {
	return vendorResponse{
		ID:          v.ID,
		Code:        v.Code,
		Name:        v.Name,
		Description: v.Description.String,
		CreatedAt:   v.CreatedAt,
	}
}

func (a *API) handleListVendors(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	vendors, err := a.catalog.Store().Vendors().List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]vendorResponse, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, toVendorResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

type createVendorRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *API) handleCreateVendor(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	var req createVendorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vendor, err := a.catalog.CreateVendor(r.Context(), req.Code, req.Name, req.Description)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "vendor_created", map[string]any{
		"vendor_id": vendor.ID, "code": vendor.Code,
	})
	writeJSON(w, http.StatusCreated, toVendorResponse(vendor))
}

func (a *API) handleGetVendor(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}
	vendor, err := a.catalog.Store().Vendors().Find(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendorResponse(vendor))
}

type updateVendorRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (a *API) handleUpdateVendor(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}
	var req updateVendorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	vendor, err := a.catalog.UpdateVendor(r.Context(), id, catalog.VendorPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "vendor_updated", map[string]any{"vendor_id": id})
	writeJSON(w, http.StatusOK, toVendorResponse(vendor))
}

func (a *API) handleDeleteVendor(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid vendor id")
		return
	}
	if err := a.catalog.Store().Vendors().Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "vendor_deleted", map[string]any{"vendor_id": id})
	writeJSON(w, http.StatusNoContent, nil)
}
