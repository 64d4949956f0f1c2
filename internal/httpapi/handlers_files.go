package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pricelink.org/internal/audit"
	"pricelink.org/internal/auth"
	"pricelink.org/internal/catalog"
)

type fileResponse struct {
	ID         int64     `json:"id"`
	VendorID   int64     `json:"vendor_id"`
	DealerID   *int64    `json:"dealer_id,omitempty"`
	Filename   string    `json:"filename"`
	Version    string    `json:"version,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
}

func toFileResponse(f *catalog.PriceFile) fileResponse {
	resp := fileResponse{
		ID:         f.ID,
		VendorID:   f.VendorID,
		Filename:   f.Filename,
		Version:    f.Version.String,
		UploadedAt: f.UploadedAt,
		UploadedBy: f.UploadedBy.String,
	}
	if f.DealerID.Valid {
		id := f.DealerID.Int64
		resp.DealerID = &id
	}
	return resp
}

// handleListFiles shows admins the whole catalog; dealers see their own
// files plus shared ones only.
func (a *API) handleListFiles(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var (
		files []*catalog.PriceFile
		err   error
	)
	if p.Role == auth.RoleAdmin {
		files, err = a.catalog.Store().Files().List(r.Context())
	} else {
		files, err = a.catalog.Store().Files().ListForDealer(r.Context(), p.ID)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUploadFile accepts a multipart form: the file part plus vendor_id
// and optional dealer_id and version fields.
func (a *API) handleUploadFile(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	a.uploadFile(w, r, p.Email)
}

// handlePartnerUploadFile is the API-key-gated drop box the partner upload
// utility posts to. Same form as the admin upload.
func (a *API) handlePartnerUploadFile(w http.ResponseWriter, r *http.Request) {
	a.uploadFile(w, r, "upload-utility")
}

func (a *API) uploadFile(w http.ResponseWriter, r *http.Request, uploadedBy string) {
	// Parse with a small memory ceiling; larger parts spill to temp files.
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	vendorID, err := strconv.ParseInt(r.FormValue("vendor_id"), 10, 64)
	if err != nil || vendorID <= 0 {
		writeError(w, http.StatusBadRequest, "vendor_id is required")
		return
	}
	var dealerID int64
	if raw := r.FormValue("dealer_id"); raw != "" {
		dealerID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || dealerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid dealer_id")
			return
		}
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	file, err := a.catalog.SaveFile(r.Context(), catalog.FileUpload{
		VendorID:   vendorID,
		DealerID:   dealerID,
		Filename:   header.Filename,
		Version:    r.FormValue("version"),
		UploadedBy: uploadedBy,
		Content:    part,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "file_uploaded", map[string]any{
		"file_id": file.ID, "vendor_id": vendorID, "filename": file.Filename,
	})
	writeJSON(w, http.StatusCreated, toFileResponse(file))
}

// handleGetFile returns one record. Dealers only see shared files and their
// own, a foreign-dealer file looks absent to them.
func (a *API) handleGetFile(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	file, err := a.catalog.Store().Files().Find(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if p.Role == auth.RoleDealer && file.DealerID.Valid && file.DealerID.Int64 != p.ID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(file))
}

func (a *API) handleDeleteFile(w http.ResponseWriter, r *http.Request, _ auth.Principal) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	if err := a.catalog.DeleteFile(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "file_deleted", map[string]any{"file_id": id})
	writeJSON(w, http.StatusNoContent, nil)
}
