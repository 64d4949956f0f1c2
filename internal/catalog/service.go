package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"pricelink.org/internal/auth"
)

// BlobStore is the byte store the catalog writes uploads into. Paths are
// namespaced by vendor code and, for dealer-exclusive files, the dealer id.
type BlobStore interface {
	Save(vendorCode string, dealerID int64, filename string, r io.Reader) (string, error)
	Delete(relPath string) error
}

// Service implements the portal's record-keeping operations on top of the
// store: dealer/vendor/file lifecycle plus the blob interplay for uploads.
type Service struct {
	store Store
	blobs BlobStore
}

func NewService(store Store, blobs BlobStore) *Service {
	return &Service{store: store, blobs: blobs}
}

func (s *Service) Store() Store { return s.store }

// NewDealer is the input for dealer creation.
type NewDealer struct {
	Name           string
	Email          string
	Password       string
	CustomerNumber string
	Active         bool
}

// CreateDealer hashes the password and inserts the record. Email and customer
// number collisions surface as ErrConflict.
func (s *Service) CreateDealer(ctx context.Context, in NewDealer) (*Dealer, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.CustomerNumber = strings.TrimSpace(in.CustomerNumber)
	if in.Name == "" || in.Email == "" || in.CustomerNumber == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email, customer number and password are required", ErrInvalid)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	dealer := &Dealer{
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   hash,
		CustomerNumber: in.CustomerNumber,
		Active:         in.Active,
	}
	if err := s.store.Dealers().Create(ctx, dealer); err != nil {
		return nil, err
	}
	return dealer, nil
}

// DealerPatch carries the optional dealer updates; nil fields stay untouched.
type DealerPatch struct {
	Name           *string
	Email          *string
	Password       *string
	CustomerNumber *string
	Active         *bool
}

func (s *Service) UpdateDealer(ctx context.Context, id int64, patch DealerPatch) (*Dealer, error) {
	dealer, err := s.store.Dealers().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		dealer.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		dealer.Email = strings.TrimSpace(strings.ToLower(*patch.Email))
	}
	if patch.CustomerNumber != nil {
		dealer.CustomerNumber = strings.TrimSpace(*patch.CustomerNumber)
	}
	if patch.Active != nil {
		dealer.Active = *patch.Active
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		dealer.PasswordHash = hash
	}
	if dealer.Name == "" || dealer.Email == "" || dealer.CustomerNumber == "" {
		return nil, fmt.Errorf("%w: name, email and customer number must not be blank", ErrInvalid)
	}
	if err := s.store.Dealers().Update(ctx, dealer); err != nil {
		return nil, err
	}
	return dealer, nil
}

func (s *Service) DeleteDealer(ctx context.Context, id int64) error {
	// Dependent dealer_vendors, price_files and download_links go with the
	// row via FK cascade.
	return s.store.Dealers().Delete(ctx, id)
}

func (s *Service) CreateVendor(ctx context.Context, code, name, description string) (*Vendor, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: code and name are required", ErrInvalid)
	}
	vendor := &Vendor{Code: code, Name: name}
	if description = strings.TrimSpace(description); description != "" {
		vendor.Description = sql.NullString{String: description, Valid: true}
	}
	if err := s.store.Vendors().Create(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// VendorPatch carries the optional vendor updates; nil fields stay untouched.
// The code is immutable once assigned, folder aliases and files hang off it.
type VendorPatch struct {
	Name        *string
	Description *string
}

func (s *Service) UpdateVendor(ctx context.Context, id int64, patch VendorPatch) (*Vendor, error) {
	vendor, err := s.store.Vendors().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		vendor.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		vendor.Description = sql.NullString{String: desc, Valid: desc != ""}
	}
	if vendor.Name == "" {
		return nil, fmt.Errorf("%w: name must not be blank", ErrInvalid)
	}
	if err := s.store.Vendors().Update(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// AssignVendor binds a vendor to a dealer, optionally under a folder alias
// that resolution will accept in place of the vendor code.
func (s *Service) AssignVendor(ctx context.Context, dealerID, vendorID int64, folderName string) (*DealerVendor, error) {
	if _, err := s.store.Dealers().Find(ctx, dealerID); err != nil {
		return nil, err
	}
	if _, err := s.store.Vendors().Find(ctx, vendorID); err != nil {
		return nil, err
	}
	dv := &DealerVendor{DealerID: dealerID, VendorID: vendorID}
	if folderName = strings.TrimSpace(folderName); folderName != "" {
		dv.FolderName = sql.NullString{String: folderName, Valid: true}
	}
	if err := s.store.Dealers().AssignVendor(ctx, dv); err != nil {
		return nil, err
	}
	return dv, nil
}

// FileUpload is the input for storing a new price file version.
type FileUpload struct {
	VendorID   int64
	DealerID   int64 // zero means shared across the vendor's dealers
	Filename   string
	Version    string
	UploadedBy string
	Content    io.Reader
}

// SaveFile writes the blob first and records the row after, so a failed write
// never leaves a dangling record.
func (s *Service) SaveFile(ctx context.Context, in FileUpload) (*PriceFile, error) {
	in.Filename = strings.TrimSpace(in.Filename)
	if in.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalid)
	}
	vendor, err := s.store.Vendors().Find(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}
	if in.DealerID != 0 {
		if _, err := s.store.Dealers().Find(ctx, in.DealerID); err != nil {
			return nil, err
		}
	}
	relPath, err := s.blobs.Save(vendor.Code, in.DealerID, in.Filename, in.Content)
	if err != nil {
		return nil, err
	}
	file := &PriceFile{
		VendorID: in.VendorID,
		Filename: in.Filename,
		FilePath: relPath,
	}
	if in.DealerID != 0 {
		file.DealerID = sql.NullInt64{Int64: in.DealerID, Valid: true}
	}
	if v := strings.TrimSpace(in.Version); v != "" {
		file.Version = sql.NullString{String: v, Valid: true}
	}
	if by := strings.TrimSpace(in.UploadedBy); by != "" {
		file.UploadedBy = sql.NullString{String: by, Valid: true}
	}
	if err := s.store.Files().Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile removes the record and then the blob. A missing blob is not an
// error; the record is authoritative.
func (s *Service) DeleteFile(ctx context.Context, id int64) error {
	file, err := s.store.Files().Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Files().Delete(ctx, id); err != nil {
		return err
	}
	return s.blobs.Delete(file.FilePath)
}
