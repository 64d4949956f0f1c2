package catalog

import (
	"database/sql"
	"time"
)

// Dealer is a portal customer who receives price files.
type Dealer struct {
	ID             int64
	Name           string
	Email          string
	PasswordHash   string
	CustomerNumber string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      sql.NullTime
}

// Admin operates the portal.
type Admin struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Vendor is a price file supplier identified by a global code (e.g. YAMAHA).
type Vendor struct {
	ID          int64
	Code        string
	Name        string
	Description sql.NullString
	CreatedAt   time.Time
}

// DealerVendor assigns a vendor to a dealer, optionally under a
// dealer-specific folder alias that resolution treats as a vendor code.
type DealerVendor struct {
	ID         int64
	DealerID   int64
	VendorID   int64
	FolderName sql.NullString
}

// PriceFile is one stored file version. DealerID null means the file is
// shared across all dealers of the vendor; set means dealer-exclusive.
type PriceFile struct {
	ID         int64
	VendorID   int64
	DealerID   sql.NullInt64
	Filename   string
	FilePath   string
	Version    sql.NullString
	UploadedAt time.Time
	UploadedBy sql.NullString
}
