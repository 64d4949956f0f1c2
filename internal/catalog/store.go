package catalog

import "context"

// Store bundles the persistence operations the portal needs.
type Store interface {
	Dealers() DealerStore
	Admins() AdminStore
	Vendors() VendorStore
	Files() FileStore
}

// DealerStore manages dealer records and their vendor assignments.
type DealerStore interface {
	Create(ctx context.Context, d *Dealer) error
	Find(ctx context.Context, id int64) (*Dealer, error)
	FindByEmail(ctx context.Context, email string) (*Dealer, error)
	FindByCustomerNumber(ctx context.Context, customerNumber string) (*Dealer, error)
	List(ctx context.Context) ([]*Dealer, error)
	Update(ctx context.Context, d *Dealer) error
	Delete(ctx context.Context, id int64) error

	AssignVendor(ctx context.Context, dv *DealerVendor) error
	RemoveVendor(ctx context.Context, dealerID, vendorID int64) error
	VendorAssignments(ctx context.Context, dealerID int64) ([]DealerVendor, error)
}

// AdminStore manages admin accounts.
type AdminStore interface {
	Create(ctx context.Context, a *Admin) error
	Find(ctx context.Context, id int64) (*Admin, error)
	FindByEmail(ctx context.Context, email string) (*Admin, error)
}

// VendorStore manages the vendor catalog. FindByAlias resolves a
// dealer-scoped folder alias to its vendor.
type VendorStore interface {
	Create(ctx context.Context, v *Vendor) error
	Find(ctx context.Context, id int64) (*Vendor, error)
	FindByCode(ctx context.Context, code string) (*Vendor, error)
	FindByAlias(ctx context.Context, dealerID int64, folderName string) (*Vendor, error)
	List(ctx context.Context) ([]*Vendor, error)
	Update(ctx context.Context, v *Vendor) error
	Delete(ctx context.Context, id int64) error
}

// FileStore manages price file records. The Latest* lookups implement the
// resolution tiers: ordering is uploaded_at descending with id descending as
// the tie break, so the last inserted file wins ties.
type FileStore interface {
	Create(ctx context.Context, f *PriceFile) error
	Find(ctx context.Context, id int64) (*PriceFile, error)
	List(ctx context.Context) ([]*PriceFile, error)
	ListForDealer(ctx context.Context, dealerID int64) ([]*PriceFile, error)
	Delete(ctx context.Context, id int64) error

	LatestForVendorAndDealer(ctx context.Context, vendorID, dealerID int64) (*PriceFile, error)
	LatestSharedForVendor(ctx context.Context, vendorID int64) (*PriceFile, error)
	LatestForVendor(ctx context.Context, vendorID int64) (*PriceFile, error)
}
