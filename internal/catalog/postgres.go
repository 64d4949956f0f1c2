package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Dealers() DealerStore { return &dealerStore{db: s.db} }
func (s *PGStore) Admins() AdminStore   { return &adminStore{db: s.db} }
func (s *PGStore) Vendors() VendorStore { return &vendorStore{db: s.db} }
func (s *PGStore) Files() FileStore     { return &fileStore{db: s.db} }

const uniqueViolation = "23505"

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

// Dealer store --------------------------------------------------------------

type dealerStore struct{ db *sql.DB }

const dealerColumns = `id, name, email, password_hash, customer_number, active, created_at, updated_at`

func scanDealer(row *sql.Row) (*Dealer, error) {
	var d Dealer
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.CustomerNumber,
		&d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *dealerStore) Create(ctx context.Context, d *Dealer) error {
	err := s.db.QueryRowContext(ctx,
		`insert into dealers(name, email, password_hash, customer_number, active)
		 values($1,$2,$3,$4,$5) returning id, created_at`,
		d.Name, d.Email, d.PasswordHash, d.CustomerNumber, d.Active,
	).Scan(&d.ID, &d.CreatedAt)
	return mapWriteError(err)
}

func (s *dealerStore) Find(ctx context.Context, id int64) (*Dealer, error) {
	return scanDealer(s.db.QueryRowContext(ctx,
		`select `+dealerColumns+` from dealers where id=$1`, id))
}

func (s *dealerStore) FindByEmail(ctx context.Context, email string) (*Dealer, error) {
	return scanDealer(s.db.QueryRowContext(ctx,
		`select `+dealerColumns+` from dealers where email=$1`, email))
}

func (s *dealerStore) FindByCustomerNumber(ctx context.Context, customerNumber string) (*Dealer, error) {
	return scanDealer(s.db.QueryRowContext(ctx,
		`select `+dealerColumns+` from dealers where customer_number=$1`, customerNumber))
}

func (s *dealerStore) List(ctx context.Context) ([]*Dealer, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+dealerColumns+` from dealers order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dealers []*Dealer
	for rows.Next() {
		var d Dealer
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.CustomerNumber,
			&d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		dealers = append(dealers, &d)
	}
	return dealers, rows.Err()
}

func (s *dealerStore) Update(ctx context.Context, d *Dealer) error {
	res, err := s.db.ExecContext(ctx,
		`update dealers set name=$1, email=$2, password_hash=$3, customer_number=$4,
		 active=$5, updated_at=now() where id=$6`,
		d.Name, d.Email, d.PasswordHash, d.CustomerNumber, d.Active, d.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *dealerStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from dealers where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *dealerStore) AssignVendor(ctx context.Context, dv *DealerVendor) error {
	err := s.db.QueryRowContext(ctx,
		`insert into dealer_vendors(dealer_id, vendor_id, custom_folder_name)
		 values($1,$2,$3) returning id`,
		dv.DealerID, dv.VendorID, dv.FolderName,
	).Scan(&dv.ID)
	return mapWriteError(err)
}

func (s *dealerStore) RemoveVendor(ctx context.Context, dealerID, vendorID int64) error {
	res, err := s.db.ExecContext(ctx,
		`delete from dealer_vendors where dealer_id=$1 and vendor_id=$2`, dealerID, vendorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *dealerStore) VendorAssignments(ctx context.Context, dealerID int64) ([]DealerVendor, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, dealer_id, vendor_id, custom_folder_name from dealer_vendors where dealer_id=$1 order by id`,
		dealerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DealerVendor
	for rows.Next() {
		var dv DealerVendor
		if err := rows.Scan(&dv.ID, &dv.DealerID, &dv.VendorID, &dv.FolderName); err != nil {
			return nil, err
		}
		result = append(result, dv)
	}
	return result, rows.Err()
}

// Admin store ---------------------------------------------------------------

type adminStore struct{ db *sql.DB }

func scanAdmin(row *sql.Row) (*Admin, error) {
	var a Admin
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *adminStore) Create(ctx context.Context, a *Admin) error {
	err := s.db.QueryRowContext(ctx,
		`insert into admins(email, password_hash) values($1,$2) returning id, created_at`,
		a.Email, a.PasswordHash,
	).Scan(&a.ID, &a.CreatedAt)
	return mapWriteError(err)
}

func (s *adminStore) Find(ctx context.Context, id int64) (*Admin, error) {
	return scanAdmin(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, created_at from admins where id=$1`, id))
}

func (s *adminStore) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	return scanAdmin(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, created_at from admins where email=$1`, email))
}

// Vendor store --------------------------------------------------------------

type vendorStore struct{ db *sql.DB }

func scanVendor(row *sql.Row) (*Vendor, error) {
	var v Vendor
	if err := row.Scan(&v.ID, &v.Code, &v.Name, &v.Description, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *vendorStore) Create(ctx context.Context, v *Vendor) error {
	err := s.db.QueryRowContext(ctx,
		`insert into vendors(code, name, description) values($1,$2,$3) returning id, created_at`,
		v.Code, v.Name, v.Description,
	).Scan(&v.ID, &v.CreatedAt)
	return mapWriteError(err)
}

func (s *vendorStore) Find(ctx context.Context, id int64) (*Vendor, error) {
	return scanVendor(s.db.QueryRowContext(ctx,
		`select id, code, name, description, created_at from vendors where id=$1`, id))
}

func (s *vendorStore) FindByCode(ctx context.Context, code string) (*Vendor, error) {
	return scanVendor(s.db.QueryRowContext(ctx,
		`select id, code, name, description, created_at from vendors where code=$1`, code))
}

func (s *vendorStore) FindByAlias(ctx context.Context, dealerID int64, folderName string) (*Vendor, error) {
	return scanVendor(s.db.QueryRowContext(ctx,
		`select v.id, v.code, v.name, v.description, v.created_at
		 from vendors v join dealer_vendors dv on dv.vendor_id = v.id
		 where dv.dealer_id=$1 and dv.custom_folder_name=$2`,
		dealerID, folderName))
}

func (s *vendorStore) List(ctx context.Context) ([]*Vendor, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, code, name, description, created_at from vendors order by code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []*Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Code, &v.Name, &v.Description, &v.CreatedAt); err != nil {
			return nil, err
		}
		vendors = append(vendors, &v)
	}
	return vendors, rows.Err()
}

func (s *vendorStore) Update(ctx context.Context, v *Vendor) error {
	res, err := s.db.ExecContext(ctx,
		`update vendors set name=$1, description=$2 where id=$3`,
		v.Name, v.Description, v.ID)
	if err != nil {
		return mapWriteError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *vendorStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from vendors where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// File store ----------------------------------------------------------------

type fileStore struct{ db *sql.DB }

const fileColumns = `id, vendor_id, dealer_id, filename, file_path, version, uploaded_at, uploaded_by`

func scanFile(row *sql.Row) (*PriceFile, error) {
	var f PriceFile
	err := row.Scan(&f.ID, &f.VendorID, &f.DealerID, &f.Filename, &f.FilePath,
		&f.Version, &f.UploadedAt, &f.UploadedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (s *fileStore) Create(ctx context.Context, f *PriceFile) error {
	err := s.db.QueryRowContext(ctx,
		`insert into price_files(vendor_id, dealer_id, filename, file_path, version, uploaded_by)
		 values($1,$2,$3,$4,$5,$6) returning id, uploaded_at`,
		f.VendorID, f.DealerID, f.Filename, f.FilePath, f.Version, f.UploadedBy,
	).Scan(&f.ID, &f.UploadedAt)
	return mapWriteError(err)
}

func (s *fileStore) Find(ctx context.Context, id int64) (*PriceFile, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		`select `+fileColumns+` from price_files where id=$1`, id))
}

func (s *fileStore) list(ctx context.Context, query string, args ...any) ([]*PriceFile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*PriceFile
	for rows.Next() {
		var f PriceFile
		if err := rows.Scan(&f.ID, &f.VendorID, &f.DealerID, &f.Filename, &f.FilePath,
			&f.Version, &f.UploadedAt, &f.UploadedBy); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (s *fileStore) List(ctx context.Context) ([]*PriceFile, error) {
	return s.list(ctx,
		`select `+fileColumns+` from price_files order by uploaded_at desc, id desc`)
}

// ListForDealer returns the dealer's own files plus shared files of every
// vendor, never another dealer's exclusives.
func (s *fileStore) ListForDealer(ctx context.Context, dealerID int64) ([]*PriceFile, error) {
	return s.list(ctx,
		`select `+fileColumns+` from price_files
		 where dealer_id=$1 or dealer_id is null
		 order by uploaded_at desc, id desc`, dealerID)
}

func (s *fileStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from price_files where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *fileStore) LatestForVendorAndDealer(ctx context.Context, vendorID, dealerID int64) (*PriceFile, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		`select `+fileColumns+` from price_files
		 where vendor_id=$1 and dealer_id=$2
		 order by uploaded_at desc, id desc limit 1`, vendorID, dealerID))
}

func (s *fileStore) LatestSharedForVendor(ctx context.Context, vendorID int64) (*PriceFile, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		`select `+fileColumns+` from price_files
		 where vendor_id=$1 and dealer_id is null
		 order by uploaded_at desc, id desc limit 1`, vendorID))
}

func (s *fileStore) LatestForVendor(ctx context.Context, vendorID int64) (*PriceFile, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		`select `+fileColumns+` from price_files
		 where vendor_id=$1
		 order by uploaded_at desc, id desc limit 1`, vendorID))
}
