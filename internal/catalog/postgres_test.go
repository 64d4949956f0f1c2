package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func TestDealerCreate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into dealers").
		WithArgs("North Coast Marine", "parts@ncmarine.example", "hash", "D-1041", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Now()))

	d := &Dealer{
		Name:           "North Coast Marine",
		Email:          "parts@ncmarine.example",
		PasswordHash:   "hash",
		CustomerNumber: "D-1041",
		Active:         true,
	}
	if err := store.Dealers().Create(context.Background(), d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.ID != 7 {
		t.Fatalf("ID = %d, want 7", d.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDealerCreateDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("insert into dealers").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "dealers_email_key"})

	err := store.Dealers().Create(context.Background(), &Dealer{
		Name: "Dup", Email: "dup@example.com", PasswordHash: "h", CustomerNumber: "D-1",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestDealerFindNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from dealers where id=").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.Dealers().Find(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDealerUpdateMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update dealers set").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Dealers().Update(context.Background(), &Dealer{ID: 42, Name: "x", Email: "x@x", CustomerNumber: "D"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestVendorFindByAlias(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("from vendors v join dealer_vendors dv").
		WithArgs(int64(3), "yam_prices").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "description", "created_at"}).
			AddRow(5, "YAMAHA", "Yamaha Marine", nil, time.Now()))

	v, err := store.Vendors().FindByAlias(context.Background(), 3, "yam_prices")
	if err != nil {
		t.Fatalf("FindByAlias: %v", err)
	}
	if v.Code != "YAMAHA" {
		t.Fatalf("Code = %q, want YAMAHA", v.Code)
	}
}

func TestFileCreateNullableColumns(t *testing.T) {
	store, mock := newMockStore(t)

	// Shared file: dealer_id, version and uploaded_by all null.
	mock.ExpectQuery("insert into price_files").
		WithArgs(int64(5), sql.NullInt64{}, "prices.xlsx", "YAMAHA/prices.xlsx", sql.NullString{}, sql.NullString{}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow(12, time.Now()))

	f := &PriceFile{VendorID: 5, Filename: "prices.xlsx", FilePath: "YAMAHA/prices.xlsx"}
	if err := store.Files().Create(context.Background(), f); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ID != 12 {
		t.Fatalf("ID = %d, want 12", f.ID)
	}
}

func TestLatestForVendorAndDealer(t *testing.T) {
	store, mock := newMockStore(t)

	uploaded := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("where vendor_id=(.+) and dealer_id=(.+)").
		WithArgs(int64(5), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "vendor_id", "dealer_id", "filename", "file_path", "version", "uploaded_at", "uploaded_by",
		}).AddRow(12, 5, 3, "prices.xlsx", "YAMAHA/3/prices.xlsx", "2025-06", uploaded, "admin@portal"))

	f, err := store.Files().LatestForVendorAndDealer(context.Background(), 5, 3)
	if err != nil {
		t.Fatalf("LatestForVendorAndDealer: %v", err)
	}
	if f.ID != 12 || !f.DealerID.Valid || f.DealerID.Int64 != 3 {
		t.Fatalf("unexpected file: %+v", f)
	}
}

func TestLatestSharedForVendorMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("where vendor_id=(.+) and dealer_id is null").
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.Files().LatestSharedForVendor(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
