package link

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"pricelink.org/internal/catalog"
)

func resolveFixture() *fakeCatalog {
	cat := newFakeCatalog()
	cat.dealers[1] = dealerRec(1, "D-1041", true)
	cat.dealers[2] = dealerRec(2, "D-2000", false)
	cat.vendors[5] = &catalog.Vendor{ID: 5, Code: "YAMAHA", Name: "Yamaha Marine"}
	cat.vendors[6] = &catalog.Vendor{ID: 6, Code: "MERCURY", Name: "Mercury"}
	cat.aliases = append(cat.aliases, catalog.DealerVendor{
		DealerID:   1,
		VendorID:   6,
		FolderName: sql.NullString{String: "merc_prices", Valid: true},
	})
	return cat
}

func TestResolveFilesDealerBoundBeatsNewerShared(t *testing.T) {
	cat := resolveFixture()
	older := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(30 * 24 * time.Hour)
	cat.files[10] = fileRec(10, 5, 1, older) // dealer-bound, older
	cat.files[11] = fileRec(11, 5, 0, newer) // shared, newer

	svc := NewService(newFakeLinks(), cat)
	dealer, ids, err := svc.ResolveFiles(context.Background(), "D-1041", []string{"YAMAHA"})
	if err != nil {
		t.Fatalf("ResolveFiles: %v", err)
	}
	if dealer.ID != 1 {
		t.Fatalf("dealer.ID = %d, want 1", dealer.ID)
	}
	if len(ids) != 1 || ids[0] != 10 {
		t.Fatalf("ids = %v, want [10]", ids)
	}
}

func TestResolveFilesSharedTieBreaksOnID(t *testing.T) {
	cat := resolveFixture()
	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	cat.files[10] = fileRec(10, 5, 0, at)
	cat.files[11] = fileRec(11, 5, 0, at) // same timestamp, later insert

	svc := NewService(newFakeLinks(), cat)
	_, ids, err := svc.ResolveFiles(context.Background(), "D-1041", []string{"YAMAHA"})
	if err != nil {
		t.Fatalf("ResolveFiles: %v", err)
	}
	if len(ids) != 1 || ids[0] != 11 {
		t.Fatalf("ids = %v, want [11]", ids)
	}
}

func TestResolveFilesFallsBackToAnyDealerBinding(t *testing.T) {
	cat := resolveFixture()
	// Only file of the vendor belongs to another dealer; tier three still
	// surfaces it.
	cat.files[10] = fileRec(10, 5, 2, time.Now())

	svc := NewService(newFakeLinks(), cat)
	_, ids, err := svc.ResolveFiles(context.Background(), "D-1041", []string{"YAMAHA"})
	if err != nil {
		t.Fatalf("ResolveFiles: %v", err)
	}
	if len(ids) != 1 || ids[0] != 10 {
		t.Fatalf("ids = %v, want [10]", ids)
	}
}

func TestResolveFilesAlias(t *testing.T) {
	cat := resolveFixture()
	cat.files[20] = fileRec(20, 6, 0, time.Now())

	svc := NewService(newFakeLinks(), cat)
	_, ids, err := svc.ResolveFiles(context.Background(), "D-1041", []string{"merc_prices"})
	if err != nil {
		t.Fatalf("ResolveFiles: %v", err)
	}
	if len(ids) != 1 || ids[0] != 20 {
		t.Fatalf("ids = %v, want [20]", ids)
	}
}

func TestResolveFilesSkipsUnknownIdentifiers(t *testing.T) {
	cat := resolveFixture()
	cat.files[10] = fileRec(10, 5, 0, time.Now())

	svc := NewService(newFakeLinks(), cat)
	_, ids, err := svc.ResolveFiles(context.Background(), "D-1041", []string{"NOPE", "YAMAHA", ""})
	if err != nil {
		t.Fatalf("ResolveFiles: %v", err)
	}
	if len(ids) != 1 || ids[0] != 10 {
		t.Fatalf("ids = %v, want [10]", ids)
	}
}

func TestResolveFilesErrors(t *testing.T) {
	cat := resolveFixture()
	cat.files[10] = fileRec(10, 5, 0, time.Now())
	svc := NewService(newFakeLinks(), cat)

	if _, _, err := svc.ResolveFiles(context.Background(), "D-9999", []string{"YAMAHA"}); !errors.Is(err, ErrDealerUnavailable) {
		t.Fatalf("unknown customer: err = %v, want ErrDealerUnavailable", err)
	}
	if _, _, err := svc.ResolveFiles(context.Background(), "D-2000", []string{"YAMAHA"}); !errors.Is(err, ErrDealerUnavailable) {
		t.Fatalf("inactive dealer: err = %v, want ErrDealerUnavailable", err)
	}
	if _, _, err := svc.ResolveFiles(context.Background(), "D-1041", []string{"NOPE", "ALSO-NOPE"}); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("nothing resolved: err = %v, want ErrNoFiles", err)
	}
	// A known vendor with zero files is a skip, and an all-skip call is
	// ErrNoFiles, not a crash.
	if _, _, err := svc.ResolveFiles(context.Background(), "D-1041", []string{"MERCURY"}); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("vendor without files: err = %v, want ErrNoFiles", err)
	}
}
