package link

import (
	"context"
	"errors"
	"strings"

	"pricelink.org/internal/catalog"
)

// ResolveFiles maps partner-supplied vendor identifiers for one dealer to
// concrete file ids. Each identifier is handled independently:
//
//  1. exact match on a global vendor code;
//  2. failing that, a folder alias this dealer has for some vendor;
//  3. failing both, the identifier is skipped.
//
// For a resolved vendor the file is picked dealer-exclusive first, then
// shared, then any file of the vendor, always the most recent one. The call
// fails only when the customer number resolves to no active dealer
// (ErrDealerUnavailable) or when every identifier came up empty
// (ErrNoFiles).
func (s *Service) ResolveFiles(ctx context.Context, customerNumber string, vendorIdentifiers []string) (*catalog.Dealer, []int64, error) {
	dealer, err := s.catalog.Dealers().FindByCustomerNumber(ctx, strings.TrimSpace(customerNumber))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil, ErrDealerUnavailable
		}
		return nil, nil, err
	}
	if !dealer.Active {
		return nil, nil, ErrDealerUnavailable
	}

	var fileIDs []int64
	for _, ident := range vendorIdentifiers {
		ident = strings.TrimSpace(ident)
		if ident == "" {
			continue
		}
		vendor, err := s.lookupVendor(ctx, dealer.ID, ident)
		if err != nil {
			return nil, nil, err
		}
		if vendor == nil {
			continue
		}
		file, err := s.pickFile(ctx, vendor.ID, dealer.ID)
		if err != nil {
			return nil, nil, err
		}
		if file == nil {
			continue
		}
		fileIDs = append(fileIDs, file.ID)
	}
	if len(fileIDs) == 0 {
		return nil, nil, ErrNoFiles
	}
	return dealer, fileIDs, nil
}

func (s *Service) lookupVendor(ctx context.Context, dealerID int64, ident string) (*catalog.Vendor, error) {
	vendor, err := s.catalog.Vendors().FindByCode(ctx, ident)
	if err == nil {
		return vendor, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	vendor, err = s.catalog.Vendors().FindByAlias(ctx, dealerID, ident)
	if err == nil {
		return vendor, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}

// pickFile walks the precedence tiers and returns nil when the vendor has
// no files at all.
func (s *Service) pickFile(ctx context.Context, vendorID, dealerID int64) (*catalog.PriceFile, error) {
	file, err := s.catalog.Files().LatestForVendorAndDealer(ctx, vendorID, dealerID)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	file, err = s.catalog.Files().LatestSharedForVendor(ctx, vendorID)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	file, err = s.catalog.Files().LatestForVendor(ctx, vendorID)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}
