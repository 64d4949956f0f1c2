package catalog

import (
	"context"
	"errors"

	"pricelink.org/internal/auth"
)

var _ auth.Directory = (*Directory)(nil)

// Directory adapts the record store to the credential subsystem. It hands the
// auth package a (role, id, email) projection and the password hash where
// login needs it, never the full record.
type Directory struct {
	store Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

func dealerPrincipal(d *Dealer) auth.Principal {
	return auth.Principal{
		Role:           auth.RoleDealer,
		ID:             d.ID,
		Email:          d.Email,
		Name:           d.Name,
		CustomerNumber: d.CustomerNumber,
		Active:         d.Active,
	}
}

func adminPrincipal(a *Admin) auth.Principal {
	return auth.Principal{
		Role:   auth.RoleAdmin,
		ID:     a.ID,
		Email:  a.Email,
		Active: true,
	}
}

func (d *Directory) FindAdmin(ctx context.Context, id int64) (auth.Principal, error) {
	a, err := d.store.Admins().Find(ctx, id)
	if err != nil {
		return auth.Principal{}, mapDirectoryError(err)
	}
	return adminPrincipal(a), nil
}

func (d *Directory) FindAdminByEmail(ctx context.Context, email string) (auth.Principal, string, error) {
	a, err := d.store.Admins().FindByEmail(ctx, email)
	if err != nil {
		return auth.Principal{}, "", mapDirectoryError(err)
	}
	return adminPrincipal(a), a.PasswordHash, nil
}

func (d *Directory) FindDealer(ctx context.Context, id int64) (auth.Principal, error) {
	rec, err := d.store.Dealers().Find(ctx, id)
	if err != nil {
		return auth.Principal{}, mapDirectoryError(err)
	}
	return dealerPrincipal(rec), nil
}

func (d *Directory) FindDealerByEmail(ctx context.Context, email string) (auth.Principal, string, error) {
	rec, err := d.store.Dealers().FindByEmail(ctx, email)
	if err != nil {
		return auth.Principal{}, "", mapDirectoryError(err)
	}
	return dealerPrincipal(rec), rec.PasswordHash, nil
}

func mapDirectoryError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return auth.ErrNotFound
	}
	return err
}
