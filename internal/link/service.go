package link

import (
	"context"
	"errors"
	"time"

	"pricelink.org/internal/catalog"
)

// defaultTTL is how long a freshly issued link stays valid.
const defaultTTL = 7 * 24 * time.Hour

// Service issues and resolves download links.
type Service struct {
	links   Store
	catalog catalog.Store
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the default link lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(links Store, cat catalog.Store, opts ...Option) *Service {
	s := &Service{
		links:   links,
		catalog: cat,
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured link lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue mints one link per requested file that the dealer may receive.
// Unknown file ids and files bound to another dealer are skipped, never
// failed: the result covers exactly the subset that validated, which may
// be empty. The dealer itself must exist and be active.
func (s *Service) Issue(ctx context.Context, dealerID int64, fileIDs []int64) ([]*DownloadLink, error) {
	dealer, err := s.catalog.Dealers().Find(ctx, dealerID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrDealerUnavailable
		}
		return nil, err
	}
	if !dealer.Active {
		return nil, ErrDealerUnavailable
	}

	expiresAt := s.now().Add(s.ttl)
	var issued []*DownloadLink
	for _, fileID := range fileIDs {
		file, err := s.catalog.Files().Find(ctx, fileID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if file.DealerID.Valid && file.DealerID.Int64 != dealerID {
			continue
		}
		token, err := NewToken()
		if err != nil {
			return nil, err
		}
		l := &DownloadLink{
			FileID:    fileID,
			DealerID:  dealerID,
			Token:     token,
			ExpiresAt: expiresAt,
		}
		if err := s.links.Create(ctx, l); err != nil {
			return nil, err
		}
		issued = append(issued, l)
	}
	return issued, nil
}

// Resolve looks up a presented token and returns the link with its file.
// Unknown token, expired token, and a missing file record all come back as
// ErrLinkNotFound with nothing to tell them apart.
func (s *Service) Resolve(ctx context.Context, token string) (*DownloadLink, *catalog.PriceFile, error) {
	if token == "" {
		return nil, nil, ErrLinkNotFound
	}
	l, err := s.links.FindByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if l.Expired(s.now()) {
		return nil, nil, ErrLinkNotFound
	}
	file, err := s.catalog.Files().Find(ctx, l.FileID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil, ErrLinkNotFound
		}
		return nil, nil, err
	}
	return l, file, nil
}

// MarkDownloaded stamps first consumption. Call it only after the file
// bytes are known to be retrievable; a resolver hit followed by a storage
// miss must not consume the token.
func (s *Service) MarkDownloaded(ctx context.Context, l *DownloadLink) error {
	return s.links.MarkDownloaded(ctx, l.ID, s.now())
}

// ListForDealer returns the dealer's links, newest first.
func (s *Service) ListForDealer(ctx context.Context, dealerID int64) ([]*DownloadLink, error) {
	return s.links.ListForDealer(ctx, dealerID)
}

// ListAll returns every link, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*DownloadLink, error) {
	return s.links.ListAll(ctx)
}

// PurgeExpired deletes links whose expiry has passed and reports how many
// went.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.links.DeleteExpired(ctx, s.now())
}
