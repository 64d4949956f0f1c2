package link

import (
	"context"
	"time"
)

// Store persists download links. MarkDownloaded must be an unconditional
// idempotent write: set downloaded_at only where it is still null, so a
// racing second consumer cannot overwrite the first timestamp.
type Store interface {
	Create(ctx context.Context, l *DownloadLink) error
	FindByToken(ctx context.Context, token string) (*DownloadLink, error)
	ListForDealer(ctx context.Context, dealerID int64) ([]*DownloadLink, error)
	ListAll(ctx context.Context) ([]*DownloadLink, error)
	MarkDownloaded(ctx context.Context, id int64, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
