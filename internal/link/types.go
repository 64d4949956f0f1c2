package link

import (
	"database/sql"
	"time"
)

// DownloadLink binds an opaque token to one file for one dealer until
// ExpiresAt. DownloadedAt is set once on first consumption and never
// updated afterwards.
type DownloadLink struct {
	ID           int64
	FileID       int64
	DealerID     int64
	Token        string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	DownloadedAt sql.NullTime
}

// Expired reports whether the link is past its expiry at the given instant.
func (l *DownloadLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
