package link

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const linkColumns = `id, file_id, dealer_id, token, created_at, expires_at, downloaded_at`

func scanLink(row *sql.Row) (*DownloadLink, error) {
	var l DownloadLink
	err := row.Scan(&l.ID, &l.FileID, &l.DealerID, &l.Token,
		&l.CreatedAt, &l.ExpiresAt, &l.DownloadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *PGStore) Create(ctx context.Context, l *DownloadLink) error {
	return s.db.QueryRowContext(ctx,
		`insert into download_links(file_id, dealer_id, token, expires_at)
		 values($1,$2,$3,$4) returning id, created_at`,
		l.FileID, l.DealerID, l.Token, l.ExpiresAt,
	).Scan(&l.ID, &l.CreatedAt)
}

func (s *PGStore) FindByToken(ctx context.Context, token string) (*DownloadLink, error) {
	return scanLink(s.db.QueryRowContext(ctx,
		`select `+linkColumns+` from download_links where token=$1`, token))
}

func (s *PGStore) ListForDealer(ctx context.Context, dealerID int64) ([]*DownloadLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+linkColumns+` from download_links
		 where dealer_id=$1 order by created_at desc, id desc`, dealerID)
	if err != nil {
		return nil, err
	}
	return collectLinks(rows)
}

func (s *PGStore) ListAll(ctx context.Context) ([]*DownloadLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+linkColumns+` from download_links order by created_at desc, id desc`)
	if err != nil {
		return nil, err
	}
	return collectLinks(rows)
}

func collectLinks(rows *sql.Rows) ([]*DownloadLink, error) {
	defer rows.Close()
	var links []*DownloadLink
	for rows.Next() {
		var l DownloadLink
		if err := rows.Scan(&l.ID, &l.FileID, &l.DealerID, &l.Token,
			&l.CreatedAt, &l.ExpiresAt, &l.DownloadedAt); err != nil {
			return nil, err
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

// MarkDownloaded writes the timestamp only where it is still unset. Zero
// rows affected means an earlier consumption already stamped it, which is
// not an error.
func (s *PGStore) MarkDownloaded(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update download_links set downloaded_at=$1
		 where id=$2 and downloaded_at is null`, at, id)
	return err
}

func (s *PGStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`delete from download_links where expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
