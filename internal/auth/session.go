package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	defaultAccessTTL  = 60 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Directory resolves principals from the record store. Implementations return
// the projection only, plus the stored password hash where login needs it.
type Directory interface {
	FindAdmin(ctx context.Context, id int64) (Principal, error)
	FindAdminByEmail(ctx context.Context, email string) (Principal, string, error)
	FindDealer(ctx context.Context, id int64) (Principal, error)
	FindDealerByEmail(ctx context.Context, email string) (Principal, string, error)
}

// TokenPair is an access/refresh credential pair for one principal.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Sessions issues and verifies session credentials. Issuance never touches
// persistent state and there is no revocation: a leaked credential stays
// valid until natural expiry (known gap, preserved deliberately).
type Sessions struct {
	codec      *Codec
	dir        Directory
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// SessionOption configures Sessions.
type SessionOption func(*Sessions)

// WithAccessTTL overrides the access credential lifetime.
func WithAccessTTL(ttl time.Duration) SessionOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh credential lifetime.
func WithRefreshTTL(ttl time.Duration) SessionOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// NewSessions constructs the session issuer/verifier.
func NewSessions(codec *Codec, dir Directory, opts ...SessionOption) *Sessions {
	s := &Sessions{
		codec:      codec,
		dir:        dir,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates by email and password, probing the admin table first
// and then dealers, and mints a credential pair. Every failure is
// ErrUnauthenticated; the caller learns nothing more specific.
func (s *Sessions) Login(ctx context.Context, email, password string) (TokenPair, Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, Principal{}, ErrUnauthenticated
	}

	if p, hash, err := s.dir.FindAdminByEmail(ctx, email); err == nil {
		if VerifyPassword(hash, password) == nil {
			pair, err := s.IssuePair(p)
			if err != nil {
				return TokenPair{}, Principal{}, err
			}
			return pair, p, nil
		}
		return TokenPair{}, Principal{}, ErrUnauthenticated
	} else if !errors.Is(err, ErrNotFound) {
		return TokenPair{}, Principal{}, err
	}

	p, hash, err := s.dir.FindDealerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, Principal{}, ErrUnauthenticated
		}
		return TokenPair{}, Principal{}, err
	}
	if !p.Active || VerifyPassword(hash, password) != nil {
		return TokenPair{}, Principal{}, ErrUnauthenticated
	}
	pair, err := s.IssuePair(p)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	return pair, p, nil
}

// IssuePair mints an access/refresh pair carrying the same identity. Only
// kind and TTL differ between the two credentials.
func (s *Sessions) IssuePair(p Principal) (TokenPair, error) {
	access, accessExp, err := s.codec.Encode(p, KindAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.codec.Encode(p, KindRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// AccessTTL reports the configured access credential lifetime.
func (s *Sessions) AccessTTL() time.Duration { return s.accessTTL }

// Verify decodes a presented credential, checks its kind, and resolves the
// principal from the directory. An access credential never passes a refresh
// check and vice versa. Inactive dealers are rejected even with a valid
// signature.
func (s *Sessions) Verify(ctx context.Context, token string, kind Kind) (Principal, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}
	if claims.Kind != kind {
		return Principal{}, ErrUnauthenticated
	}
	if !claims.Role.Valid() {
		return Principal{}, ErrUnauthenticated
	}

	var p Principal
	switch claims.Role {
	case RoleAdmin:
		p, err = s.dir.FindAdmin(ctx, claims.UserID)
	case RoleDealer:
		p, err = s.dir.FindDealer(ctx, claims.UserID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, err
	}
	if p.Role == RoleDealer && !p.Active {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}

// Refresh accepts a refresh-kind credential and mints a fresh pair. The
// decoded subject must still match the record's current email; a record whose
// email changed after issuance invalidates its outstanding refresh
// credentials.
func (s *Sessions) Refresh(ctx context.Context, token string) (TokenPair, Principal, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return TokenPair{}, Principal{}, ErrUnauthenticated
	}
	p, err := s.Verify(ctx, token, KindRefresh)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	if !strings.EqualFold(claims.Subject, p.Email) {
		return TokenPair{}, Principal{}, ErrUnauthenticated
	}
	pair, err := s.IssuePair(p)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	return pair, p, nil
}
