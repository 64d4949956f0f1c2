package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "pricelink"

// Kind tags a credential as usable for business calls or only for refresh.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed claim set carried by a session credential.
type Claims struct {
	Role   Role  `json:"role"`
	UserID int64 `json:"uid"`
	Kind   Kind  `json:"kind"`
	jwt.RegisteredClaims
}

// Codec encodes and decodes signed, time-bounded session claims. It knows
// nothing about users; the secret and algorithm are fixed configuration.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCodecClock overrides the time source used for expiry checks.
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec around the process-wide signing secret.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode signs claims for the principal using HS256.
func (c *Codec) Encode(p Principal, kind Kind, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, errors.New("auth: ttl must be greater than zero")
	}
	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role:   p.Role,
		UserID: p.ID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Decode verifies signature and expiry and returns the claims. Every failure
// mode collapses into ErrInvalidCredential so callers cannot tell a forged
// token from an expired one.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidCredential
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidCredential
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidCredential
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.UserID <= 0 {
		return nil, ErrInvalidCredential
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
