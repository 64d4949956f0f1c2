package auth

import "errors"

var (
	// ErrInvalidCredential covers every decode failure: malformed token, bad
	// signature, expired timestamp, wrong kind. Callers must not distinguish
	// them.
	ErrInvalidCredential = errors.New("auth: invalid credential")

	// ErrUnauthenticated means the caller holds no usable session credential.
	ErrUnauthenticated = errors.New("auth: not authenticated")

	// ErrForbidden means the session is valid but the role is wrong for the
	// operation. Kept distinct from ErrUnauthenticated on purpose.
	ErrForbidden = errors.New("auth: forbidden")

	// ErrNotFound is returned by Directory implementations when no principal
	// record matches.
	ErrNotFound = errors.New("auth: principal not found")
)
