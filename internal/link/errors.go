package link

import "errors"

var (
	// ErrDealerUnavailable covers both an unknown dealer and an inactive
	// one. Callers that need to tell them apart should log before mapping.
	ErrDealerUnavailable = errors.New("link: dealer unavailable")
	// ErrLinkNotFound is returned for unknown tokens, expired tokens, and
	// tokens whose file record is gone. The cases are collapsed on purpose
	// so probing tokens leaks nothing about why one was rejected.
	ErrLinkNotFound = errors.New("link: not found")
	// ErrNoFiles means the dealer resolved but no vendor identifier
	// produced a file.
	ErrNoFiles = errors.New("link: no files resolved")
)
