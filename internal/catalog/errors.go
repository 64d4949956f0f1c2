package catalog

import "errors"

var (
	ErrNotFound = errors.New("catalog: not found")
	// ErrConflict signals a uniqueness violation on a business key such as
	// email, customer number, or vendor code.
	ErrConflict = errors.New("catalog: already exists")
	ErrInvalid  = errors.New("catalog: invalid input")
)
