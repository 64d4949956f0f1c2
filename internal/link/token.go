package link

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// tokenBytes is the raw entropy per token. 48 bytes encode to a 64
// character URL-safe string.
const tokenBytes = 48

// NewToken draws a fresh download token from crypto/rand. The output is
// URL-safe without padding so it can sit in a path segment as-is.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("link: read entropy: %w", err)
	}
	var zero [tokenBytes]byte
	if bytes.Equal(buf, zero[:]) {
		return "", errors.New("link: entropy source returned zeros")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
