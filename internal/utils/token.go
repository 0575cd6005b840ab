package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewOpaqueToken returns a hex string generated from n bytes of
// cryptographically secure random data. Refresh tokens use 48 bytes
// (96 hex characters), which is far beyond brute-force reach.
func NewOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
