package utils

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
)

// GenerateSecureToken creates a cryptographically secure random token.
// Used for the per-session CSRF value embedded in the auth token.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ParseFileID parses a decimal file id as sent by the widget. The widget only
// ever deals in the plaintext ids the upload endpoints hand out.
func ParseFileID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
