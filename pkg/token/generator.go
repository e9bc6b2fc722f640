package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// Prefix marks every generated session token.
	Prefix = "pvtk_"

	// DefaultLength is the default number of random bytes in a token.
	DefaultLength = 32

	// MinLength is the smallest accepted number of random bytes.
	MinLength = 16
)

// Generate generates a session token with DefaultLength random bytes.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a session token with the given number of
// random bytes. Lengths below MinLength are rejected.
func GenerateWithLength(length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("token: length %d below minimum %d", length, MinLength)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random bytes: %w", err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// IsWellFormed reports whether s looks like a token produced by Generate.
// It is a cheap pre-check; it says nothing about validity.
func IsWellFormed(s string) bool {
	body, ok := strings.CutPrefix(s, Prefix)
	if !ok {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil && len(decoded) >= MinLength
}
