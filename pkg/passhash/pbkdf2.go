package passhash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPBKDF2Iterations matches passlib's pbkdf2_sha256 default.
	DefaultPBKDF2Iterations = 29000

	pbkdf2KeyLen = 32
)

// PBKDF2 is a pbkdf2-sha256 Hasher.
type PBKDF2 struct {
	iterations int
}

// NewPBKDF2 returns a pbkdf2-sha256 hasher. Non-positive iteration counts
// select DefaultPBKDF2Iterations.
func NewPBKDF2(iterations int) *PBKDF2 {
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return &PBKDF2{iterations: iterations}
}

// Hash implements Hasher.
func (p *PBKDF2) Hash(secret string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(secret), salt, p.iterations, pbkdf2KeyLen, sha256.New)
	return "$" + PBKDF2SHA256 + "$" + strconv.Itoa(p.iterations) + "$" + ab64Encode(salt) + "$" + ab64Encode(key), nil
}

// Verify implements Hasher. The round count is read from the hash.
func (p *PBKDF2) Verify(secret, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != PBKDF2SHA256 {
		return false
	}

	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return false
	}
	salt, err := ab64Decode(parts[3])
	if err != nil {
		return false
	}
	expected, err := ab64Decode(parts[4])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := pbkdf2.Key([]byte(secret), salt, rounds, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// ab64 is passlib's "adapted base64": standard alphabet, no padding, '.' for '+'.
func ab64Encode(b []byte) string {
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}
