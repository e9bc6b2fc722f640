// Package passhash hashes and verifies passwords and session secrets.
//
// Hashes are self-describing modular-crypt strings, so a Hasher can verify
// any hash it produced regardless of the parameters configured later:
//
//	$pbkdf2-sha256$<rounds>$<ab64 salt>$<ab64 checksum>
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<b64 salt>$<b64 hash>
//
// The pbkdf2-sha256 layout is the one used by passlib, so existing password
// hashes remain verifiable.
package passhash

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm names accepted by New.
const (
	PBKDF2SHA256 = "pbkdf2-sha256"
	Argon2ID     = "argon2id"
)

// SaltLength is the number of random salt bytes for every algorithm.
const SaltLength = 16

var (
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("passhash: malformed hash")

	// ErrUnknownAlgorithm is returned for an unsupported algorithm name.
	ErrUnknownAlgorithm = errors.New("passhash: unknown algorithm")
)

// Hasher produces and checks salted slow hashes.
type Hasher interface {
	// Hash returns a new salted hash of secret.
	Hash(secret string) (string, error)

	// Verify reports whether secret matches the encoded hash.
	// It never returns true for a malformed hash.
	Verify(secret, encoded string) bool
}

// Options tunes the hashers built by New.
type Options struct {
	// PBKDF2Iterations is the pbkdf2-sha256 round count (default 29000).
	PBKDF2Iterations int
}

// New returns the Hasher for the named algorithm.
//
// The returned Hasher hashes with the named algorithm but verifies hashes of
// either algorithm, which keeps accounts usable when the configured
// algorithm changes.
func New(algorithm string, opts Options) (Hasher, error) {
	pb := NewPBKDF2(opts.PBKDF2Iterations)
	ar := NewArgon2ID()

	switch strings.ToLower(algorithm) {
	case "", PBKDF2SHA256:
		return &multi{primary: pb, byName: map[string]Hasher{PBKDF2SHA256: pb, Argon2ID: ar}}, nil
	case Argon2ID:
		return &multi{primary: ar, byName: map[string]Hasher{PBKDF2SHA256: pb, Argon2ID: ar}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}

// Algorithm returns the algorithm name of an encoded hash, or "".
func Algorithm(encoded string) string {
	if !strings.HasPrefix(encoded, "$") {
		return ""
	}
	name, _, _ := strings.Cut(encoded[1:], "$")
	return name
}

type multi struct {
	primary Hasher
	byName  map[string]Hasher
}

func (m *multi) Hash(secret string) (string, error) {
	return m.primary.Hash(secret)
}

func (m *multi) Verify(secret, encoded string) bool {
	h, ok := m.byName[Algorithm(encoded)]
	if !ok {
		return false
	}
	return h.Verify(secret, encoded)
}
