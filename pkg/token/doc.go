// Package token generates session secrets.
//
// Token Format:
//
//   - Prefix: pvtk_ (5 characters)
//   - Body: Base64 RawURL encoded random bytes (43 characters for 32 bytes)
//
// Tokens are bearer secrets. Servers store only a slow salted hash of the
// token (see pkg/passhash) and verify presented tokens against that hash.
// The prefix lets log redaction recognize tokens in free-form values.
package token
