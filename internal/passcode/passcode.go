// Package passcode derives and verifies the shared secret that unlocks a
// newsletter.
//
// A stored credential is the concatenation of a random 16-byte salt and a
// PBKDF2-SHA256 key derived from the passcode. Verification recomputes the
// key with the stored salt and compares in constant time. There are no
// per-user accounts; one passcode guards one newsletter.
package passcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 32
	iterations = 100_000
)

// StoredLength is the exact size of a well-formed stored credential.
const StoredLength = saltLength + keyLength

// ErrMalformedHash reports a stored credential that is not salt-plus-key
// shaped. It indicates the persistence layer returned corrupt data, not a
// wrong passcode.
var ErrMalformedHash = errors.New("stored passcode hash is malformed")

// Hash derives a storable credential for the given passcode.
func Hash(code string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(code), salt, iterations, keyLength, sha256.New)
	return append(salt, key...), nil
}

// Verify reports whether code matches the stored credential. A stored value
// of the wrong length fails closed with ErrMalformedHash rather than
// returning a partial match.
func Verify(code string, stored []byte) (bool, error) {
	if len(stored) != StoredLength {
		return false, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedHash, StoredLength, len(stored))
	}
	salt, key := stored[:saltLength], stored[saltLength:]
	candidate := pbkdf2.Key([]byte(code), salt, iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}
