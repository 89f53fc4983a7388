package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultPBKDF2Iterations = 100000
	MinPBKDF2Iterations     = 1000

	saltBytes = 16
	keyBytes  = 64
)

// PasswordHasher derives PBKDF2-SHA512 hashes. Hash and salt are stored hex
// encoded in separate columns.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher returns a hasher. Zero selects the default iteration count
// and anything below the minimum is raised to it.
func NewPasswordHasher(iterations int) *PasswordHasher {
	switch {
	case iterations <= 0:
		iterations = DefaultPBKDF2Iterations
	case iterations < MinPBKDF2Iterations:
		iterations = MinPBKDF2Iterations
	}
	return &PasswordHasher{iterations: iterations}
}

// Iterations returns the configured work factor.
func (h *PasswordHasher) Iterations() int {
	return h.iterations
}

// Hash derives the hash of password under salt. An empty salt draws a fresh
// one. The result is deterministic for a fixed salt.
func (h *PasswordHasher) Hash(password, salt string) (string, string, error) {
	if salt == "" {
		buf := make([]byte, saltBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", "", fmt.Errorf("generate salt: %w", err)
		}
		salt = hex.EncodeToString(buf)
	}
	return hex.EncodeToString(h.derive(password, salt)), salt, nil
}

// Verify recomputes the hash and compares in constant time. A malformed stored
// hash never verifies.
func (h *PasswordHasher) Verify(password, hash, salt string) bool {
	stored, err := hex.DecodeString(hash)
	if err != nil || len(stored) != keyBytes || salt == "" {
		return false
	}
	return subtle.ConstantTimeCompare(stored, h.derive(password, salt)) == 1
}

func (h *PasswordHasher) derive(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), h.iterations, keyBytes, sha512.New)
}

// EqualConstantTime compares two secrets without leaking their common prefix.
func EqualConstantTime(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
