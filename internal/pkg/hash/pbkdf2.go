package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPBKDF2Iterations is the work factor used when none is configured.
	DefaultPBKDF2Iterations = 100_000
	// PBKDF2SaltSize is the length of the random salt in bytes.
	PBKDF2SaltSize = 16
	// PBKDF2KeySize is the length of the derived key in bytes.
	PBKDF2KeySize = 32

	pbkdf2Separator = "|"
)

// ErrEmptyPassword is returned when the plaintext is empty or whitespace only.
var ErrEmptyPassword = errors.New("hash: password cannot be empty")

// PBKDF2 implements Hash using PBKDF2-HMAC-SHA256.
//
// The encoded form is base64(salt) + "|" + base64(key). The iteration count is
// not part of the encoding, so every hasher sharing a store must use the same
// value.
type PBKDF2 struct {
	iterations int
}

// NewPBKDF2 returns a PBKDF2 hasher. A non-positive iterations value selects
// DefaultPBKDF2Iterations.
func NewPBKDF2(iterations int) *PBKDF2 {
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	return &PBKDF2{iterations: iterations}
}

// Iterations returns the configured work factor.
func (p *PBKDF2) Iterations() int {
	return p.iterations
}

// Hash derives a fresh salted key for plaintext. Two calls with the same input
// yield different results.
func (p *PBKDF2) Hash(plaintext string) ([]byte, error) {
	if strings.TrimSpace(plaintext) == "" {
		return nil, ErrEmptyPassword
	}

	salt := make([]byte, PBKDF2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := p.derive(plaintext, salt)

	encoded := base64.StdEncoding.EncodeToString(salt) + pbkdf2Separator + base64.StdEncoding.EncodeToString(key)
	return []byte(encoded), nil
}

// Verify re-derives the key with the stored salt and compares in constant time.
func (p *PBKDF2) Verify(hashed, plaintext string) bool {
	if strings.TrimSpace(plaintext) == "" || strings.TrimSpace(hashed) == "" {
		return false
	}

	parts := strings.Split(hashed, pbkdf2Separator)
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(salt) != PBKDF2SaltSize {
		return false
	}

	expected, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(expected) != PBKDF2KeySize {
		return false
	}

	return subtle.ConstantTimeCompare(expected, p.derive(plaintext, salt)) == 1
}

func (p *PBKDF2) derive(plaintext string, salt []byte) []byte {
	return pbkdf2.Key([]byte(plaintext), salt, p.iterations, PBKDF2KeySize, sha256.New)
}
