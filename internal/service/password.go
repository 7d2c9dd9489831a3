package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Hasher is a bcrypt PasswordHasher. The encoded hash embeds the cost and
// salt, so verification needs nothing but the stored string.
type Hasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher with the given work factor. It hashes and
// verifies a sample value so a broken setup fails at startup rather than on
// the first login.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	h := &Hasher{cost: cost}

	sample, err := h.Hash("hasher-self-test")
	if err != nil {
		return nil, fmt.Errorf("hasher self-test: %w", err)
	}
	if !h.Verify("hasher-self-test", sample) {
		return nil, fmt.Errorf("hasher self-test: verification failed")
	}
	return h, nil
}

// Hash returns a freshly salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes and empty
// input never match.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
