// Package crypto provides cryptographic utilities for Gatekeeper.
package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password with bcrypt using the given cost.
// A cost of 0 or less falls back to bcrypt.DefaultCost. The salt is
// randomized per call, so hashing the same password twice yields two
// different credential values.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash.
// The comparison is constant-time with respect to the password content.
// Malformed or empty stored hashes fail closed: the function returns false
// instead of surfacing an error to the caller.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
