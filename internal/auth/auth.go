// Package auth generates and checks the per-session bearer token that
// gates the loopback HTTP frontend, grounded on spec.md §4.F's
// authentication contract. The original betterhist/listsrv.py trusted
// loopback binding alone; this adds the token layer spec.md calls for on
// top of that same loopback restriction.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// TokenBytes is the minimum entropy (128 bits) required of a session
// token.
const TokenBytes = 16

// Header is the HTTP header clients present the token in.
const Header = "X-Betterhist-Auth"

// NewToken generates a fresh hex-encoded random token with at least
// TokenBytes of entropy.
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Checker holds the session's expected token and compares presented
// values against it in constant time.
type Checker struct {
	expected string
}

// NewChecker builds a Checker for the given expected token.
func NewChecker(expected string) *Checker {
	return &Checker{expected: expected}
}

// Valid reports whether presented matches the expected token. Comparison
// is constant-time to avoid leaking the token's prefix through timing.
func (c *Checker) Valid(presented string) bool {
	if len(presented) != len(c.expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(c.expected)) == 1
}
