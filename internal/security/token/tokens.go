// Package tokens generates and compares opaque security tokens.
package tokens

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
)

// StateBytes is the entropy of a login state token: 128 bits.
const StateBytes = 16

// GenerateOpaqueToken returns a random base64url token (no padding)
// with nBytes of entropy from crypto/rand.
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewState returns a fresh login state token.
func NewState() (string, error) {
	return GenerateOpaqueToken(StateBytes)
}

// ConstantTimeEqual compares two tokens without leaking timing information.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
