// Package credentials implements API key generation, request-scoped
// validation, and the credential lifecycle (register, revoke, regenerate).
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// secretBytes yields a 64-character lowercase hex secret
const secretBytes = 32

var secretPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// GenerateSecret creates a new opaque credential secret
func GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidSecretFormat reports whether a string has the shape of a secret.
// Used to short-circuit lookups for obviously malformed headers.
func ValidSecretFormat(secret string) bool {
	return secretPattern.MatchString(secret)
}
