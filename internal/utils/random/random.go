// File: backend/services/auth-service/internal/utils/random/random.go
package random

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Nonce returns a 32-byte cryptographically random value, base64url encoded,
// suitable for the OIDC nonce parameter.
func Nonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
