// File: backend/services/auth-service/internal/infrastructure/security/token_decoder.go
package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainErrors "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
)

// idTokenClaims is the claim subset the lifecycle manager cares about.
type idTokenClaims struct {
	Nonce string `json:"nonce,omitempty"`
	jwt.RegisteredClaims
}

// JWTDecoder extracts expiry and nonce from an ID token without verifying
// its signature. Signature verification belongs to the backend API that
// accepts the token; this component only needs the claims to schedule
// renewal and to compare the nonce.
type JWTDecoder struct {
	parser *jwt.Parser
}

var _ interfaces.TokenDecoder = (*JWTDecoder)(nil)

// NewJWTDecoder creates a decoder.
func NewJWTDecoder() *JWTDecoder {
	return &JWTDecoder{parser: jwt.NewParser()}
}

// Decode returns the token's expiry and nonce. Malformed tokens and tokens
// without an exp claim return ErrInvalidToken.
func (d *JWTDecoder) Decode(idToken string) (*interfaces.TokenClaims, error) {
	claims := &idTokenClaims{}
	if _, _, err := d.parser.ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("parse ID token: %w", domainErrors.ErrInvalidToken)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("ID token has no expiry: %w", domainErrors.ErrInvalidToken)
	}
	return &interfaces.TokenClaims{
		ExpiresAt: claims.ExpiresAt.Time,
		Nonce:     claims.Nonce,
	}, nil
}

// SignTestToken builds an HS256 token with the given expiry and nonce. Used
// by development tooling and tests; production tokens come from the identity
// provider.
func SignTestToken(secret []byte, expiresAt time.Time, nonce string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, idTokenClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	return token.SignedString(secret)
}
