// File: backend/services/auth-service/internal/domain/interfaces/identity.go
package interfaces

import (
	"context"
	"time"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
)

// RenewOptions parameterize one silent-renewal request. Nonce is generated
// fresh per attempt and must come back embedded in the renewed ID token.
type RenewOptions struct {
	Nonce        string
	RedirectURI  string
	Scope        string
	ResponseMode string
}

// RenewResult is the token pair returned by a successful silent renewal.
type RenewResult struct {
	AccessToken string
	IDToken     string
}

// IdentityClient is the boundary to the external identity provider.
type IdentityClient interface {
	// GetUserInfo fetches the user profile for an access token.
	GetUserInfo(ctx context.Context, accessToken string) (*models.Profile, error)
	// RenewAuth runs the provider's silent-renewal flow.
	RenewAuth(ctx context.Context, opts RenewOptions) (*RenewResult, error)
}

// TokenClaims are the only claims the session manager reads from an ID token.
type TokenClaims struct {
	ExpiresAt time.Time
	Nonce     string
}

// TokenDecoder extracts expiry and nonce from an ID token. It must return an
// error on malformed input; callers treat that the same as an expired token.
type TokenDecoder interface {
	Decode(idToken string) (*TokenClaims, error)
}
