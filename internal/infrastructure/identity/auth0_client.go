// File: backend/services/auth-service/internal/infrastructure/identity/auth0_client.go
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
)

// Config holds the identity provider endpoints and client credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client talks to an Auth0-compatible identity provider over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ interfaces.IdentityClient = (*Client)(nil)

// NewClient creates a provider client. A zero timeout defaults to 10 seconds.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetUserInfo fetches the profile behind an access token via the provider's
// userinfo endpoint.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("userinfo request failed", zap.Error(err))
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domainErrors.ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("userinfo returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("userinfo status %d: %w", resp.StatusCode, domainErrors.ErrProfileFetch)
	}

	var profile models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}
	if profile.UserID == "" {
		return nil, domainErrors.ErrProfileMissing
	}
	return &profile, nil
}

type renewRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	RedirectURI  string `json:"redirect_uri"`
	Scope        string `json:"scope"`
	ResponseMode string `json:"response_mode,omitempty"`
	Nonce        string `json:"nonce"`
}

type renewResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// RenewAuth runs the silent-renewal flow against the provider's token
// endpoint. The provider is expected to echo the nonce inside the renewed ID
// token; the caller verifies that.
func (c *Client) RenewAuth(ctx context.Context, opts interfaces.RenewOptions) (*interfaces.RenewResult, error) {
	payload, err := json.Marshal(renewRequest{
		GrantType:    "urn:ietf:params:oauth:grant-type:token-renewal",
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURI:  opts.RedirectURI,
		Scope:        opts.Scope,
		ResponseMode: opts.ResponseMode,
		Nonce:        opts.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal renewal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build renewal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("renewal request failed", zap.Error(err))
		return nil, fmt.Errorf("renewal request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("renewal returned unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("renewal status %d: %w", resp.StatusCode, domainErrors.ErrRenewalRejected)
	}

	var renewed renewResponse
	if err := json.NewDecoder(resp.Body).Decode(&renewed); err != nil {
		return nil, fmt.Errorf("decode renewal response: %w", err)
	}
	if renewed.AccessToken == "" {
		return nil, domainErrors.ErrEmptyRenewResult
	}
	return &interfaces.RenewResult{
		AccessToken: renewed.AccessToken,
		IDToken:     renewed.IDToken,
	}, nil
}
