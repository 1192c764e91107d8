// File: backend/services/auth-service/internal/domain/models/profile.go
package models

// Profile is the user profile document returned by the identity provider's
// userinfo endpoint. Permission grants live under app_metadata and are turned
// into a structured permission set by the permissions package; nothing else in
// the service reads the raw metadata.
type Profile struct {
	UserID        string      `json:"user_id"`
	Email         string      `json:"email"`
	Name          string      `json:"name,omitempty"`
	Picture       string      `json:"picture,omitempty"`
	EmailVerified bool        `json:"email_verified"`
	AppMetadata   AppMetadata `json:"app_metadata"`
}

// AppMetadata is the provider-side application metadata blob.
type AppMetadata struct {
	DataManager DataManagerMetadata `json:"data_manager"`
}

// DataManagerMetadata holds the grants the data-manager console stores on the
// identity provider per user.
type DataManagerMetadata struct {
	ClientID string     `json:"client_id,omitempty"`
	Grants   []RawGrant `json:"grants"`
}

// RawGrant is one wire-format grant entry, exactly as stored on the identity
// provider. It is deliberately loose; validation happens when the permissions
// package converts it into a typed grant, and malformed entries are dropped
// there rather than rejected here.
type RawGrant struct {
	Scope        string   `json:"scope"`
	ID           string   `json:"id,omitempty"`
	Role         string   `json:"role"`
	Actions      []string `json:"actions,omitempty"`
	DefaultFeeds []string `json:"default_feeds,omitempty"`
}
