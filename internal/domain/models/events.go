// File: backend/services/auth-service/internal/domain/models/events.go
package models

import "time"

// CloudEvent type strings published to the auth events topic.
const (
	AuthSessionRenewedV1          = "auth.session.renewed.v1"
	AuthSessionProfileRefreshedV1 = "auth.session.profile_refreshed.v1"
	AuthSessionRevokedV1          = "auth.session.revoked.v1"
)

// SessionRenewedEvent is published after a successful silent renewal.
type SessionRenewedEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	RenewedAt time.Time `json:"renewed_at"`
}

// ProfileRefreshedEvent is published after a successful profile refetch on a
// still-valid token.
type ProfileRefreshedEvent struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// SessionRevokedEvent is published when a session is torn down, whether by an
// explicit logout or by an unrecoverable renewal/profile failure.
type SessionRevokedEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id,omitempty"`
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revoked_at"`
}
