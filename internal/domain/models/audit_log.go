// File: backend/services/auth-service/internal/domain/models/audit_log.go
package models

import "time"

// Audit actions recorded for the session lifecycle.
const (
	AuditActionSessionRenewed   = "session.renewed"
	AuditActionProfileRefreshed = "session.profile_refreshed"
	AuditActionSessionLogout    = "session.logout"
	AuditActionRenewalFailed    = "session.renewal_failed"
	AuditActionNonceMismatch    = "session.nonce_mismatch"
	AuditActionProfileFailed    = "session.profile_fetch_failed"
)

// Audit statuses.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

// AuditLog is one persisted record of a session lifecycle transition.
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Status    string    `json:"status" db:"status"`
	Details   *string   `json:"details,omitempty" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
