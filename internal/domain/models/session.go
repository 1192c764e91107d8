// File: backend/services/auth-service/internal/domain/models/session.go
package models

import "time"

// SessionState names the conceptual lifecycle states of a console session.
// States are derived from stored tokens and in-flight guards, never stored.
type SessionState string

const (
	StateAnonymous            SessionState = "anonymous"
	StateTokenValidFresh      SessionState = "token_valid_fresh"
	StateTokenValidStale      SessionState = "token_valid_stale"
	StateTokenExpired         SessionState = "token_expired"
	StateRenewalInFlight      SessionState = "renewal_in_flight"
	StateProfileFetchInFlight SessionState = "profile_fetch_in_flight"
)

// Session is the mutable per-session state the lifecycle manager owns. Tokens
// themselves live in durable token storage; the session only caches the
// profile derived from them plus the guards that serialize network activity.
//
// The two in-flight flags are mutually exclusive: a session is never renewing
// a token and refetching a profile at the same time.
type Session struct {
	Profile              *Profile
	ProfileExpiresAt     time.Time // zero when unset or refetching is disabled
	RenewalInFlight      bool
	ProfileFetchInFlight bool
}

// RenewOutcome is the observable result of one RenewSessionIfNeeded pass.
type RenewOutcome string

const (
	OutcomeNoop             RenewOutcome = "noop"
	OutcomeRenewed          RenewOutcome = "renewed"
	OutcomeProfileRefreshed RenewOutcome = "profile_refreshed"
	OutcomeLoggedOut        RenewOutcome = "logged_out"
)
