// File: backend/services/auth-service/internal/service/session_manager.go
package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/permissions"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/metrics"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/random"
)

// Config holds the identity-provider and refresh parameters of the session
// lifecycle. ProfileRefreshWindow controls how long a fetched profile stays
// fresh; a negative value disables refetching entirely after the first
// successful fetch.
type Config struct {
	ClientID             string
	RedirectURI          string
	Scope                string
	ResponseMode         string
	LogoutURL            string
	LogoutReturnTo       string
	ProfileRefreshWindow time.Duration
}

// TokenAndProfile is what a successful renewal or profile fetch hands back to
// the host application: the ID token the backend API accepts plus the freshly
// parsed permission set.
type TokenAndProfile struct {
	IDToken     string
	Profile     *models.Profile
	Permissions *permissions.Set
}

// Callbacks are the host-supplied hooks for one lifecycle pass. The manager
// never touches any state container directly; everything observable flows
// through these.
type Callbacks struct {
	// UserLoggedIn tells the manager the host already considers this session
	// authenticated; a fresh profile then needs no refetch.
	UserLoggedIn bool
	// OnLogout is invoked whenever the session escalates to logged-out. It
	// must be idempotent; the manager may call it for an already-anonymous
	// session.
	OnLogout func(ctx context.Context)
	// OnTokenAndProfile receives the current token and profile after a
	// successful renewal, login or profile refresh.
	OnTokenAndProfile func(ctx context.Context, tp TokenAndProfile)
}

// ManagerDeps are the injected collaborators of a SessionManager.
type ManagerDeps struct {
	Store     interfaces.TokenStore
	Identity  interfaces.IdentityClient
	Decoder   interfaces.TokenDecoder
	Publisher interfaces.EventPublisher     // optional
	AuditRepo repository.AuditLogRepository // optional
	Logger    *zap.Logger
	Now       func() time.Time // optional, defaults to time.Now
}

// SessionManager owns the authentication lifecycle of exactly one console
// session: token storage, silent renewal, profile freshness and escalation to
// logout. All state transitions are serialized through the in-flight guards;
// concurrent RenewSessionIfNeeded calls observe idempotent no-ops rather than
// duplicated network traffic.
type SessionManager struct {
	sessionID string
	cfg       Config
	store     interfaces.TokenStore
	idp       interfaces.IdentityClient
	decoder   interfaces.TokenDecoder
	publisher interfaces.EventPublisher
	auditRepo repository.AuditLogRepository
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	sess models.Session
}

// NewSessionManager creates a manager for one session ID.
func NewSessionManager(sessionID string, cfg Config, deps ManagerDeps) *SessionManager {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		sessionID: sessionID,
		cfg:       cfg,
		store:     deps.Store,
		idp:       deps.Identity,
		decoder:   deps.Decoder,
		publisher: deps.Publisher,
		auditRepo: deps.AuditRepo,
		logger:    deps.Logger.With(zap.String("session_id", sessionID)),
		now:       now,
	}
}

// SessionID returns the ID this manager was created for.
func (m *SessionManager) SessionID() string { return m.sessionID }

// Profile returns the last successfully fetched profile, or nil.
func (m *SessionManager) Profile() *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Profile
}

// Permissions returns the permission set derived from the cached profile.
// With no profile it returns an empty, fail-closed set.
func (m *SessionManager) Permissions() *permissions.Set {
	return permissions.FromProfile(m.Profile())
}

// State derives the conceptual lifecycle state for diagnostics.
func (m *SessionManager) State(ctx context.Context) models.SessionState {
	m.mu.Lock()
	renewing := m.sess.RenewalInFlight
	fetching := m.sess.ProfileFetchInFlight
	m.mu.Unlock()
	if renewing {
		return models.StateRenewalInFlight
	}
	if fetching {
		return models.StateProfileFetchInFlight
	}

	idToken, err := m.store.GetItem(ctx, interfaces.IDTokenSlot)
	if err != nil || idToken == "" {
		return models.StateAnonymous
	}
	if m.tokenExpired(idToken) {
		return models.StateTokenExpired
	}
	if m.profileStale() {
		return models.StateTokenValidStale
	}
	return models.StateTokenValidFresh
}

// RenewSessionIfNeeded runs one lifecycle pass: logs out an anonymous
// session, silently renews an expired token, refetches a stale profile, and
// otherwise does nothing. Invoked periodically by the host application.
//
// Every failure inside the pass is non-retryable at this layer and converges
// on the single observable outcome of invoking cb.OnLogout.
func (m *SessionManager) RenewSessionIfNeeded(ctx context.Context, cb Callbacks) models.RenewOutcome {
	idToken, err := m.store.GetItem(ctx, interfaces.IDTokenSlot)
	if err != nil {
		m.logger.Error("reading ID token from storage failed", zap.Error(err))
		m.teardown(ctx, cb, "token_storage_unreadable")
		return models.OutcomeLoggedOut
	}
	if idToken == "" {
		m.logger.Debug("no ID token in storage, session is anonymous")
		m.teardown(ctx, cb, "anonymous")
		return models.OutcomeLoggedOut
	}

	if m.tokenExpired(idToken) {
		if !m.enterRenewal() {
			m.logger.Debug("renewal already in flight, skipping")
			return models.OutcomeNoop
		}
		defer m.exitRenewal()
		return m.renewExpiredToken(ctx, cb)
	}

	if cb.UserLoggedIn && !m.profileStale() {
		return models.OutcomeNoop
	}

	if !m.enterProfileFetch() {
		m.logger.Debug("profile fetch already in flight, skipping")
		return models.OutcomeNoop
	}
	defer m.exitProfileFetch()
	return m.refreshProfile(ctx, cb, idToken)
}

// Logout tears the session down and returns the identity provider's
// federated logout URL for the caller to redirect the browser to. Safe to
// call repeatedly.
func (m *SessionManager) Logout(ctx context.Context, cb Callbacks) string {
	m.teardown(ctx, cb, "user_logout")
	return m.FederatedLogoutURL()
}

// FederatedLogoutURL builds the identity provider's federated logout URL.
// Handed to the browser after any pass that ends logged out, not just an
// explicit logout.
func (m *SessionManager) FederatedLogoutURL() string {
	q := url.Values{}
	q.Set("returnTo", m.cfg.LogoutReturnTo)
	q.Set("client_id", m.cfg.ClientID)
	return fmt.Sprintf("%s?%s", m.cfg.LogoutURL, q.Encode())
}

// renewExpiredToken runs the silent-renewal flow. The caller holds the
// renewal guard.
func (m *SessionManager) renewExpiredToken(ctx context.Context, cb Callbacks) models.RenewOutcome {
	nonce, err := random.Nonce()
	if err != nil {
		m.logger.Error("nonce generation failed", zap.Error(err))
		m.failRenewal(ctx, cb, models.AuditActionRenewalFailed, "nonce generation failed")
		return models.OutcomeLoggedOut
	}

	result, err := m.idp.RenewAuth(ctx, interfaces.RenewOptions{
		Nonce:        nonce,
		RedirectURI:  m.cfg.RedirectURI,
		Scope:        m.cfg.Scope,
		ResponseMode: m.cfg.ResponseMode,
	})
	if err != nil {
		m.logger.Warn("silent renewal failed", zap.Error(err))
		m.failRenewal(ctx, cb, models.AuditActionRenewalFailed, "silent renewal request failed")
		return models.OutcomeLoggedOut
	}
	if result == nil || result.AccessToken == "" {
		m.logger.Warn("renewal response carried no access token")
		m.failRenewal(ctx, cb, models.AuditActionRenewalFailed, "renewal response missing access token")
		return models.OutcomeLoggedOut
	}

	claims, err := m.decoder.Decode(result.IDToken)
	if err != nil {
		m.logger.Warn("renewed ID token is undecodable", zap.Error(err))
		m.failRenewal(ctx, cb, models.AuditActionRenewalFailed, "renewed ID token undecodable")
		return models.OutcomeLoggedOut
	}
	if claims.Nonce != nonce {
		// Possible replay; treated exactly like a network failure.
		m.logger.Warn("nonce mismatch on renewed ID token")
		m.failRenewal(ctx, cb, models.AuditActionNonceMismatch, "nonce mismatch, possible replay")
		return models.OutcomeLoggedOut
	}

	if err := m.storeTokens(ctx, result.AccessToken, result.IDToken); err != nil {
		m.logger.Error("storing renewed tokens failed", zap.Error(err))
		m.failRenewal(ctx, cb, models.AuditActionRenewalFailed, "storing renewed tokens failed")
		return models.OutcomeLoggedOut
	}

	profile, err := m.idp.GetUserInfo(ctx, result.AccessToken)
	if err != nil {
		m.logger.Warn("profile fetch after renewal failed", zap.Error(err))
		m.failRenewal(ctx, cb, models.AuditActionProfileFailed, "profile fetch after renewal failed")
		return models.OutcomeLoggedOut
	}

	m.adoptProfile(profile)
	m.emitTokenAndProfile(ctx, cb, result.IDToken, profile)
	metrics.SessionRenewalsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	m.audit(ctx, profile, models.AuditActionSessionRenewed, models.AuditStatusSuccess, "")
	m.publish(ctx, models.AuthSessionRenewedV1, models.SessionRenewedEvent{
		SessionID: m.sessionID,
		UserID:    profile.UserID,
		RenewedAt: m.now().UTC(),
	})
	m.logger.Info("session renewed", zap.String("user_id", profile.UserID))
	return models.OutcomeRenewed
}

// refreshProfile refetches the profile on a still-valid ID token. The caller
// holds the profile-fetch guard.
func (m *SessionManager) refreshProfile(ctx context.Context, cb Callbacks, idToken string) models.RenewOutcome {
	accessToken, err := m.store.GetItem(ctx, interfaces.AccessTokenSlot)
	if err != nil || accessToken == "" {
		// No network call possible without an access token.
		m.logger.Warn("no access token available for profile refresh", zap.Error(err))
		metrics.ProfileFetchesTotal.WithLabelValues(metrics.StatusFailure).Inc()
		m.teardown(ctx, cb, "access_token_missing")
		return models.OutcomeLoggedOut
	}

	profile, err := m.idp.GetUserInfo(ctx, accessToken)
	if err != nil {
		m.logger.Warn("profile refresh failed", zap.Error(err))
		metrics.ProfileFetchesTotal.WithLabelValues(metrics.StatusFailure).Inc()
		m.audit(ctx, nil, models.AuditActionProfileFailed, models.AuditStatusFailure, "profile refresh failed")
		m.teardown(ctx, cb, "profile_fetch_failed")
		return models.OutcomeLoggedOut
	}

	m.adoptProfile(profile)
	m.emitTokenAndProfile(ctx, cb, idToken, profile)
	metrics.ProfileFetchesTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	m.audit(ctx, profile, models.AuditActionProfileRefreshed, models.AuditStatusSuccess, "")
	m.publish(ctx, models.AuthSessionProfileRefreshedV1, models.ProfileRefreshedEvent{
		SessionID:   m.sessionID,
		UserID:      profile.UserID,
		RefreshedAt: m.now().UTC(),
	})
	return models.OutcomeProfileRefreshed
}

// completeLogin is the shared tail of the interactive login flow: persist the
// token pair, fetch the profile, hand both to the host. Used by LoginFlow.
func (m *SessionManager) completeLogin(ctx context.Context, cb Callbacks, accessToken, idToken string) error {
	if err := m.storeTokens(ctx, accessToken, idToken); err != nil {
		m.teardown(ctx, cb, "storing login tokens failed")
		return err
	}
	profile, err := m.idp.GetUserInfo(ctx, accessToken)
	if err != nil {
		m.logger.Warn("profile fetch after login failed", zap.Error(err))
		m.audit(ctx, nil, models.AuditActionProfileFailed, models.AuditStatusFailure, "profile fetch after login failed")
		m.teardown(ctx, cb, "profile_fetch_failed")
		return err
	}
	m.adoptProfile(profile)
	m.emitTokenAndProfile(ctx, cb, idToken, profile)
	m.publish(ctx, models.AuthSessionRenewedV1, models.SessionRenewedEvent{
		SessionID: m.sessionID,
		UserID:    profile.UserID,
		RenewedAt: m.now().UTC(),
	})
	m.logger.Info("interactive login completed", zap.String("user_id", profile.UserID))
	return nil
}

// failRenewal records a renewal failure and tears the session down.
func (m *SessionManager) failRenewal(ctx context.Context, cb Callbacks, action, detail string) {
	metrics.SessionRenewalsTotal.WithLabelValues(metrics.StatusFailure).Inc()
	m.audit(ctx, nil, action, models.AuditStatusFailure, detail)
	m.teardown(ctx, cb, detail)
}

// teardown clears both token slots, forgets the profile and invokes the
// logout callback. Idempotent.
func (m *SessionManager) teardown(ctx context.Context, cb Callbacks, reason string) {
	var userID string
	m.mu.Lock()
	if m.sess.Profile != nil {
		userID = m.sess.Profile.UserID
	}
	hadProfile := m.sess.Profile != nil
	m.sess.Profile = nil
	m.sess.ProfileExpiresAt = time.Time{}
	m.mu.Unlock()

	if err := m.store.RemoveItem(ctx, interfaces.IDTokenSlot); err != nil {
		m.logger.Error("clearing ID token failed", zap.Error(err))
	}
	if err := m.store.RemoveItem(ctx, interfaces.AccessTokenSlot); err != nil {
		m.logger.Error("clearing access token failed", zap.Error(err))
	}

	if hadProfile || reason == "user_logout" {
		m.audit(ctx, nil, models.AuditActionSessionLogout, models.AuditStatusSuccess, reason)
		m.publish(ctx, models.AuthSessionRevokedV1, models.SessionRevokedEvent{
			SessionID: m.sessionID,
			UserID:    userID,
			Reason:    reason,
			RevokedAt: m.now().UTC(),
		})
	}
	if cb.OnLogout != nil {
		cb.OnLogout(ctx)
	}
}

func (m *SessionManager) storeTokens(ctx context.Context, accessToken, idToken string) error {
	if err := m.store.SetItem(ctx, interfaces.AccessTokenSlot, accessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := m.store.SetItem(ctx, interfaces.IDTokenSlot, idToken); err != nil {
		return fmt.Errorf("store ID token: %w", err)
	}
	return nil
}

// adoptProfile replaces the cached profile wholesale and stamps the next
// staleness deadline when refetching is enabled.
func (m *SessionManager) adoptProfile(profile *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.Profile = profile
	if m.cfg.ProfileRefreshWindow >= 0 {
		m.sess.ProfileExpiresAt = m.now().Add(m.cfg.ProfileRefreshWindow)
	} else {
		m.sess.ProfileExpiresAt = time.Time{}
	}
}

func (m *SessionManager) emitTokenAndProfile(ctx context.Context, cb Callbacks, idToken string, profile *models.Profile) {
	if cb.OnTokenAndProfile == nil {
		return
	}
	cb.OnTokenAndProfile(ctx, TokenAndProfile{
		IDToken:     idToken,
		Profile:     profile,
		Permissions: permissions.FromProfile(profile),
	})
}

// tokenExpired treats undecodable tokens the same as expired ones.
func (m *SessionManager) tokenExpired(idToken string) bool {
	claims, err := m.decoder.Decode(idToken)
	if err != nil {
		m.logger.Debug("ID token undecodable, treating as expired", zap.Error(err))
		return true
	}
	return !claims.ExpiresAt.After(m.now())
}

// profileStale reports whether the cached profile must be refetched. A never
// fetched profile is always stale; with refetching disabled a fetched profile
// stays fresh forever.
func (m *SessionManager) profileStale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess.Profile == nil {
		return true
	}
	if m.sess.ProfileExpiresAt.IsZero() {
		return false
	}
	return m.now().After(m.sess.ProfileExpiresAt)
}

func (m *SessionManager) enterRenewal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess.RenewalInFlight || m.sess.ProfileFetchInFlight {
		return false
	}
	m.sess.RenewalInFlight = true
	return true
}

func (m *SessionManager) exitRenewal() {
	m.mu.Lock()
	m.sess.RenewalInFlight = false
	m.mu.Unlock()
}

func (m *SessionManager) enterProfileFetch() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess.ProfileFetchInFlight || m.sess.RenewalInFlight {
		return false
	}
	m.sess.ProfileFetchInFlight = true
	return true
}

func (m *SessionManager) exitProfileFetch() {
	m.mu.Lock()
	m.sess.ProfileFetchInFlight = false
	m.mu.Unlock()
}

func (m *SessionManager) audit(ctx context.Context, profile *models.Profile, action, status, detail string) {
	if m.auditRepo == nil {
		return
	}
	entry := &models.AuditLog{
		SessionID: m.sessionID,
		Action:    action,
		Status:    status,
		CreatedAt: m.now().UTC(),
	}
	if profile == nil {
		profile = m.Profile()
	}
	if profile != nil {
		userID := profile.UserID
		entry.UserID = &userID
	}
	if detail != "" {
		entry.Details = &detail
	}
	if err := m.auditRepo.Create(ctx, entry); err != nil {
		m.logger.Error("writing audit log entry failed", zap.Error(err), zap.String("action", action))
	}
}

func (m *SessionManager) publish(ctx context.Context, eventType string, payload interface{}) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, eventType, m.sessionID, payload); err != nil {
		m.logger.Error("publishing lifecycle event failed", zap.Error(err), zap.String("event_type", eventType))
	}
}
