// File: backend/services/auth-service/internal/service/session_manager_test.go
package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository/memory"
	eventmocks "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/events/mocks"
)

type mockIdentityClient struct {
	mock.Mock
}

func (m *mockIdentityClient) GetUserInfo(ctx context.Context, accessToken string) (*models.Profile, error) {
	args := m.Called(ctx, accessToken)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockIdentityClient) RenewAuth(ctx context.Context, opts interfaces.RenewOptions) (*interfaces.RenewResult, error) {
	args := m.Called(ctx, opts)
	if r := args.Get(0); r != nil {
		return r.(*interfaces.RenewResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubDecoder resolves tokens from a table; unknown tokens decode as
// malformed. Locked because renewal tests register claims from the mocked
// identity client's goroutine.
type stubDecoder struct {
	mu     *sync.Mutex
	claims map[string]*interfaces.TokenClaims
}

func (d stubDecoder) set(idToken string, claims *interfaces.TokenClaims) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.claims[idToken] = claims
}

func (d stubDecoder) Decode(idToken string) (*interfaces.TokenClaims, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.claims[idToken]; ok {
		return c, nil
	}
	return nil, domainErrors.ErrInvalidToken
}

type managerFixture struct {
	store   *memory.TokenStore
	idp     *mockIdentityClient
	decoder stubDecoder
	events  *eventmocks.Publisher
	now     time.Time
	manager *SessionManager
}

func newManagerFixture(cfg Config) *managerFixture {
	f := &managerFixture{
		store:   memory.NewTokenStore(),
		idp:     &mockIdentityClient{},
		decoder: stubDecoder{mu: &sync.Mutex{}, claims: make(map[string]*interfaces.TokenClaims)},
		events:  &eventmocks.Publisher{},
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.manager = NewSessionManager("sess-1", cfg, ManagerDeps{
		Store:     f.store,
		Identity:  f.idp,
		Decoder:   f.decoder,
		Publisher: f.events,
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return f.now },
	})
	return f
}

func (f *managerFixture) seedTokens(t *testing.T, accessToken, idToken string) {
	t.Helper()
	require.NoError(t, f.store.SetItem(context.Background(), interfaces.AccessTokenSlot, accessToken))
	require.NoError(t, f.store.SetItem(context.Background(), interfaces.IDTokenSlot, idToken))
}

func (f *managerFixture) validToken(idToken string) {
	f.decoder.set(idToken, &interfaces.TokenClaims{ExpiresAt: f.now.Add(time.Hour)})
}

func (f *managerFixture) expiredToken(idToken string) {
	f.decoder.set(idToken, &interfaces.TokenClaims{ExpiresAt: f.now.Add(-time.Minute)})
}

func testProfile(userID string) *models.Profile {
	return &models.Profile{UserID: userID, Email: userID + "@example.com"}
}

func TestRenewSessionIfNeeded_AnonymousInvokesLogout(t *testing.T) {
	f := newManagerFixture(Config{})

	logoutCalls := 0
	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{
		OnLogout: func(context.Context) { logoutCalls++ },
	})

	assert.Equal(t, models.OutcomeLoggedOut, outcome)
	assert.Equal(t, 1, logoutCalls)
	f.idp.AssertNotCalled(t, "RenewAuth", mock.Anything, mock.Anything)
	f.idp.AssertNotCalled(t, "GetUserInfo", mock.Anything, mock.Anything)
}

func TestRenewSessionIfNeeded_FreshProfileIsNoop(t *testing.T) {
	f := newManagerFixture(Config{ProfileRefreshWindow: time.Hour})
	f.seedTokens(t, "at-1", "id-1")
	f.validToken("id-1")
	f.manager.adoptProfile(testProfile("user-1"))

	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{UserLoggedIn: true})

	assert.Equal(t, models.OutcomeNoop, outcome)
	f.idp.AssertNotCalled(t, "GetUserInfo", mock.Anything, mock.Anything)
}

func TestRenewSessionIfNeeded_ExpiredTokenRenewsNotRefetches(t *testing.T) {
	f := newManagerFixture(Config{RedirectURI: "https://console.example.com/callback", Scope: "openid profile"})
	f.seedTokens(t, "at-old", "id-old")
	f.expiredToken("id-old")

	var issuedNonce string
	f.idp.On("RenewAuth", mock.Anything, mock.MatchedBy(func(opts interfaces.RenewOptions) bool {
		issuedNonce = opts.Nonce
		return opts.Nonce != "" && opts.RedirectURI == "https://console.example.com/callback"
	})).Run(func(args mock.Arguments) {
		opts := args.Get(1).(interfaces.RenewOptions)
		f.decoder.set("id-new", &interfaces.TokenClaims{
			ExpiresAt: f.now.Add(time.Hour),
			Nonce:     opts.Nonce,
		})
	}).Return(&interfaces.RenewResult{AccessToken: "at-new", IDToken: "id-new"}, nil).Once()
	f.idp.On("GetUserInfo", mock.Anything, "at-new").Return(testProfile("user-1"), nil).Once()

	var received TokenAndProfile
	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{
		OnTokenAndProfile: func(_ context.Context, tp TokenAndProfile) { received = tp },
	})

	assert.Equal(t, models.OutcomeRenewed, outcome)
	assert.NotEmpty(t, issuedNonce)
	assert.Equal(t, "id-new", received.IDToken)
	require.NotNil(t, received.Profile)
	assert.Equal(t, "user-1", received.Profile.UserID)

	stored, err := f.store.GetItem(context.Background(), interfaces.AccessTokenSlot)
	require.NoError(t, err)
	assert.Equal(t, "at-new", stored)
	f.idp.AssertExpectations(t)

	events := f.events.Recorded()
	require.Len(t, events, 1)
	assert.Equal(t, models.AuthSessionRenewedV1, events[0].EventType)
	assert.Equal(t, "sess-1", events[0].Subject)
}

func TestRenewSessionIfNeeded_NonceMismatchLogsOut(t *testing.T) {
	f := newManagerFixture(Config{})
	f.seedTokens(t, "at-old", "id-old")
	f.expiredToken("id-old")

	// Renewed token carries a nonce the manager never issued.
	f.decoder.set("id-replayed", &interfaces.TokenClaims{
		ExpiresAt: f.now.Add(time.Hour),
		Nonce:     "stale-nonce",
	})
	f.idp.On("RenewAuth", mock.Anything, mock.Anything).
		Return(&interfaces.RenewResult{AccessToken: "at-new", IDToken: "id-replayed"}, nil).Once()

	logoutCalls := 0
	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{
		OnLogout: func(context.Context) { logoutCalls++ },
	})

	assert.Equal(t, models.OutcomeLoggedOut, outcome)
	assert.Equal(t, 1, logoutCalls)
	f.idp.AssertNotCalled(t, "GetUserInfo", mock.Anything, mock.Anything)

	idToken, err := f.store.GetItem(context.Background(), interfaces.IDTokenSlot)
	require.NoError(t, err)
	assert.Empty(t, idToken)
}

func TestRenewSessionIfNeeded_RenewalFailureLogsOut(t *testing.T) {
	f := newManagerFixture(Config{})
	f.seedTokens(t, "at-old", "id-old")
	f.expiredToken("id-old")

	f.idp.On("RenewAuth", mock.Anything, mock.Anything).
		Return(nil, domainErrors.ErrRenewalRejected).Once()

	logoutCalls := 0
	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{
		OnLogout: func(context.Context) { logoutCalls++ },
	})

	assert.Equal(t, models.OutcomeLoggedOut, outcome)
	assert.Equal(t, 1, logoutCalls)
	accessToken, err := f.store.GetItem(context.Background(), interfaces.AccessTokenSlot)
	require.NoError(t, err)
	assert.Empty(t, accessToken)
}

func TestRenewSessionIfNeeded_ConcurrentRenewalIsSingleFlight(t *testing.T) {
	f := newManagerFixture(Config{})
	f.seedTokens(t, "at-old", "id-old")
	f.expiredToken("id-old")

	entered := make(chan struct{})
	release := make(chan struct{})
	f.idp.On("RenewAuth", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		opts := args.Get(1).(interfaces.RenewOptions)
		f.decoder.set("id-new", &interfaces.TokenClaims{
			ExpiresAt: f.now.Add(time.Hour),
			Nonce:     opts.Nonce,
		})
		close(entered)
		<-release
	}).Return(&interfaces.RenewResult{AccessToken: "at-new", IDToken: "id-new"}, nil).Once()
	f.idp.On("GetUserInfo", mock.Anything, "at-new").Return(testProfile("user-1"), nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	var firstOutcome models.RenewOutcome
	go func() {
		defer wg.Done()
		firstOutcome = f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{})
	}()

	<-entered
	secondOutcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{})
	assert.Equal(t, models.OutcomeNoop, secondOutcome)

	close(release)
	wg.Wait()
	assert.Equal(t, models.OutcomeRenewed, firstOutcome)
	f.idp.AssertNumberOfCalls(t, "RenewAuth", 1)
}

func TestRenewSessionIfNeeded_StaleProfileRefetches(t *testing.T) {
	window := 30 * time.Minute
	f := newManagerFixture(Config{ProfileRefreshWindow: window})
	f.seedTokens(t, "at-1", "id-1")
	f.validToken("id-1")

	f.manager.adoptProfile(testProfile("user-1"))
	f.now = f.now.Add(window + time.Minute)

	f.idp.On("GetUserInfo", mock.Anything, "at-1").Return(testProfile("user-1"), nil).Once()

	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{UserLoggedIn: true})

	assert.Equal(t, models.OutcomeProfileRefreshed, outcome)
	f.idp.AssertNumberOfCalls(t, "GetUserInfo", 1)
	f.idp.AssertNotCalled(t, "RenewAuth", mock.Anything, mock.Anything)

	f.manager.mu.Lock()
	expiresAt := f.manager.sess.ProfileExpiresAt
	f.manager.mu.Unlock()
	assert.Equal(t, f.now.Add(window), expiresAt)
}

func TestRenewSessionIfNeeded_NegativeWindowNeverRefetches(t *testing.T) {
	f := newManagerFixture(Config{ProfileRefreshWindow: -1})
	f.seedTokens(t, "at-1", "id-1")
	f.validToken("id-1")
	f.manager.adoptProfile(testProfile("user-1"))

	f.now = f.now.Add(48 * time.Hour)
	f.validToken("id-1")

	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{UserLoggedIn: true})

	assert.Equal(t, models.OutcomeNoop, outcome)
	f.idp.AssertNotCalled(t, "GetUserInfo", mock.Anything, mock.Anything)
}

func TestRenewSessionIfNeeded_MissingAccessTokenSkipsNetworkCall(t *testing.T) {
	f := newManagerFixture(Config{ProfileRefreshWindow: time.Hour})
	require.NoError(t, f.store.SetItem(context.Background(), interfaces.IDTokenSlot, "id-1"))
	f.validToken("id-1")

	logoutCalls := 0
	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{
		OnLogout: func(context.Context) { logoutCalls++ },
	})

	assert.Equal(t, models.OutcomeLoggedOut, outcome)
	assert.Equal(t, 1, logoutCalls)
	f.idp.AssertNotCalled(t, "GetUserInfo", mock.Anything, mock.Anything)
}

func TestRenewSessionIfNeeded_NotYetLoggedInFetchesProfile(t *testing.T) {
	f := newManagerFixture(Config{ProfileRefreshWindow: time.Hour})
	f.seedTokens(t, "at-1", "id-1")
	f.validToken("id-1")

	f.idp.On("GetUserInfo", mock.Anything, "at-1").Return(testProfile("user-1"), nil).Once()

	outcome := f.manager.RenewSessionIfNeeded(context.Background(), Callbacks{UserLoggedIn: false})

	assert.Equal(t, models.OutcomeProfileRefreshed, outcome)
	assert.NotNil(t, f.manager.Profile())
}

func TestLogout_IsIdempotentAndReturnsFederatedURL(t *testing.T) {
	f := newManagerFixture(Config{
		ClientID:       "client-123",
		LogoutURL:      "https://idp.example.com/v2/logout",
		LogoutReturnTo: "https://console.example.com",
	})
	f.seedTokens(t, "at-1", "id-1")
	f.manager.adoptProfile(testProfile("user-1"))

	logoutCalls := 0
	cb := Callbacks{OnLogout: func(context.Context) { logoutCalls++ }}

	url := f.manager.Logout(context.Background(), cb)
	assert.Contains(t, url, "https://idp.example.com/v2/logout?")
	assert.Contains(t, url, "client_id=client-123")
	assert.Contains(t, url, "returnTo=https%3A%2F%2Fconsole.example.com")

	again := f.manager.Logout(context.Background(), cb)
	assert.Equal(t, url, again)
	assert.Equal(t, 2, logoutCalls)
	assert.Nil(t, f.manager.Profile())

	events := f.events.Recorded()
	require.NotEmpty(t, events)
	assert.Equal(t, models.AuthSessionRevokedV1, events[0].EventType)

	idToken, err := f.store.GetItem(context.Background(), interfaces.IDTokenSlot)
	require.NoError(t, err)
	assert.Empty(t, idToken)
}

func TestState_Derivation(t *testing.T) {
	f := newManagerFixture(Config{ProfileRefreshWindow: time.Hour})
	ctx := context.Background()

	assert.Equal(t, models.StateAnonymous, f.manager.State(ctx))

	f.seedTokens(t, "at-1", "id-1")
	f.expiredToken("id-1")
	assert.Equal(t, models.StateTokenExpired, f.manager.State(ctx))

	f.validToken("id-1")
	assert.Equal(t, models.StateTokenValidStale, f.manager.State(ctx))

	f.manager.adoptProfile(testProfile("user-1"))
	assert.Equal(t, models.StateTokenValidFresh, f.manager.State(ctx))
}
