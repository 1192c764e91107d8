// File: backend/services/auth-service/internal/handler/http/session_handler_test.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/interfaces"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository/memory"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/service"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/validator"
)

type fixedDecoder struct {
	claims map[string]*interfaces.TokenClaims
}

func (d fixedDecoder) Decode(idToken string) (*interfaces.TokenClaims, error) {
	if c, ok := d.claims[idToken]; ok {
		return c, nil
	}
	return nil, domainErrors.ErrInvalidToken
}

type fixedIdentity struct {
	profile *models.Profile
}

func (f fixedIdentity) GetUserInfo(context.Context, string) (*models.Profile, error) {
	if f.profile == nil {
		return nil, domainErrors.ErrProfileFetch
	}
	return f.profile, nil
}

func (f fixedIdentity) RenewAuth(context.Context, interfaces.RenewOptions) (*interfaces.RenewResult, error) {
	return nil, domainErrors.ErrRenewalRejected
}

type stubAuditRepo struct {
	entries []*models.AuditLog
}

func (r *stubAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) List(context.Context, repository.ListAuditLogParams) ([]*models.AuditLog, int, error) {
	return r.entries, len(r.entries), nil
}

type handlerFixture struct {
	router *gin.Engine
	store  *memory.TokenStore
}

func newHandlerFixture(t *testing.T, idp interfaces.IdentityClient, decoder interfaces.TokenDecoder) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.RegisterCustomValidators())

	store := memory.NewTokenStore()
	registry := service.NewRegistry(
		service.Config{
			ClientID:             "client-1",
			LogoutURL:            "https://idp.example.com/v2/logout",
			LogoutReturnTo:       "https://console.example.com",
			ProfileRefreshWindow: time.Hour,
		},
		func(string) interfaces.TokenStore { return store },
		service.ManagerDeps{
			Identity: idp,
			Decoder:  decoder,
			Logger:   zap.NewNop(),
		},
	)

	logger := zap.NewNop()
	router := SetupRouter(RouterDeps{
		Registry:          registry,
		SessionHandler:    NewSessionHandler(registry, logger),
		PermissionHandler: NewPermissionHandler(registry, logger),
		AdminHandler:      NewAdminHandler(&stubAuditRepo{}, logger),
		HealthHandler:     NewHealthHandler(nil, nil),
		Logger:            logger,
	})
	return &handlerFixture{router: router, store: store}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", "sess-1")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// login drives the interactive flow until the session is authenticated with
// the fixture's "id-login" token pair.
func (f *handlerFixture) login(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/session/login", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/session/widget-event", map[string]string{
		"kind":         "authenticated",
		"access_token": "at-login",
		"id_token":     "id-login",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func adminProfile() *models.Profile {
	return &models.Profile{
		UserID: "auth0|admin",
		Email:  "admin@example.com",
		AppMetadata: models.AppMetadata{
			DataManager: models.DataManagerMetadata{
				Grants: []models.RawGrant{{Scope: "application", Role: "admin"}},
			},
		},
	}
}

func viewerProfile() *models.Profile {
	return &models.Profile{
		UserID: "auth0|viewer",
		Email:  "viewer@example.com",
		AppMetadata: models.AppMetadata{
			DataManager: models.DataManagerMetadata{
				Grants: []models.RawGrant{{
					Scope:   "project",
					ID:      "proj-1",
					Role:    "custom",
					Actions: []string{"view-feed"},
				}},
			},
		},
	}
}

func TestSessionEndpoints_MissingHeader(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/state", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionState_Anonymous(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	rec := f.do(t, http.MethodGet, "/api/v1/session/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"anonymous"}`, rec.Body.String())
}

func TestSessionRenew_AnonymousLogsOut(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	rec := f.do(t, http.MethodPost, "/api/v1/session/renew", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Outcome   string `json:"outcome"`
		State     string `json:"state"`
		LogoutURL string `json:"logout_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "logged_out", resp.Outcome)
	assert.Equal(t, "anonymous", resp.State)
	assert.Contains(t, resp.LogoutURL, "https://idp.example.com/v2/logout?")
	assert.Contains(t, resp.LogoutURL, "client_id=client-1")
}

func TestSessionRenew_SuccessfulPassOmitsLogoutURL(t *testing.T) {
	decoder := fixedDecoder{claims: map[string]*interfaces.TokenClaims{
		"id-login": {ExpiresAt: time.Now().Add(time.Hour)},
	}}
	f := newHandlerFixture(t, fixedIdentity{profile: adminProfile()}, decoder)
	f.login(t)

	rec := f.do(t, http.MethodPost, "/api/v1/session/renew", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "logout_url")
}

func TestLoginFlowOverHTTP(t *testing.T) {
	decoder := fixedDecoder{claims: map[string]*interfaces.TokenClaims{
		"id-login": {ExpiresAt: time.Now().Add(time.Hour)},
	}}
	f := newHandlerFixture(t, fixedIdentity{profile: adminProfile()}, decoder)

	rec := f.do(t, http.MethodPost, "/api/v1/session/login", map[string]string{"redirect_on_success": "/home"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/session/widget-event", map[string]string{
		"kind":         "authenticated",
		"access_token": "at-login",
		"id_token":     "id-login",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Done     bool   `json:"done"`
		Hidden   bool   `json:"hidden"`
		Redirect string `json:"redirect"`
		Result   *struct {
			IDToken string `json:"id_token"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Done)
	assert.True(t, resp.Hidden)
	assert.Equal(t, "/home", resp.Redirect)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "id-login", resp.Result.IDToken)

	stored, err := f.store.GetItem(context.Background(), interfaces.AccessTokenSlot)
	require.NoError(t, err)
	assert.Equal(t, "at-login", stored)
}

func TestWidgetEvent_WithoutFlow(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	rec := f.do(t, http.MethodPost, "/api/v1/session/widget-event", map[string]string{"kind": "hide"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogout_ReturnsFederatedURL(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	rec := f.do(t, http.MethodPost, "/api/v1/session/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		LogoutURL string `json:"logout_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.LogoutURL, "https://idp.example.com/v2/logout?")
	assert.Contains(t, resp.LogoutURL, "client_id=client-1")
}

func TestCheckPermission_AfterLogin(t *testing.T) {
	decoder := fixedDecoder{claims: map[string]*interfaces.TokenClaims{
		"id-login": {ExpiresAt: time.Now().Add(time.Hour)},
	}}
	f := newHandlerFixture(t, fixedIdentity{profile: adminProfile()}, decoder)

	f.do(t, http.MethodPost, "/api/v1/session/login", nil)
	f.do(t, http.MethodPost, "/api/v1/session/widget-event", map[string]string{
		"kind":         "authenticated",
		"access_token": "at-login",
		"id_token":     "id-login",
	})

	rec := f.do(t, http.MethodPost, "/api/v1/validation/permission", map[string]string{
		"organization_id": "org-1",
		"project_id":      "proj-1",
		"feed_id":         "feed-1",
		"action":          "edit-gtfs",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"allowed":true}`, rec.Body.String())
}

func TestCheckPermission_AnonymousFailsClosed(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	rec := f.do(t, http.MethodPost, "/api/v1/validation/permission", map[string]string{
		"project_id": "proj-1",
		"feed_id":    "feed-1",
		"action":     "edit-gtfs",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"allowed":false}`, rec.Body.String())
}

func TestCheckPermission_UnknownActionRejected(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	rec := f.do(t, http.MethodPost, "/api/v1/validation/permission", map[string]string{
		"action": "launch-rockets",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMyPermissions(t *testing.T) {
	decoder := fixedDecoder{claims: map[string]*interfaces.TokenClaims{
		"id-login": {ExpiresAt: time.Now().Add(time.Hour)},
	}}
	f := newHandlerFixture(t, fixedIdentity{profile: adminProfile()}, decoder)

	f.do(t, http.MethodPost, "/api/v1/session/login", nil)
	f.do(t, http.MethodPost, "/api/v1/session/widget-event", map[string]string{
		"kind":         "authenticated",
		"access_token": "at-login",
		"id_token":     "id-login",
	})

	rec := f.do(t, http.MethodGet, "/api/v1/me/permissions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ApplicationAdmin bool `json:"application_admin"`
		Grants           []struct {
			Scope string `json:"scope"`
			Role  string `json:"role"`
		} `json:"grants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.ApplicationAdmin)
	require.Len(t, resp.Grants, 1)
	assert.Equal(t, "application", resp.Grants[0].Scope)
}

func TestAuditLogs_RequiresSessionHeader(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit-logs", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditLogs_AnonymousRejected(t *testing.T) {
	f := newHandlerFixture(t, fixedIdentity{}, fixedDecoder{})
	rec := f.do(t, http.MethodGet, "/api/v1/admin/audit-logs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "items")
}

func TestAuditLogs_NonAdminForbidden(t *testing.T) {
	decoder := fixedDecoder{claims: map[string]*interfaces.TokenClaims{
		"id-login": {ExpiresAt: time.Now().Add(time.Hour)},
	}}
	f := newHandlerFixture(t, fixedIdentity{profile: viewerProfile()}, decoder)
	f.login(t)

	rec := f.do(t, http.MethodGet, "/api/v1/admin/audit-logs", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "items")
}

func TestAuditLogs_ApplicationAdminAllowed(t *testing.T) {
	decoder := fixedDecoder{claims: map[string]*interfaces.TokenClaims{
		"id-login": {ExpiresAt: time.Now().Add(time.Hour)},
	}}
	f := newHandlerFixture(t, fixedIdentity{profile: adminProfile()}, decoder)
	f.login(t)

	rec := f.do(t, http.MethodGet, "/api/v1/admin/audit-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []map[string]interface{} `json:"items"`
		Total int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Items), resp.Total)
}
