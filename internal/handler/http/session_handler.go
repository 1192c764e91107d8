// File: backend/services/auth-service/internal/handler/http/session_handler.go
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/handler/http/middleware"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/service"
)

// SessionHandler exposes the session lifecycle over HTTP. Each console
// session is identified by the X-Session-Id header; the handler resolves the
// session's manager through the registry and relays lifecycle callbacks into
// the response body.
type SessionHandler struct {
	registry *service.Registry
	logger   *zap.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(registry *service.Registry, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, logger: logger}
}

type renewRequest struct {
	UserLoggedIn bool `json:"user_logged_in"`
}

type tokenAndProfileResponse struct {
	IDToken string          `json:"id_token"`
	Profile *models.Profile `json:"profile"`
}

type renewResponse struct {
	Outcome   models.RenewOutcome      `json:"outcome"`
	State     models.SessionState      `json:"state"`
	Result    *tokenAndProfileResponse `json:"result,omitempty"`
	LogoutURL string                   `json:"logout_url,omitempty"`
}

// Renew runs one lifecycle pass for the session.
// POST /api/v1/session/renew
func (h *SessionHandler) Renew(c *gin.Context) {
	var req renewRequest
	// Empty body means a plain periodic trigger.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondWithError(c, http.StatusBadRequest, "invalid request body", "invalid_request", h.logger)
			return
		}
	}

	manager := h.registry.Manager(middleware.SessionID(c))

	var result *tokenAndProfileResponse
	outcome := manager.RenewSessionIfNeeded(c.Request.Context(), service.Callbacks{
		UserLoggedIn: req.UserLoggedIn,
		OnTokenAndProfile: func(_ context.Context, tp service.TokenAndProfile) {
			result = &tokenAndProfileResponse{IDToken: tp.IDToken, Profile: tp.Profile}
		},
	})

	resp := renewResponse{
		Outcome: outcome,
		State:   manager.State(c.Request.Context()),
		Result:  result,
	}
	if outcome == models.OutcomeLoggedOut {
		// Logged-out passes hand the browser the same federated logout URL an
		// explicit logout would.
		resp.LogoutURL = manager.FederatedLogoutURL()
	}
	RespondWithData(c, http.StatusOK, resp)
}

type beginLoginRequest struct {
	RedirectOnSuccess string `json:"redirect_on_success"`
}

// BeginLogin starts an interactive login flow for the session.
// POST /api/v1/session/login
func (h *SessionHandler) BeginLogin(c *gin.Context) {
	var req beginLoginRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondWithError(c, http.StatusBadRequest, "invalid request body", "invalid_request", h.logger)
			return
		}
	}

	h.registry.BeginLogin(middleware.SessionID(c), req.RedirectOnSuccess)
	RespondWithData(c, http.StatusAccepted, gin.H{"status": "login_started"})
}

type widgetEventResponse struct {
	Done     bool                     `json:"done"`
	Hidden   bool                     `json:"hidden"`
	Redirect string                   `json:"redirect,omitempty"`
	Result   *tokenAndProfileResponse `json:"result,omitempty"`
}

// WidgetEvent advances the session's login flow by one widget event.
// POST /api/v1/session/widget-event
func (h *SessionHandler) WidgetEvent(c *gin.Context) {
	var ev service.WidgetEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body", "invalid_request", h.logger)
		return
	}

	flow := h.registry.LoginFlow(middleware.SessionID(c))
	if flow == nil {
		RespondWithError(c, http.StatusConflict, "no login flow in progress", "no_login_flow", h.logger)
		return
	}

	resp := widgetEventResponse{}
	err := flow.HandleWidgetEvent(c.Request.Context(), ev, service.WidgetCallbacks{
		OnHide: func(context.Context) { resp.Hidden = true },
		Push: func(_ context.Context, path string) {
			resp.Redirect = path
		},
		OnTokenAndProfile: func(_ context.Context, tp service.TokenAndProfile) {
			resp.Result = &tokenAndProfileResponse{IDToken: tp.IDToken, Profile: tp.Profile}
		},
		HideWidget: func(context.Context) { resp.Hidden = true },
	})
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, err.Error(), "widget_event_failed", h.logger)
		return
	}

	resp.Done = flow.Done()
	RespondWithData(c, http.StatusOK, resp)
}

type logoutResponse struct {
	LogoutURL string `json:"logout_url"`
}

// Logout tears the session down and returns the federated logout URL.
// POST /api/v1/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	manager := h.registry.Manager(sessionID)
	url := manager.Logout(c.Request.Context(), service.Callbacks{})
	h.registry.Evict(sessionID)
	RespondWithData(c, http.StatusOK, logoutResponse{LogoutURL: url})
}

// State reports the session's derived lifecycle state.
// GET /api/v1/session/state
func (h *SessionHandler) State(c *gin.Context) {
	manager := h.registry.Manager(middleware.SessionID(c))
	RespondWithData(c, http.StatusOK, gin.H{
		"state": manager.State(c.Request.Context()),
	})
}
