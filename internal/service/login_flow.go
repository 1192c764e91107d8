// File: backend/services/auth-service/internal/service/login_flow.go
package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/metrics"
)

// WidgetEventKind identifies one lifecycle event of the interactive login
// widget.
type WidgetEventKind string

const (
	WidgetEventAuthenticated      WidgetEventKind = "authenticated"
	WidgetEventHide               WidgetEventKind = "hide"
	WidgetEventSigninSubmit       WidgetEventKind = "signin_submit"
	WidgetEventSignupSubmit       WidgetEventKind = "signup_submit"
	WidgetEventAuthorizationError WidgetEventKind = "authorization_error"
)

// WidgetEvent is one event reported by the login widget. Tokens are only set
// on an authenticated event.
type WidgetEvent struct {
	Kind        WidgetEventKind `json:"kind" binding:"required"`
	AccessToken string          `json:"access_token,omitempty"`
	IDToken     string          `json:"id_token,omitempty"`
}

// WidgetCallbacks are the host hooks invoked while handling one widget event.
type WidgetCallbacks struct {
	// OnHide fires only when the widget is dismissed without the user
	// completing sign-in or sign-up.
	OnHide func(ctx context.Context)
	// Push navigates the host application to a path after a completed login.
	Push func(ctx context.Context, path string)
	// OnTokenAndProfile receives the token and profile of a completed login.
	OnTokenAndProfile func(ctx context.Context, tp TokenAndProfile)
	// HideWidget closes the widget after a completed login.
	HideWidget func(ctx context.Context)
}

// LoginFlow is the state machine driving one interactive login attempt. The
// widget's scattered event handlers collapse into a single HandleWidgetEvent
// entry point over one armed flag: while armed, dismissing the widget counts
// as abandoning the login; a form submit disarms it, and an authorization
// error rearms it so a failed attempt can still be abandoned.
type LoginFlow struct {
	manager           *SessionManager
	redirectOnSuccess string
	logger            *zap.Logger

	mu    sync.Mutex
	armed bool
	done  bool
}

// NewLoginFlow starts an interactive login attempt for the manager's session.
// The flow starts armed. redirectOnSuccess, when non-empty, is pushed through
// the Push callback after a completed login.
func NewLoginFlow(manager *SessionManager, redirectOnSuccess string) *LoginFlow {
	return &LoginFlow{
		manager:           manager,
		redirectOnSuccess: redirectOnSuccess,
		logger:            manager.logger.Named("login_flow"),
		armed:             true,
	}
}

// Done reports whether the flow reached a terminal state, either a completed
// login or an abandoned widget.
func (f *LoginFlow) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// HandleWidgetEvent advances the flow by one widget event. Events after a
// terminal state are ignored.
func (f *LoginFlow) HandleWidgetEvent(ctx context.Context, ev WidgetEvent, cb WidgetCallbacks) error {
	metrics.LoginFlowEventsTotal.WithLabelValues(string(ev.Kind)).Inc()

	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		f.logger.Debug("widget event after terminal state ignored", zap.String("event", string(ev.Kind)))
		return nil
	}

	switch ev.Kind {
	case WidgetEventSigninSubmit, WidgetEventSignupSubmit:
		f.armed = false
		f.mu.Unlock()
		return nil

	case WidgetEventAuthorizationError:
		f.armed = true
		f.mu.Unlock()
		f.logger.Warn("authorization error from login widget")
		return nil

	case WidgetEventHide:
		wasArmed := f.armed
		if wasArmed {
			f.done = true
		}
		f.mu.Unlock()
		if wasArmed {
			f.logger.Info("login widget dismissed without authenticating")
			if cb.OnHide != nil {
				cb.OnHide(ctx)
			}
		}
		return nil

	case WidgetEventAuthenticated:
		f.done = true
		f.mu.Unlock()
		return f.completeAuthentication(ctx, ev, cb)

	default:
		f.mu.Unlock()
		return errors.NewAppError(errors.ErrInvalidRequest, "unknown widget event", 400, "UNKNOWN_WIDGET_EVENT")
	}
}

func (f *LoginFlow) completeAuthentication(ctx context.Context, ev WidgetEvent, cb WidgetCallbacks) error {
	if ev.AccessToken == "" || ev.IDToken == "" {
		f.logger.Warn("authenticated event carried an incomplete token pair")
		return errors.NewAppError(errors.ErrInvalidToken, "authenticated event missing tokens", 400, "INCOMPLETE_TOKEN_PAIR")
	}

	err := f.manager.completeLogin(ctx, Callbacks{
		OnTokenAndProfile: cb.OnTokenAndProfile,
	}, ev.AccessToken, ev.IDToken)
	if err != nil {
		return err
	}

	if f.redirectOnSuccess != "" && cb.Push != nil {
		cb.Push(ctx, f.redirectOnSuccess)
	}
	if cb.HideWidget != nil {
		cb.HideWidget(ctx)
	}
	return nil
}
