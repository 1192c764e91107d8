// File: backend/services/auth-service/internal/handler/http/permission_handler.go
package http

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/permissions"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/handler/http/middleware"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/service"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/metrics"
)

// PermissionHandler answers permission checks against the session's cached
// permission set. Checks are pure evaluations; no network or storage happens
// on this path.
type PermissionHandler struct {
	registry *service.Registry
	logger   *zap.Logger
}

// NewPermissionHandler creates a permission handler.
func NewPermissionHandler(registry *service.Registry, logger *zap.Logger) *PermissionHandler {
	return &PermissionHandler{registry: registry, logger: logger}
}

type checkPermissionRequest struct {
	OrganizationID string `json:"organization_id"`
	ProjectID      string `json:"project_id"`
	FeedID         string `json:"feed_id"`
	Action         string `json:"action" binding:"required,permission_action"`
}

type checkPermissionResponse struct {
	Allowed bool `json:"allowed"`
}

// CheckPermission evaluates one feed-level permission check.
// POST /api/v1/validation/permission
func (h *PermissionHandler) CheckPermission(c *gin.Context) {
	var req checkPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body", "invalid_request", h.logger)
		return
	}

	action, _ := permissions.ParseAction(req.Action)
	set := h.registry.Manager(middleware.SessionID(c)).Permissions()
	allowed := set.HasFeedPermission(req.OrganizationID, req.ProjectID, req.FeedID, action)

	decision := "deny"
	if allowed {
		decision = "allow"
	}
	metrics.PermissionChecksTotal.WithLabelValues(decision).Inc()

	RespondWithData(c, http.StatusOK, checkPermissionResponse{Allowed: allowed})
}

type grantResponse struct {
	Scope        string   `json:"scope"`
	ID           string   `json:"id,omitempty"`
	Role         string   `json:"role"`
	Actions      []string `json:"actions,omitempty"`
	AllFeeds     bool     `json:"all_feeds,omitempty"`
	DefaultFeeds []string `json:"default_feeds,omitempty"`
}

type myPermissionsResponse struct {
	ApplicationAdmin bool            `json:"application_admin"`
	Grants           []grantResponse `json:"grants"`
	ProjectActions   []string        `json:"project_actions,omitempty"`
}

// MyPermissions returns the session's structured grants. With ?project_id=
// it also returns the effective custom actions for that project.
// GET /api/v1/me/permissions
func (h *PermissionHandler) MyPermissions(c *gin.Context) {
	set := h.registry.Manager(middleware.SessionID(c)).Permissions()

	resp := myPermissionsResponse{
		ApplicationAdmin: set.IsApplicationAdmin(),
		Grants:           make([]grantResponse, 0),
	}
	for _, g := range set.Grants() {
		resp.Grants = append(resp.Grants, toGrantResponse(g))
	}

	if projectID := c.Query("project_id"); projectID != "" {
		resp.ProjectActions = sortedActions(set.ProjectPermissions(projectID))
	}

	RespondWithData(c, http.StatusOK, resp)
}

func toGrantResponse(g permissions.Grant) grantResponse {
	out := grantResponse{
		Scope:    string(g.Scope),
		ID:       g.ScopeID,
		Role:     string(g.Role),
		AllFeeds: g.DefaultFeeds.All,
	}
	for a := range g.Actions {
		out.Actions = append(out.Actions, string(a))
	}
	sort.Strings(out.Actions)
	for f := range g.DefaultFeeds.IDs {
		out.DefaultFeeds = append(out.DefaultFeeds, f)
	}
	sort.Strings(out.DefaultFeeds)
	return out
}

func sortedActions(actions map[permissions.Action]struct{}) []string {
	out := make([]string, 0, len(actions))
	for a := range actions {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}
