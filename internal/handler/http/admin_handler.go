// File: backend/services/auth-service/internal/handler/http/admin_handler.go
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository"
)

// AdminHandler serves operator-facing endpoints.
type AdminHandler struct {
	auditRepo repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(auditRepo repository.AuditLogRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{auditRepo: auditRepo, logger: logger}
}

// ListAuditLogs lists session lifecycle audit entries with optional filters.
// GET /api/v1/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	if h.auditRepo == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "audit log storage is not configured", "audit_unavailable", h.logger)
		return
	}

	params := repository.ListAuditLogParams{
		Page:      1,
		PageSize:  50,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			params.Page = n
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			params.PageSize = n
		}
	}
	if v := c.Query("session_id"); v != "" {
		params.SessionID = &v
	}
	if v := c.Query("user_id"); v != "" {
		params.UserID = &v
	}
	if v := c.Query("action"); v != "" {
		params.Action = &v
	}
	if v := c.Query("status"); v != "" {
		params.Status = &v
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "date_from must be RFC3339", "invalid_request", h.logger)
			return
		}
		params.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "date_to must be RFC3339", "invalid_request", h.logger)
			return
		}
		params.DateTo = &t
	}

	entries, total, err := h.auditRepo.List(c.Request.Context(), params)
	if err != nil {
		h.logger.Error("listing audit logs failed", zap.Error(err))
		RespondWithError(c, http.StatusInternalServerError, "failed to list audit logs", "internal_error", h.logger)
		return
	}

	RespondWithData(c, http.StatusOK, gin.H{
		"items":     entries,
		"total":     total,
		"page":      params.Page,
		"page_size": params.PageSize,
	})
}
