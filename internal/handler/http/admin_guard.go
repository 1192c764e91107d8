// File: backend/services/auth-service/internal/handler/http/admin_guard.go
package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/handler/http/middleware"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/service"
)

// RequireApplicationAdmin gates a route group on the caller's session holding
// an application-admin grant. Sessions without a fetched profile are not
// authenticated and get 401; authenticated non-admins get 403. Runs after
// SessionMiddleware.
func RequireApplicationAdmin(registry *service.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		manager := registry.Manager(middleware.SessionID(c))
		if manager.Profile() == nil {
			RespondWithDomainError(c, domainErrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}
		if !manager.Permissions().IsApplicationAdmin() {
			RespondWithDomainError(c, domainErrors.ErrForbidden, logger)
			c.Abort()
			return
		}
		c.Next()
	}
}
