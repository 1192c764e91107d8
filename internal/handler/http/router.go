// File: backend/services/auth-service/internal/handler/http/router.go
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/handler/http/middleware"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/service"
)

// RouterDeps bundles the handlers and shared middleware inputs of the router.
type RouterDeps struct {
	Registry          *service.Registry
	SessionHandler    *SessionHandler
	PermissionHandler *PermissionHandler
	AdminHandler      *AdminHandler
	HealthHandler     *HealthHandler
	CORSOrigins       []string
	Logger            *zap.Logger
}

// SetupRouter wires the HTTP routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.CorsMiddleware(deps.CORSOrigins))
	router.Use(middleware.MetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", deps.HealthHandler.Health)
	router.GET("/readiness", deps.HealthHandler.Readiness)

	api := router.Group("/api/v1")
	{
		session := api.Group("/session")
		session.Use(middleware.SessionMiddleware())
		{
			session.POST("/renew", deps.SessionHandler.Renew)
			session.POST("/login", deps.SessionHandler.BeginLogin)
			session.POST("/widget-event", deps.SessionHandler.WidgetEvent)
			session.POST("/logout", deps.SessionHandler.Logout)
			session.GET("/state", deps.SessionHandler.State)
		}

		validation := api.Group("/validation")
		validation.Use(middleware.SessionMiddleware())
		{
			validation.POST("/permission", deps.PermissionHandler.CheckPermission)
		}

		me := api.Group("/me")
		me.Use(middleware.SessionMiddleware())
		{
			me.GET("/permissions", deps.PermissionHandler.MyPermissions)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.SessionMiddleware())
		admin.Use(RequireApplicationAdmin(deps.Registry, deps.Logger))
		{
			admin.GET("/audit-logs", deps.AdminHandler.ListAuditLogs)
		}
	}

	return router
}
