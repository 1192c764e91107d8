// File: backend/services/auth-service/internal/handler/http/response.go
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
)

// ResponseError is the error envelope of the API.
type ResponseError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RespondWithError sends an error response and logs it.
func RespondWithError(c *gin.Context, statusCode int, message string, errorCode string, logger *zap.Logger) {
	logger.Error("API error response",
		zap.Int("status_code", statusCode),
		zap.String("error_message", message),
		zap.String("error_code", errorCode),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ResponseError{
		Error: message,
		Code:  errorCode,
	})
}

// RespondWithDomainError maps a domain error onto the HTTP status space and
// sends the error envelope.
func RespondWithDomainError(c *gin.Context, err error, logger *zap.Logger) {
	var appErr *domainErrors.AppError
	switch {
	case errors.As(err, &appErr):
		RespondWithError(c, appErr.StatusCode, appErr.Message, appErr.Code, logger)
	case domainErrors.IsUnauthorized(err):
		RespondWithError(c, http.StatusUnauthorized, err.Error(), "unauthorized", logger)
	case errors.Is(err, domainErrors.ErrForbidden):
		RespondWithError(c, http.StatusForbidden, err.Error(), "forbidden", logger)
	case domainErrors.IsNotFound(err):
		RespondWithError(c, http.StatusNotFound, err.Error(), "not_found", logger)
	default:
		RespondWithError(c, http.StatusInternalServerError, "internal server error", "internal_error", logger)
	}
}

// RespondWithData sends a success response carrying only data.
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}
