// File: backend/services/auth-service/internal/domain/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	// Generic errors
	ErrInternal       = errors.New("internal server error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("access denied")
	ErrUnauthorized   = errors.New("not authorized")

	// Token errors
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("expired token")
	ErrMissingToken     = errors.New("token not present in storage")
	ErrNonceMismatch    = errors.New("nonce mismatch on renewed token")
	ErrMissingNonce     = errors.New("renewed token carries no nonce")
	ErrRenewalRejected  = errors.New("identity provider rejected silent renewal")
	ErrEmptyRenewResult = errors.New("renewal response missing access token")

	// Profile errors
	ErrProfileFetch   = errors.New("profile fetch failed")
	ErrProfileMissing = errors.New("no profile fetched for session")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRevoked  = errors.New("session revoked")
)

// AppError carries an error with an HTTP status and a machine-readable code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates a new application error.
func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{Err: err, Message: message, StatusCode: statusCode, Code: code}
}

// IsUnauthorized reports whether err should map to a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrSessionRevoked)
}

// IsNotFound reports whether err should map to a 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSessionNotFound)
}
