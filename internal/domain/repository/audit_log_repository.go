// File: backend/services/auth-service/internal/domain/repository/audit_log_repository.go
package repository

import (
	"context"
	"time"

	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
)

// ListAuditLogParams filter and paginate audit log listings.
type ListAuditLogParams struct {
	SessionID *string
	UserID    *string
	Action    *string
	Status    *string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AuditLogRepository persists session lifecycle audit records.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, params ListAuditLogParams) ([]*models.AuditLog, int, error)
}
