// File: backend/services/auth-service/internal/domain/repository/postgres/audit_log_postgres_repository.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/errors"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/models"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/domain/repository"
	"github.com/open-transit-tools/data-manager/backend/services/auth-service/internal/utils/metrics"
)

// AuditLogRepositoryPostgres implements repository.AuditLogRepository for PostgreSQL.
type AuditLogRepositoryPostgres struct {
	pool *pgxpool.Pool
}

var _ repository.AuditLogRepository = (*AuditLogRepositoryPostgres)(nil)

// NewAuditLogRepositoryPostgres creates a new instance.
func NewAuditLogRepositoryPostgres(pool *pgxpool.Pool) *AuditLogRepositoryPostgres {
	return &AuditLogRepositoryPostgres{pool: pool}
}

// Create persists a new audit log entry. id and created_at default in the
// database when unset.
func (r *AuditLogRepositoryPostgres) Create(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO auth_audit_logs (session_id, user_id, action, status, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.SessionID, entry.UserID, entry.Action, entry.Status, entry.Details,
	)
	if err != nil {
		metrics.DatabaseOperationsTotal.WithLabelValues("audit_log_create", metrics.StatusFailure).Inc()
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	metrics.DatabaseOperationsTotal.WithLabelValues("audit_log_create", metrics.StatusSuccess).Inc()
	return nil
}

// FindByID retrieves an audit log entry by its ID.
func (r *AuditLogRepositoryPostgres) FindByID(ctx context.Context, id int64) (*models.AuditLog, error) {
	query := `
		SELECT id, session_id, user_id, action, status, details, created_at
		FROM auth_audit_logs
		WHERE id = $1
	`
	entry := &models.AuditLog{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&entry.ID, &entry.SessionID, &entry.UserID, &entry.Action,
		&entry.Status, &entry.Details, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find audit log by ID: %w", err)
	}
	return entry, nil
}

// List retrieves audit log entries based on specified parameters.
func (r *AuditLogRepositoryPostgres) List(ctx context.Context, params repository.ListAuditLogParams) ([]*models.AuditLog, int, error) {
	var entries []*models.AuditLog
	var totalCount int

	baseQuery := `SELECT id, session_id, user_id, action, status, details, created_at FROM auth_audit_logs`
	countQueryBase := `SELECT COUNT(*) FROM auth_audit_logs`

	conditions := []string{}
	args := []interface{}{}
	argCount := 1

	addCondition := func(condition string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(condition, argCount))
		args = append(args, value)
		argCount++
	}

	if params.SessionID != nil {
		addCondition("session_id = $%d", *params.SessionID)
	}
	if params.UserID != nil {
		addCondition("user_id = $%d", *params.UserID)
	}
	if params.Action != nil {
		addCondition("action = $%d", *params.Action)
	}
	if params.Status != nil {
		addCondition("status = $%d", *params.Status)
	}
	if params.DateFrom != nil {
		addCondition("created_at >= $%d", *params.DateFrom)
	}
	if params.DateTo != nil {
		addCondition("created_at <= $%d", *params.DateTo)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	err := r.pool.QueryRow(ctx, countQueryBase+whereClause, args...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	if totalCount == 0 {
		return entries, 0, nil
	}

	queryFull := baseQuery + whereClause

	// Sort column is allow-listed to keep user input out of the SQL text.
	orderBy := "created_at"
	switch params.SortBy {
	case "session_id", "user_id", "action", "status":
		orderBy = params.SortBy
	}
	sortOrder := "DESC"
	if strings.EqualFold(params.SortOrder, "ASC") {
		sortOrder = "ASC"
	}
	queryFull += fmt.Sprintf(" ORDER BY %s %s", orderBy, sortOrder)

	if params.PageSize > 0 {
		queryFull += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, params.PageSize)
		argCount++
		if params.Page > 0 {
			offset := (params.Page - 1) * params.PageSize
			queryFull += fmt.Sprintf(" OFFSET $%d", argCount)
			args = append(args, offset)
		}
	}

	rows, err := r.pool.Query(ctx, queryFull, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry := &models.AuditLog{}
		if err := rows.Scan(
			&entry.ID, &entry.SessionID, &entry.UserID, &entry.Action,
			&entry.Status, &entry.Details, &entry.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit log rows: %w", err)
	}
	return entries, totalCount, nil
}
