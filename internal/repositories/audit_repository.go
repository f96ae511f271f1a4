package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kiosk_pos_backend/internal/models"
)

// AuditRepository stores the admin audit trail.
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, executor SQLExecutor, entry *models.AuditLog) (int64, error)
	GetAuditLogs(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLog, int, error)
}

type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateAuditLog(ctx context.Context, executor SQLExecutor, entry *models.AuditLog) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO audit_logs (username, role, event_type, detail, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		entry.Username, entry.Role, entry.EventType, entry.Detail, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating audit log '%s'", entry.EventType)
	}
	return entry.ID, nil
}

func (r *auditRepository) GetAuditLogs(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLog, int, error) {
	logs := []models.AuditLog{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, username, role, event_type, detail, created_at, COUNT(*) OVER() AS total_count
	                          FROM audit_logs`)
	var args []interface{}
	argCounter := 1
	if filters.EventType != nil && *filters.EventType != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE event_type = $%d", argCounter))
		args = append(args, *filters.EventType)
		argCounter++
	}

	page, pageSize := normalizePaging(filters.Page, filters.PageSize)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "getting audit logs")
	}
	defer rows.Close()

	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.Username, &l.Role, &l.EventType, &l.Detail, &l.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning audit log: %v", ErrDatabaseError, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating audit logs: %v", ErrDatabaseError, err)
	}
	return logs, totalCount, nil
}
