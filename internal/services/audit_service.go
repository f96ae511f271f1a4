package services

import (
	"context"
	"fmt"

	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/pkg/utils"
)

// AuditService records and lists admin actions.
type AuditService interface {
	// Record writes an entry through executor (nil for the plain connection).
	Record(ctx context.Context, executor repositories.SQLExecutor, actor *models.Actor, eventType, detail string) error
	List(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLog, int, error)
}

type auditService struct {
	auditRepo repositories.AuditRepository
}

// NewAuditService creates a new instance of AuditService.
func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) Record(ctx context.Context, executor repositories.SQLExecutor, actor *models.Actor, eventType, detail string) error {
	entry := &models.AuditLog{EventType: eventType, Detail: detail}
	if actor != nil {
		entry.Username = &actor.Username
		entry.Role = &actor.Role
	}
	if _, err := s.auditRepo.CreateAuditLog(ctx, executor, entry); err != nil {
		return fmt.Errorf("failed to record audit event %s: %w", eventType, err)
	}
	utils.LogDebug("Audit event recorded", map[string]interface{}{"event_type": eventType, "detail": detail})
	return nil
}

func (s *auditService) List(ctx context.Context, filters models.AuditLogFilters) ([]models.AuditLog, int, error) {
	logs, total, err := s.auditRepo.GetAuditLogs(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
