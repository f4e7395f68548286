package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/creatilink/marketplace-backend/internal/logger"
	"github.com/creatilink/marketplace-backend/internal/models"
)

// AuditRepository описывает хранилище журнала административных действий.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, severity string, limit, offset int) ([]models.AuditLog, error)
}

// AuditService ведёт журнал административных вмешательств. Запись
// аудита не должна ронять само действие: сбой только логируется.
type AuditService struct {
	repo  AuditRepository
	guard *Guard
}

func NewAuditService(repo AuditRepository, guard *Guard) *AuditService {
	return &AuditService{repo: repo, guard: guard}
}

// Record сохраняет запись аудита.
func (s *AuditService) Record(ctx context.Context, adminID uuid.UUID, action, severity, description string, targetUserID, projectID *uuid.UUID) {
	entry := &models.AuditLog{
		AdminID:      adminID,
		Action:       action,
		Severity:     severity,
		Description:  description,
		TargetUserID: targetUserID,
		ProjectID:    projectID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Log.WithError(err).WithField("action", action).
			Error("audit service: не удалось сохранить запись аудита")
	}
}

// ListForAdmin возвращает журнал аудита администратору.
func (s *AuditService) ListForAdmin(ctx context.Context, adminID uuid.UUID, severity string, limit, offset int) ([]models.AuditLog, error) {
	if _, err := s.guard.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, severity, limit, offset)
}
