package services

import (
	"context"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jrmendez/caja-api/pkg/logger"
)

// AuditService records who did what to which record. Writes are best-effort:
// Log never returns an error, so callers cannot accidentally fail or roll back
// a money operation because the audit insert failed.
type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an audit entry. Failures are logged and swallowed.
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, details, ip, userAgent string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Warn("audit log write failed",
			"action", action,
			"entity", entity,
			"entity_id", entityID,
			"error", err)
	}
}

// List retrieves audit logs, newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, limit, offset)
}
