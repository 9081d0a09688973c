package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// AuditService writes and reads the append-only audit trail
type AuditService interface {
	// RecordTransition stamps, describes and appends an entry. On a write
	// failure the built entry is still returned alongside the error.
	RecordTransition(ctx context.Context, entry audit.Entry) (*entity.AuditLog, error)

	GetByID(ctx context.Context, logID int64) (*entity.AuditLog, error)
	ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditLog, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditLogRepository
	logger    Logger
	now       func() time.Time
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditLogRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *auditServiceImpl) RecordTransition(ctx context.Context, entry audit.Entry) (*entity.AuditLog, error) {
	details := entry.Details
	if entry.OldStatusID != nil {
		details.OldStatus = domainwf.State(*entry.OldStatusID).String()
	}
	if entry.NewStatusID != nil {
		details.NewStatus = domainwf.State(*entry.NewStatusID).String()
	}
	if details.ActorUserID == 0 {
		details.ActorUserID = entry.ActorUserID
	}

	stamp := s.now().UTC()
	log := &entity.AuditLog{
		RequestID:         entry.RequestID,
		UserID:            entry.ActorUserID,
		ActionType:        entry.Kind.String(),
		OldStatusID:       entry.OldStatusID,
		NewStatusID:       entry.NewStatusID,
		ChangeDescription: entry.Kind.Describe(details),
		Comments:          entry.Comments,
		ActionDate:        stamp,
		Timestamp:         stamp,
	}

	if err := s.auditRepo.Create(ctx, log); err != nil {
		return log, fmt.Errorf("append audit log: %w", err)
	}

	s.logger.Info("Audit log recorded",
		"log_id", log.LogID,
		"request_id", log.RequestID,
		"action_type", log.ActionType,
	)

	return log, nil
}

func (s *auditServiceImpl) GetByID(ctx context.Context, logID int64) (*entity.AuditLog, error) {
	log, err := s.auditRepo.GetByID(ctx, logID)
	if err != nil {
		s.logger.Error("Failed to get audit log", "error", err, "log_id", logID)
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	if log == nil {
		return nil, apperr.NotFound("Audit log with ID %d not found.", logID)
	}
	return log, nil
}

func (s *auditServiceImpl) ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditLog, error) {
	logs, err := s.auditRepo.ListByRequest(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to list audit logs", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, apperr.NotFound("No audit logs found for Travel Request '%s'.", requestID)
	}
	return logs, nil
}
