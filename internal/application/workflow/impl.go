package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

type engineImpl struct {
	requestRepo port.TravelRequestRepository
	projectRepo port.ProjectRepository
	txManager   port.TransactionManager
	recorder    AuditRecorder
	dispatcher  dispatcher.Dispatcher
	logger      Logger
}

// EngineOption configures the engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the dispatcher that receives post-commit events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// NewEngine creates a new transition engine
func NewEngine(
	requestRepo port.TravelRequestRepository,
	projectRepo port.ProjectRepository,
	txManager port.TransactionManager,
	recorder AuditRecorder,
	logger Logger,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		requestRepo: requestRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		recorder:    recorder,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) Load(ctx context.Context, requestID string) (*entity.TravelRequest, *entity.Project, error) {
	req, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load travel request: %w", err)
	}
	if req == nil || !req.IsActive {
		return nil, nil, apperr.NotFound("Travel Request '%s' not found.", requestID)
	}

	project, err := e.projectRepo.GetByCode(ctx, req.ProjectCode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load project: %w", err)
	}

	return req, project, nil
}

func (e *engineImpl) Execute(ctx context.Context, cmd Command) (*Result, error) {
	req, project, err := e.Load(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	subject := NewSubject(req, project, cmd.Facts)
	decision, err := domainwf.Validate(ctx, subject, cmd.Trigger, cmd.Actor)
	if err != nil {
		if errors.Is(err, domainwf.ErrProjectMissing) {
			return nil, &ProjectMissingError{RequestID: req.RequestID, ProjectCode: req.ProjectCode}
		}
		return nil, err
	}

	result := &Result{Decision: decision, Request: req, Project: project}

	if decision.IsNoOp() {
		e.logger.Info("Action already applied",
			"request_id", req.RequestID,
			"trigger", cmd.Trigger,
			"status", decision.From,
		)
		return result, nil
	}

	entry := e.transitionEntry(cmd, decision)
	writeEntry := cmd.Audit == AuditAlways || (cmd.Audit == AuditOnStatusChange && decision.StatusChanged())
	var auditFailed bool

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if decision.StatusChanged() {
			if err := e.requestRepo.CompareAndSetStatus(txCtx, req.RequestID, decision.From.ID(), decision.To.ID()); err != nil {
				if errors.Is(err, port.ErrStatusChanged) {
					return apperr.Conflict("Travel request %s was changed by another action. Please reload and try again.", req.RequestID)
				}
				return fmt.Errorf("failed to update status: %w", err)
			}
			req.CurrentStatusID = decision.To.ID()
		}

		if cmd.Apply != nil {
			if err := cmd.Apply(txCtx, req); err != nil {
				return err
			}
		}

		for _, before := range cmd.Before {
			if before.RequestID == "" {
				before.RequestID = req.RequestID
			}
			if before.ActorUserID == 0 {
				before.ActorUserID = entry.ActorUserID
			}
			if _, err := e.recorder.RecordTransition(txCtx, before); err != nil {
				auditFailed = true
				e.logAuditFailure(req.RequestID, before.Kind, err)
			}
		}

		if writeEntry {
			log, err := e.recorder.RecordTransition(txCtx, entry)
			result.AuditLog = log
			if err != nil {
				auditFailed = true
				e.logAuditFailure(req.RequestID, entry.Kind, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Action applied",
		"request_id", req.RequestID,
		"trigger", cmd.Trigger,
		"from", decision.From.Code(),
		"to", decision.To.Code(),
	)

	e.publish(ctx, cmd, decision, result, auditFailed)

	return result, nil
}

func (e *engineImpl) transitionEntry(cmd Command, decision domainwf.Decision) audit.Entry {
	kind := decision.Label
	if cmd.Kind != "" {
		kind = cmd.Kind
	}

	details := cmd.Details
	var actorID int64
	if cmd.Actor != nil {
		actorID = cmd.Actor.UserID
		details.ActorUserID = cmd.Actor.UserID
		if details.ActorName == "" {
			details.ActorName = cmd.Actor.Name
		}
		if details.ActorEmail == "" {
			details.ActorEmail = cmd.Actor.Email
		}
	}

	return audit.Entry{
		RequestID:   cmd.RequestID,
		ActorUserID: actorID,
		Kind:        kind,
		OldStatusID: entity.StatusPtr(decision.From.ID()),
		NewStatusID: entity.StatusPtr(decision.To.ID()),
		Comments:    cmd.Comments,
		Details:     details,
	}
}

func (e *engineImpl) publish(ctx context.Context, cmd Command, decision domainwf.Decision, result *Result, auditFailed bool) {
	if e.dispatcher == nil {
		return
	}

	correlationID := event.CorrelationIDFrom(ctx)

	if auditFailed {
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(event.TypeAuditWriteFailed, cmd.RequestID, map[string]interface{}{
			event.KeyAction: cmd.Trigger.String(),
		}, correlationID))
	}

	if cmd.Quiet {
		return
	}

	eventType := cmd.Publish
	if eventType == "" {
		eventType = event.TypeTransitionRecorded
	}
	if eventType == event.TypeTransitionRecorded && result.AuditLog == nil {
		return
	}

	var actorID int64
	if cmd.Actor != nil {
		actorID = cmd.Actor.UserID
	}

	evt := event.NewEventWithCorrelation(eventType, cmd.RequestID, map[string]interface{}{
		event.KeyAction:       cmd.Trigger.String(),
		event.KeyOldStatus:    decision.From.ID(),
		event.KeyNewStatus:    decision.To.ID(),
		event.KeyActorUserID:  actorID,
		event.KeyViaEmailLink: cmd.Details.ViaEmailLink,
	}, correlationID)
	if result.AuditLog != nil {
		evt = evt.WithAuditLog(result.AuditLog)
	}

	e.dispatcher.DispatchAsync(ctx, evt)
}

func (e *engineImpl) logAuditFailure(requestID string, kind audit.Kind, err error) {
	e.logger.Error("Failed to write audit log, keeping status change",
		"request_id", requestID,
		"action_type", kind,
		"error", err,
	)
}
