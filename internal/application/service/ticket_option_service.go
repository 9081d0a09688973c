package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/travel-approval/internal/application/port"
	appwf "github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// SelectOptionCommand selects one ticket option for a request
type SelectOptionCommand struct {
	RequestID    string
	OptionID     int64
	Actor        ActorRef
	Comments     string
	ViaEmailLink bool
}

// OptionOutcome is the result of a ticket option mutation
type OptionOutcome struct {
	Message string
	NoOp    bool
	Option  *entity.TicketOption
	Request *entity.TravelRequest
}

// TicketOptionService runs the ticket option sub-workflow
type TicketOptionService interface {
	List(ctx context.Context, requestID string) ([]*entity.TicketOption, error)
	Get(ctx context.Context, requestID string, optionID int64) (*entity.TicketOption, error)
	Create(ctx context.Context, requestID string, actor ActorRef, description string) (*entity.TicketOption, error)
	Edit(ctx context.Context, requestID string, optionID int64, actor ActorRef, description string) (*entity.TicketOption, error)
	Select(ctx context.Context, cmd SelectOptionCommand) (*OptionOutcome, error)
	Delete(ctx context.Context, requestID string, optionID int64, actor ActorRef) (*OptionOutcome, error)
	DeleteAll(ctx context.Context, requestID string, actor ActorRef) (*OptionOutcome, error)
}

type ticketOptionServiceImpl struct {
	engine      appwf.Engine
	optionRepo  port.TicketOptionRepository
	requestRepo port.TravelRequestRepository
	txManager   port.TransactionManager
	auditSvc    AuditService
	actors      actorResolver
	logger      Logger
}

// NewTicketOptionService creates a new TicketOptionService
func NewTicketOptionService(
	engine appwf.Engine,
	optionRepo port.TicketOptionRepository,
	requestRepo port.TravelRequestRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	auditSvc AuditService,
	logger Logger,
) TicketOptionService {
	return &ticketOptionServiceImpl{
		engine:      engine,
		optionRepo:  optionRepo,
		requestRepo: requestRepo,
		txManager:   txManager,
		auditSvc:    auditSvc,
		actors:      actorResolver{userRepo: userRepo},
		logger:      logger,
	}
}

func (s *ticketOptionServiceImpl) List(ctx context.Context, requestID string) ([]*entity.TicketOption, error) {
	if _, _, err := s.engine.Load(ctx, requestID); err != nil {
		return nil, requestNotFound(err, requestID)
	}
	options, err := s.optionRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list ticket options: %w", err)
	}
	return options, nil
}

func (s *ticketOptionServiceImpl) Get(ctx context.Context, requestID string, optionID int64) (*entity.TicketOption, error) {
	option, err := s.optionRepo.GetByID(ctx, optionID)
	if err != nil {
		return nil, fmt.Errorf("get ticket option: %w", err)
	}
	if option == nil || option.RequestID != requestID {
		return nil, apperr.NotFound("Ticket option with ID %d not found for request '%s'.", optionID, requestID)
	}
	return option, nil
}

func (s *ticketOptionServiceImpl) Create(ctx context.Context, requestID string, actorRef ActorRef, description string) (*entity.TicketOption, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.Validation("Option description is required.")
	}

	req, _, err := s.engine.Load(ctx, requestID)
	if err != nil {
		return nil, requestNotFound(err, requestID)
	}
	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	// The first option moves the request to OptionsListed; later ones only add rows.
	cmd := appwf.Command{
		RequestID: requestID,
		Trigger:   domainwf.TriggerAddOption,
		Actor:     actor,
		Audit:     appwf.AuditOnStatusChange,
		Quiet:     true,
	}
	if domainwf.State(req.CurrentStatusID) == domainwf.StateVerified {
		cmd.Trigger = domainwf.TriggerListOptions
		cmd.Audit = appwf.AuditAlways
		cmd.Quiet = false
	}

	now := time.Now().UTC()
	option := &entity.TicketOption{
		RequestID:         requestID,
		OptionDescription: description,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if actor != nil {
		option.CreatedByUserID = actor.UserID
	}
	cmd.Apply = func(txCtx context.Context, _ *entity.TravelRequest) error {
		if err := s.optionRepo.Create(txCtx, option); err != nil {
			return fmt.Errorf("create ticket option: %w", err)
		}
		return nil
	}

	if _, err := s.engine.Execute(ctx, cmd); err != nil {
		return nil, err
	}

	s.logger.Info("Ticket option created", "request_id", requestID, "option_id", option.OptionID)
	return option, nil
}

func (s *ticketOptionServiceImpl) Edit(ctx context.Context, requestID string, optionID int64, actorRef ActorRef, description string) (*entity.TicketOption, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.Validation("Option description is required.")
	}

	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}
	if actor == nil || !actor.Active {
		return nil, apperr.Unprocessable(domainwf.UnresolvedActorMessage)
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("User %s is not authorized to edit ticket options.", actor.Name)
	}

	req, _, err := s.engine.Load(ctx, requestID)
	if err != nil {
		return nil, requestNotFound(err, requestID)
	}
	option, err := s.Get(ctx, requestID, optionID)
	if err != nil {
		return nil, err
	}

	previous := option.OptionDescription
	if previous == description {
		return option, nil
	}

	status := req.CurrentStatusID
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.optionRepo.UpdateDescription(txCtx, optionID, description); err != nil {
			return fmt.Errorf("update ticket option: %w", err)
		}
		if _, err := s.auditSvc.RecordTransition(txCtx, audit.Entry{
			RequestID:   requestID,
			ActorUserID: actor.UserID,
			Kind:        audit.KindOptionEdited,
			OldStatusID: entity.StatusPtr(status),
			NewStatusID: entity.StatusPtr(status),
			Details:     audit.Details{OptionID: optionID, Before: previous, After: description},
		}); err != nil {
			s.logger.Error("Failed to audit ticket option edit", "request_id", requestID, "option_id", optionID, "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	option.OptionDescription = description
	option.UpdatedAt = time.Now().UTC()
	return option, nil
}

func (s *ticketOptionServiceImpl) Select(ctx context.Context, cmd SelectOptionCommand) (*OptionOutcome, error) {
	if _, _, err := s.engine.Load(ctx, cmd.RequestID); err != nil {
		return nil, requestNotFound(err, cmd.RequestID)
	}
	option, err := s.Get(ctx, cmd.RequestID, cmd.OptionID)
	if err != nil {
		return nil, err
	}
	actor, err := s.actors.resolve(ctx, cmd.Actor)
	if err != nil {
		return nil, err
	}

	kind := audit.KindOptionSelected
	if cmd.ViaEmailLink {
		kind = audit.KindTicketSelected
	}

	result, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: cmd.RequestID,
		Trigger:   domainwf.TriggerSelectOption,
		Actor:     actor,
		Facts:     domainwf.Facts{TargetOptionID: cmd.OptionID},
		Comments:  cmd.Comments,
		Kind:      kind,
		Details:   audit.Details{OptionID: cmd.OptionID, ViaEmailLink: cmd.ViaEmailLink},
		Apply: func(txCtx context.Context, req *entity.TravelRequest) error {
			if err := s.optionRepo.MarkSelected(txCtx, req.RequestID, cmd.OptionID); err != nil {
				return fmt.Errorf("mark ticket option selected: %w", err)
			}
			selected := cmd.OptionID
			if err := s.requestRepo.SetSelectedOption(txCtx, req.RequestID, &selected); err != nil {
				return fmt.Errorf("set selected ticket option: %w", err)
			}
			req.SelectedTicketOptionID = &selected
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	option.IsSelected = true
	outcome := &OptionOutcome{Option: option, Request: result.Request}
	switch {
	case result.Decision.IsNoOp():
		outcome.NoOp = true
		outcome.Message = result.Decision.Message
	case cmd.ViaEmailLink:
		outcome.Message = fmt.Sprintf("Ticket option for Request %s selected.", cmd.RequestID)
	default:
		outcome.Message = fmt.Sprintf("Option %d selected successfully.", cmd.OptionID)
	}
	return outcome, nil
}

func (s *ticketOptionServiceImpl) Delete(ctx context.Context, requestID string, optionID int64, actorRef ActorRef) (*OptionOutcome, error) {
	if _, _, err := s.engine.Load(ctx, requestID); err != nil {
		return nil, requestNotFound(err, requestID)
	}
	option, err := s.Get(ctx, requestID, optionID)
	if err != nil {
		return nil, err
	}
	count, err := s.optionRepo.CountByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("count ticket options: %w", err)
	}
	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	var comments string
	if option.IsSelected {
		comments = "This was the previously selected option."
	}

	result, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: requestID,
		Trigger:   domainwf.TriggerDeleteOption,
		Actor:     actor,
		Facts:     domainwf.Facts{TargetOptionID: optionID, RemainingOptions: count - 1},
		Details:   audit.Details{OptionID: optionID},
		Before: []audit.Entry{{
			Kind:     audit.KindOptionDeleted,
			Comments: comments,
			Details:  audit.Details{OptionID: optionID, Before: option.OptionDescription},
		}},
		Audit:   appwf.AuditOnStatusChange,
		Publish: event.TypeOptionsRemoved,
		Apply: func(txCtx context.Context, req *entity.TravelRequest) error {
			if err := s.optionRepo.Delete(txCtx, optionID); err != nil {
				return fmt.Errorf("delete ticket option: %w", err)
			}
			if req.SelectedTicketOptionID != nil && *req.SelectedTicketOptionID == optionID {
				if err := s.requestRepo.SetSelectedOption(txCtx, req.RequestID, nil); err != nil {
					return fmt.Errorf("clear selected ticket option: %w", err)
				}
				req.SelectedTicketOptionID = nil
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &OptionOutcome{
		Message: fmt.Sprintf("Ticket option %d deleted successfully.", optionID),
		Option:  option,
		Request: result.Request,
	}, nil
}

func (s *ticketOptionServiceImpl) DeleteAll(ctx context.Context, requestID string, actorRef ActorRef) (*OptionOutcome, error) {
	if _, _, err := s.engine.Load(ctx, requestID); err != nil {
		return nil, requestNotFound(err, requestID)
	}
	options, err := s.optionRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list ticket options: %w", err)
	}
	if len(options) == 0 {
		return &OptionOutcome{
			NoOp:    true,
			Message: fmt.Sprintf("No ticket options found to delete for request '%s'.", requestID),
		}, nil
	}
	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	var removed int64
	result, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: requestID,
		Trigger:   domainwf.TriggerDeleteAllOptions,
		Actor:     actor,
		Audit:     appwf.AuditOnStatusChange,
		Publish:   event.TypeOptionsRemoved,
		Apply: func(txCtx context.Context, req *entity.TravelRequest) error {
			n, err := s.optionRepo.DeleteByRequest(txCtx, req.RequestID)
			if err != nil {
				return fmt.Errorf("delete ticket options: %w", err)
			}
			removed = n
			if req.SelectedTicketOptionID != nil {
				if err := s.requestRepo.SetSelectedOption(txCtx, req.RequestID, nil); err != nil {
					return fmt.Errorf("clear selected ticket option: %w", err)
				}
				req.SelectedTicketOptionID = nil
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ticket options deleted", "request_id", requestID, "count", removed)
	return &OptionOutcome{
		Message: fmt.Sprintf("All %d ticket options for request '%s' deleted successfully.", removed, requestID),
		Request: result.Request,
	}, nil
}

// requestNotFound rewords the engine's not-found error for the JSON API
func requestNotFound(err error, requestID string) error {
	if isNotFound(err) {
		return apperr.NotFound("Travel request with ID '%s' not found.", requestID)
	}
	return err
}
