package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/travel-approval/internal/application/port"
	appwf "github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Channel identifies the entry point an approval arrived through
type Channel int

const (
	// ChannelAPI is the authenticated JSON API
	ChannelAPI Channel = iota

	// ChannelEmailLink is a link clicked from a notification email
	ChannelEmailLink
)

// Page titles shown on email-link result pages
const (
	TitleSuccess       = "Action Successful"
	TitleNotApplicable = "Action Not Applicable"
	TitleConfigError   = "Configuration Error"
)

// ApprovalCommand is one approver decision
type ApprovalCommand struct {
	RequestID string
	Trigger   domainwf.Trigger
	Actor     ActorRef
	Comments  string
	Channel   Channel
}

// ApprovalOutcome describes what an approval did
type ApprovalOutcome struct {
	Applied  bool
	Title    string
	Message  string
	Request  *entity.TravelRequest
	AuditLog *entity.AuditLog
}

// ApprovalService applies manager and DU head decisions and ticket picks
// arriving from either the API or an email link.
type ApprovalService interface {
	Decide(ctx context.Context, cmd ApprovalCommand) (*ApprovalOutcome, error)
	SelectOptionByLink(ctx context.Context, requestID string, optionID int64, actorEmail string) (*ApprovalOutcome, error)
}

type approvalServiceImpl struct {
	engine  appwf.Engine
	options TicketOptionService
	actors  actorResolver
	logger  Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(engine appwf.Engine, options TicketOptionService, userRepo port.UserRepository, logger Logger) ApprovalService {
	return &approvalServiceImpl{
		engine:  engine,
		options: options,
		actors:  actorResolver{userRepo: userRepo},
		logger:  logger,
	}
}

var approvalTriggers = map[domainwf.Trigger]struct {
	verb string
	role string
}{
	domainwf.TriggerManagerApprove: {"approved", "Manager"},
	domainwf.TriggerManagerReject:  {"rejected", "Manager"},
	domainwf.TriggerDuHeadApprove:  {"approved", "DU Head"},
	domainwf.TriggerDuHeadReject:   {"rejected", "DU Head"},
}

func (s *approvalServiceImpl) Decide(ctx context.Context, cmd ApprovalCommand) (*ApprovalOutcome, error) {
	wording, ok := approvalTriggers[cmd.Trigger]
	if !ok {
		return nil, apperr.Validation("Unsupported approval action '%s'.", cmd.Trigger)
	}
	if cmd.RequestID == "" || (cmd.Channel == ChannelEmailLink && cmd.Actor.IsZero()) {
		return nil, apperr.Validation("Invalid action link: Required information is missing.").WithTitle("Error")
	}

	actor, err := s.actors.resolve(ctx, cmd.Actor)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: cmd.RequestID,
		Trigger:   cmd.Trigger,
		Actor:     actor,
		Comments:  cmd.Comments,
		Details:   audit.Details{ViaEmailLink: cmd.Channel == ChannelEmailLink},
	})
	if err != nil {
		return nil, s.channelError(cmd.Channel, cmd.RequestID, err)
	}

	outcome := &ApprovalOutcome{
		Request:  result.Request,
		AuditLog: result.AuditLog,
	}
	if result.Decision.IsNoOp() {
		outcome.Title = TitleNotApplicable
		outcome.Message = result.Decision.Message
		return outcome, nil
	}

	outcome.Applied = true
	outcome.Title = TitleSuccess
	outcome.Message = fmt.Sprintf("Travel Request %s %s by you (%s).", cmd.RequestID, wording.verb, wording.role)

	s.logger.Info("Approval decision applied",
		"request_id", cmd.RequestID,
		"trigger", cmd.Trigger,
		"channel", cmd.Channel,
	)

	return outcome, nil
}

func (s *approvalServiceImpl) SelectOptionByLink(ctx context.Context, requestID string, optionID int64, actorEmail string) (*ApprovalOutcome, error) {
	if requestID == "" || optionID <= 0 || actorEmail == "" {
		return nil, apperr.Validation("Invalid action link: Missing information.").WithTitle("Error")
	}

	result, err := s.options.Select(ctx, SelectOptionCommand{
		RequestID:    requestID,
		OptionID:     optionID,
		Actor:        ActorRef{Email: actorEmail},
		ViaEmailLink: true,
	})
	if err != nil {
		return nil, s.channelError(ChannelEmailLink, requestID, err)
	}

	outcome := &ApprovalOutcome{
		Applied: !result.NoOp,
		Title:   TitleSuccess,
		Message: result.Message,
		Request: result.Request,
	}
	if result.NoOp {
		outcome.Title = TitleNotApplicable
	}
	return outcome, nil
}

// channelError rewords engine failures for the channel that raised them
func (s *approvalServiceImpl) channelError(channel Channel, requestID string, err error) error {
	var missing *appwf.ProjectMissingError
	if errors.As(err, &missing) {
		s.logger.Error("Project configuration missing", "request_id", requestID, "project_code", missing.ProjectCode)
		if channel == ChannelEmailLink {
			return apperr.Unprocessable("Project configuration details could not be found. Unable to verify approver.").WithTitle(TitleConfigError)
		}
		return apperr.Internal("Configuration error: Project details for %s not found.", missing.ProjectCode)
	}

	if channel == ChannelAPI {
		return requestNotFound(err, requestID)
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && errors.Is(err, apperr.ErrConflict) {
		return appErr.WithTitle(TitleNotApplicable)
	}
	return err
}
