package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Notification outcomes reported to the recorder
const (
	OutcomeSent      = "sent"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeUnhandled = "unhandled"
)

// NotificationService emails the parties of a request after a recorded transition
type NotificationService interface {
	// Handle is the dispatcher entry point for request events
	Handle(ctx context.Context, evt *event.Event) error

	// Notify sends the emails for one audit entry, branching on its new status
	Notify(ctx context.Context, log *entity.AuditLog) error
}

type notificationServiceImpl struct {
	requestRepo port.TravelRequestRepository
	userRepo    port.UserRepository
	projectRepo port.ProjectRepository
	optionRepo  port.TicketOptionRepository
	renderer    port.EmailRenderer
	sender      port.EmailSender
	recorder    port.NotificationRecorder
	baseURL     string
	logger      Logger
}

// NewNotificationService creates a new NotificationService. recorder may be nil.
func NewNotificationService(
	requestRepo port.TravelRequestRepository,
	userRepo port.UserRepository,
	projectRepo port.ProjectRepository,
	optionRepo port.TicketOptionRepository,
	renderer port.EmailRenderer,
	sender port.EmailSender,
	recorder port.NotificationRecorder,
	actionBaseURL string,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		optionRepo:  optionRepo,
		renderer:    renderer,
		sender:      sender,
		recorder:    recorder,
		baseURL:     strings.TrimRight(actionBaseURL, "/"),
		logger:      logger,
	}
}

func (s *notificationServiceImpl) Handle(ctx context.Context, evt *event.Event) error {
	if !evt.Type.Notifies() {
		return nil
	}
	log := evt.AuditLog()
	if log == nil {
		s.logger.Warn("Event carries no audit log, skipping notification",
			"event_id", evt.ID,
			"request_id", evt.RequestID,
		)
		return nil
	}
	return s.Notify(ctx, log)
}

// notification holds everything resolved once per audit entry
type notification struct {
	log       *entity.AuditLog
	request   *entity.TravelRequest
	requester *entity.User
	project   *entity.Project
	admins    []*entity.User
	manager   string
	duHead    string
}

func (s *notificationServiceImpl) Notify(ctx context.Context, log *entity.AuditLog) error {
	s.logger.Info("Processing audit log for notification",
		"log_id", log.LogID,
		"request_id", log.RequestID,
		"action_type", log.ActionType,
		"new_status_id", log.NewStatus(),
	)

	n, err := s.resolve(ctx, log)
	if err != nil {
		s.record(log.NewStatus(), OutcomeSkipped)
		return err
	}

	switch domainwf.State(log.NewStatus()) {
	case domainwf.StatePendingReview:
		s.requestSubmitted(ctx, n)
	case domainwf.StateVerified:
		s.managerApproved(ctx, n)
	case domainwf.StateDuApproved:
		s.duHeadApproved(ctx, n)
	case domainwf.StateOptionsListed:
		s.optionsListed(ctx, n)
	case domainwf.StateOptionSelected:
		s.ticketBooked(ctx, n)
	case domainwf.StateRejected:
		s.requestRejected(ctx, n)
	case domainwf.StateCancelled:
		s.requestCancelled(ctx, n)
	default:
		s.logger.Warn("Unhandled status for notification",
			"new_status_id", log.NewStatus(),
			"request_id", log.RequestID,
			"action_type", log.ActionType,
		)
		s.record(log.NewStatus(), OutcomeUnhandled)
	}

	return nil
}

func (s *notificationServiceImpl) resolve(ctx context.Context, log *entity.AuditLog) (*notification, error) {
	req, err := s.requestRepo.GetByID(ctx, log.RequestID)
	if err != nil {
		return nil, fmt.Errorf("get travel request: %w", err)
	}
	if req == nil {
		s.logger.Error("Travel request not found for audit log", "log_id", log.LogID, "request_id", log.RequestID)
		return nil, fmt.Errorf("travel request %s not found", log.RequestID)
	}

	requester, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}
	if requester == nil || strings.TrimSpace(requester.EmployeeEmail) == "" {
		s.logger.Error("Requester or email missing", "request_id", req.RequestID)
		return nil, fmt.Errorf("requester of %s has no email", req.RequestID)
	}

	project, err := s.projectRepo.GetByCode(ctx, req.ProjectCode)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		s.logger.Error("Project not found for notification", "project_code", req.ProjectCode, "request_id", req.RequestID)
		return nil, fmt.Errorf("project %s not found", req.ProjectCode)
	}

	admins, err := s.userRepo.ListActiveByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	return &notification{
		log:       log,
		request:   req,
		requester: requester,
		project:   project,
		admins:    admins,
		manager:   strings.TrimSpace(project.ProjectManagerEmail),
		duHead:    strings.TrimSpace(project.DuHeadEmail),
	}, nil
}

func (s *notificationServiceImpl) requestSubmitted(ctx context.Context, n *notification) {
	id := n.request.RequestID
	s.send(ctx, n, port.TemplateRequestSubmitted, s.data(n, n.requester.EmployeeName), n.requester.EmployeeEmail)

	if n.manager != "" {
		data := s.data(n, s.salutation(ctx, n.manager, n.project.ProjectManager, "Manager"))
		data.ApproveURL = s.actionURL("manager-approve", id, n.manager, 0)
		data.RejectURL = s.actionURL("manager-reject", id, n.manager, 0)
		s.send(ctx, n, port.TemplateManagerApproval, data, n.manager)
	} else {
		s.logger.Warn("Manager email missing, cannot send approval request", "request_id", id)
	}

	pending := fmt.Sprintf("New travel request %s by %s (Project: %s) is pending manager approval.",
		id, n.requester.EmployeeName, n.project.ProjectName)
	if n.duHead != "" {
		data := s.data(n, s.salutation(ctx, n.duHead, n.project.DuHeadName, "DU Head"))
		data.Message = pending
		s.send(ctx, n, port.TemplateGeneral, data, n.duHead)
	}
	s.sendToAdmins(ctx, n, port.TemplateGeneral, pending, "")
}

func (s *notificationServiceImpl) managerApproved(ctx context.Context, n *notification) {
	id := n.request.RequestID

	data := s.data(n, n.requester.EmployeeName)
	data.Message = fmt.Sprintf("Your request %s was approved by manager. Pending DU Head approval.", id)
	s.send(ctx, n, port.TemplateGeneral, data, n.requester.EmployeeEmail)

	if n.duHead != "" {
		data := s.data(n, s.salutation(ctx, n.duHead, n.project.DuHeadName, "DU Head"))
		data.ApproveURL = s.actionURL("duhead-approve", id, n.duHead, 0)
		data.RejectURL = s.actionURL("duhead-reject", id, n.duHead, 0)
		s.send(ctx, n, port.TemplateDuHeadApproval, data, n.duHead)
	} else {
		s.logger.Warn("DU Head email missing after manager approval", "request_id", id)
	}

	s.sendToAdmins(ctx, n, port.TemplateGeneral, fmt.Sprintf("Request %s approved by manager. Pending DU Head approval.", id), "")
}

func (s *notificationServiceImpl) duHeadApproved(ctx context.Context, n *notification) {
	id := n.request.RequestID
	s.send(ctx, n, port.TemplateRequestApproved, s.data(n, n.requester.EmployeeName), n.requester.EmployeeEmail)

	if n.manager != "" {
		data := s.data(n, s.salutation(ctx, n.manager, n.project.ProjectManager, "Manager"))
		data.Message = fmt.Sprintf("Request %s for %s was approved by DU Head. Admin will provide ticket options.", id, n.requester.EmployeeName)
		s.send(ctx, n, port.TemplateGeneral, data, n.manager)
	}

	s.sendToAdmins(ctx, n, port.TemplateProvideOptions, "", "")
}

func (s *notificationServiceImpl) optionsListed(ctx context.Context, n *notification) {
	id := n.request.RequestID
	if n.manager == "" {
		s.logger.Warn("Manager email missing, cannot send ticket options", "request_id", id)
		s.record(n.log.NewStatus(), OutcomeSkipped)
		return
	}

	options, err := s.optionRepo.ListByRequest(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list ticket options for notification", "request_id", id, "error", err)
		s.record(n.log.NewStatus(), OutcomeFailed)
		return
	}

	data := s.data(n, s.salutation(ctx, n.manager, n.project.ProjectManager, "Manager"))
	sort.SliceStable(options, func(i, j int) bool { return options[i].CreatedAt.Before(options[j].CreatedAt) })
	for _, option := range options {
		if option.IsSelected {
			continue
		}
		data.Options = append(data.Options, port.EmailOptionLink{
			Description: option.OptionDescription,
			SelectURL:   s.actionURL("select-ticket", id, n.manager, option.OptionID),
		})
	}
	if len(data.Options) == 0 {
		s.logger.Warn("No ticket options to send", "request_id", id)
		s.record(n.log.NewStatus(), OutcomeSkipped)
		return
	}

	s.send(ctx, n, port.TemplateTicketOptions, data, n.manager)
}

func (s *notificationServiceImpl) ticketBooked(ctx context.Context, n *notification) {
	selected := "N/A"
	if n.request.SelectedTicketOptionID != nil {
		option, err := s.optionRepo.GetByID(ctx, *n.request.SelectedTicketOptionID)
		if err != nil {
			s.logger.Warn("Failed to load selected ticket option", "request_id", n.request.RequestID, "error", err)
		} else if option != nil {
			selected = option.OptionDescription
		}
	}

	data := s.data(n, n.requester.EmployeeName)
	data.SelectedOption = selected
	s.send(ctx, n, port.TemplateTicketBooked, data, n.requester.EmployeeEmail)

	if n.manager != "" {
		data := s.data(n, s.salutation(ctx, n.manager, n.project.ProjectManager, "Manager"))
		data.SelectedOption = selected
		s.send(ctx, n, port.TemplateTicketBooked, data, n.manager)
	}
	if n.duHead != "" {
		data := s.data(n, s.salutation(ctx, n.duHead, n.project.DuHeadName, "DU Head"))
		data.SelectedOption = selected
		s.send(ctx, n, port.TemplateTicketBooked, data, n.duHead)
	}

	emails := s.adminEmails(n, "")
	if len(emails) > 0 {
		data := s.data(n, "Team")
		data.SelectedOption = selected
		s.send(ctx, n, port.TemplateTicketBooked, data, emails...)
	}
}

func (s *notificationServiceImpl) requestRejected(ctx context.Context, n *notification) {
	kind := audit.Kind(n.log.ActionType)
	rejectedBy := kind.Rejector()
	var excluded string
	switch kind {
	case audit.KindManagerRejected:
		excluded = n.manager
	case audit.KindDuHeadRejected:
		excluded = n.duHead
	default:
		rejectedBy = "Unknown"
		s.logger.Warn("Rejected status with unhandled action type", "request_id", n.request.RequestID, "action_type", n.log.ActionType)
	}

	rejection := func(salutation string) port.EmailData {
		data := s.data(n, salutation)
		data.RejectedBy = rejectedBy
		data.Comments = n.log.Comments
		return data
	}

	s.send(ctx, n, port.TemplateRequestRejected, rejection(n.requester.EmployeeName), n.requester.EmployeeEmail)
	if n.manager != "" && !entity.SameEmail(n.manager, excluded) {
		s.send(ctx, n, port.TemplateRequestRejected, rejection(s.salutation(ctx, n.manager, n.project.ProjectManager, "Manager")), n.manager)
	}
	if n.duHead != "" && !entity.SameEmail(n.duHead, excluded) {
		s.send(ctx, n, port.TemplateRequestRejected, rejection(s.salutation(ctx, n.duHead, n.project.DuHeadName, "DU Head")), n.duHead)
	}
	if emails := s.adminEmails(n, excluded); len(emails) > 0 {
		s.send(ctx, n, port.TemplateRequestRejected, rejection("Team"), emails...)
	}
}

func (s *notificationServiceImpl) requestCancelled(ctx context.Context, n *notification) {
	cancelledBy := "System"
	if n.log.UserID > 0 {
		if actor, err := s.userRepo.GetByID(ctx, n.log.UserID); err == nil && actor != nil {
			cancelledBy = actor.EmployeeName
		}
	}

	candidates := []string{n.requester.EmployeeEmail, n.manager, n.duHead}
	for _, admin := range n.admins {
		candidates = append(candidates, admin.EmployeeEmail)
	}
	recipients := dedupEmails(candidates, "")
	if len(recipients) == 0 {
		return
	}

	data := s.data(n, "Team")
	data.Message = fmt.Sprintf("Travel request %s has been cancelled by %s.", n.request.RequestID, cancelledBy)
	s.send(ctx, n, port.TemplateGeneral, data, recipients...)
}

func (s *notificationServiceImpl) sendToAdmins(ctx context.Context, n *notification, tmpl port.EmailTemplate, message, excluded string) {
	emails := s.adminEmails(n, excluded)
	if len(emails) == 0 {
		s.logger.Info("No active admin users to notify", "request_id", n.request.RequestID)
		return
	}
	data := s.data(n, "Team")
	data.Message = message
	s.send(ctx, n, tmpl, data, emails...)
}

func (s *notificationServiceImpl) adminEmails(n *notification, excluded string) []string {
	emails := make([]string, 0, len(n.admins))
	for _, admin := range n.admins {
		emails = append(emails, admin.EmployeeEmail)
	}
	return dedupEmails(emails, excluded)
}

// dedupEmails drops blanks, the excluded address and case-insensitive repeats
func dedupEmails(emails []string, excluded string) []string {
	seen := make(map[string]bool, len(emails))
	var out []string
	for _, email := range emails {
		email = strings.TrimSpace(email)
		key := strings.ToLower(email)
		if email == "" || seen[key] || entity.SameEmail(email, excluded) {
			continue
		}
		seen[key] = true
		out = append(out, email)
	}
	return out
}

// salutation prefers the active user's name, then the project record, then a role default
func (s *notificationServiceImpl) salutation(ctx context.Context, email, projectName, fallback string) string {
	if user, err := s.userRepo.GetByEmail(ctx, email); err == nil && user != nil && user.IsActive && strings.TrimSpace(user.EmployeeName) != "" {
		return user.EmployeeName
	}
	if strings.TrimSpace(projectName) != "" {
		return projectName
	}
	return fallback
}

func (s *notificationServiceImpl) data(n *notification, salutation string) port.EmailData {
	return port.EmailData{
		Salutation:    salutation,
		RequestID:     n.request.RequestID,
		RequesterName: n.requester.EmployeeName,
		ProjectName:   n.project.ProjectName,
		Destination:   n.request.DestinationPlace,
		Purpose:       n.request.PurposeOfTravel,
	}
}

// actionURL links to the confirmation page, which calls the email action endpoint
func (s *notificationServiceImpl) actionURL(action, requestID, actorEmail string, optionID int64) string {
	link := fmt.Sprintf("%s/confirm-action.html?action=%s&requestId=%s&intendedActor=%s",
		s.baseURL, action, url.QueryEscape(requestID), url.QueryEscape(actorEmail))
	if optionID > 0 {
		link += fmt.Sprintf("&optionId=%d", optionID)
	}
	return link
}

// send delivers one message per address so a refused recipient does not
// cost the others their copy
func (s *notificationServiceImpl) send(ctx context.Context, n *notification, tmpl port.EmailTemplate, data port.EmailData, to ...string) {
	for _, addr := range to {
		s.sendOne(ctx, n, tmpl, data, addr)
	}
}

func (s *notificationServiceImpl) sendOne(ctx context.Context, n *notification, tmpl port.EmailTemplate, data port.EmailData, to string) {
	statusID := n.log.NewStatus()

	subject, body, err := s.renderer.Render(tmpl, data)
	if err != nil {
		s.logger.Error("Failed to render email", "template", tmpl, "request_id", n.request.RequestID, "error", err)
		s.record(statusID, OutcomeFailed)
		return
	}

	if err := s.sender.Send(ctx, port.EmailMessage{To: []string{to}, Subject: subject, HTMLBody: body}); err != nil {
		s.logger.Error("Failed to send email",
			"template", tmpl,
			"request_id", n.request.RequestID,
			"recipient", to,
			"error", err,
		)
		s.record(statusID, OutcomeFailed)
		return
	}

	s.logger.Info("Notification email sent",
		"template", tmpl,
		"request_id", n.request.RequestID,
		"recipient", to,
	)
	s.record(statusID, OutcomeSent)
}

func (s *notificationServiceImpl) record(statusID int, outcome string) {
	if s.recorder != nil {
		s.recorder.NotificationSent(statusID, outcome)
	}
}
