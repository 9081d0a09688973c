package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	appwf "github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

const (
	requestIDAttempts  = 5
	feedbackCommentMax = 200
	timelineDateLayout = "02-01-2006 15:04"
	diffDateLayout     = "2006-01-02 15:04"
)

// TripDetails are the requester-editable fields of a travel request
type TripDetails struct {
	TravelModeID            int
	IsInternational         bool
	IsRoundTrip             bool
	ProjectCode             string
	SourcePlace             string
	SourceCountry           string
	DestinationPlace        string
	DestinationCountry      string
	OutboundDepartureDate   time.Time
	OutboundArrivalDate     *time.Time
	ReturnDepartureDate     *time.Time
	ReturnArrivalDate       *time.Time
	IsAccommodationRequired bool
	IsDropOffRequired       bool
	DropOffPlace            string
	IsPickUpRequired        bool
	PickUpPlace             string
	Comments                string
	PurposeOfTravel         string
	IsVegetarian            bool
	FoodComment             string
	AttendedCCT             bool
}

// TimelineEvent is one audit entry rendered for display
type TimelineEvent struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
}

// Timeline is the chronological history of a request
type Timeline struct {
	Status         string          `json:"status"`
	RequestDate    string          `json:"requestDate"`
	TravelerName   string          `json:"travelerName"`
	TimelineEvents []TimelineEvent `json:"timelineEvents"`
}

// TravelRequestService manages the requester side of the lifecycle
type TravelRequestService interface {
	Create(ctx context.Context, userID int64, details TripDetails) (*entity.TravelRequest, error)
	Get(ctx context.Context, requestID string) (*entity.TravelRequest, error)
	ListMine(ctx context.Context, userID int64) ([]*entity.TravelRequest, error)
	EditAndResubmit(ctx context.Context, requestID string, actor ActorRef, details TripDetails) (*entity.TravelRequest, error)
	Cancel(ctx context.Context, requestID string, actor ActorRef) (*ApprovalOutcome, error)
	SubmitFeedback(ctx context.Context, requestID string, actor ActorRef, feedback string) (*entity.TravelRequest, error)
	UploadTicket(ctx context.Context, requestID string, actor ActorRef, details entity.TicketDetails) (*entity.TravelRequest, error)
	Timeline(ctx context.Context, requestID string) (*Timeline, error)
}

// RequestIDGenerator returns the random suffix of a new request id
type RequestIDGenerator func() string

// TravelRequestOption configures the travel request service
type TravelRequestOption func(*travelRequestServiceImpl)

// WithRequestIDGenerator replaces the random six digit suffix source
func WithRequestIDGenerator(gen RequestIDGenerator) TravelRequestOption {
	return func(s *travelRequestServiceImpl) {
		s.sequence = gen
	}
}

const resubmitAttempts = 3

type travelRequestServiceImpl struct {
	engine      appwf.Engine
	requestRepo port.TravelRequestRepository
	projectRepo port.ProjectRepository
	userRepo    port.UserRepository
	airlineRepo port.AirlineRepository
	txManager   port.TransactionManager
	auditSvc    AuditService
	dispatcher  dispatcher.Dispatcher
	actors      actorResolver
	sequence    RequestIDGenerator
	logger      Logger
}

// NewTravelRequestService creates a new TravelRequestService
func NewTravelRequestService(
	engine appwf.Engine,
	requestRepo port.TravelRequestRepository,
	projectRepo port.ProjectRepository,
	userRepo port.UserRepository,
	airlineRepo port.AirlineRepository,
	txManager port.TransactionManager,
	auditSvc AuditService,
	disp dispatcher.Dispatcher,
	logger Logger,
	opts ...TravelRequestOption,
) TravelRequestService {
	s := &travelRequestServiceImpl{
		engine:      engine,
		requestRepo: requestRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		airlineRepo: airlineRepo,
		txManager:   txManager,
		auditSvc:    auditSvc,
		dispatcher:  disp,
		actors:      actorResolver{userRepo: userRepo},
		sequence:    randomDigits,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func randomDigits() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

// NewRequestID composes the scope digit, mode letter, trip digit and suffix
func NewRequestID(international bool, travelModeID int, roundTrip bool, suffix string) string {
	return boolDigit(international) + entity.TravelModeCode(travelModeID) + boolDigit(roundTrip) + suffix
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (s *travelRequestServiceImpl) Create(ctx context.Context, userID int64, details TripDetails) (*entity.TravelRequest, error) {
	details = normalizeTrip(details)
	if err := validateTrip(details); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperr.Unprocessable(domainwf.UnresolvedActorMessage)
	}
	if err := s.requireProject(ctx, details.ProjectCode); err != nil {
		return nil, err
	}

	requestID, err := s.newRequestID(ctx, details)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &entity.TravelRequest{
		RequestID:       requestID,
		UserID:          userID,
		CurrentStatusID: domainwf.StatePendingReview.ID(),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	applyTrip(req, details)

	var log *entity.AuditLog
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create travel request: %w", err)
		}
		var auditErr error
		log, auditErr = s.auditSvc.RecordTransition(txCtx, audit.Entry{
			RequestID:   requestID,
			ActorUserID: userID,
			Kind:        audit.KindRequestCreated,
			NewStatusID: entity.StatusPtr(req.CurrentStatusID),
		})
		if auditErr != nil {
			s.logger.Error("Failed to audit request creation", "request_id", requestID, "error", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Travel request created", "request_id", requestID, "user_id", userID)

	if s.dispatcher != nil {
		evt := event.NewEventWithCorrelation(event.TypeRequestCreated, requestID, map[string]interface{}{
			event.KeyNewStatus:   req.CurrentStatusID,
			event.KeyActorUserID: userID,
		}, event.CorrelationIDFrom(ctx))
		if log != nil {
			evt = evt.WithAuditLog(log)
		}
		s.dispatcher.DispatchAsync(ctx, evt)
	}

	return req, nil
}

func (s *travelRequestServiceImpl) newRequestID(ctx context.Context, details TripDetails) (string, error) {
	for attempt := 0; attempt < requestIDAttempts; attempt++ {
		id := NewRequestID(details.IsInternational, details.TravelModeID, details.IsRoundTrip, s.sequence())
		exists, err := s.requestRepo.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check request id: %w", err)
		}
		if !exists {
			return id, nil
		}
		s.logger.Warn("Request id collision, retrying", "request_id", id, "attempt", attempt+1)
	}
	return "", apperr.Internal("Could not allocate a unique travel request id. Please try again.")
}

func (s *travelRequestServiceImpl) requireProject(ctx context.Context, code string) error {
	project, err := s.projectRepo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return apperr.Validation("Project '%s' not found.", code)
	}
	return nil
}

func (s *travelRequestServiceImpl) Get(ctx context.Context, requestID string) (*entity.TravelRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, apperr.Validation("Travel Request ID cannot be empty.")
	}
	req, _, err := s.engine.Load(ctx, requestID)
	if err != nil {
		return nil, requestNotFound(err, requestID)
	}
	return req, nil
}

func (s *travelRequestServiceImpl) ListMine(ctx context.Context, userID int64) ([]*entity.TravelRequest, error) {
	if userID <= 0 {
		return nil, apperr.Validation("User ID must be a positive integer.")
	}
	requests, err := s.requestRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list travel requests: %w", err)
	}
	return requests, nil
}

func (s *travelRequestServiceImpl) EditAndResubmit(ctx context.Context, requestID string, actorRef ActorRef, details TripDetails) (*entity.TravelRequest, error) {
	current, _, err := s.engine.Load(ctx, requestID)
	if err != nil {
		return nil, requestNotFound(err, requestID)
	}

	details = normalizeTrip(details)
	changes := diffTrip(current, details)
	stranded := domainwf.State(current.CurrentStatusID) == domainwf.StateModified
	if len(changes) == 0 && !stranded {
		return nil, apperr.Validation("No changes were detected in the submitted data.")
	}
	if err := validateTrip(details); err != nil {
		return nil, err
	}
	if details.ProjectCode != current.ProjectCode {
		if err := s.requireProject(ctx, details.ProjectCode); err != nil {
			return nil, err
		}
	}

	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		if err := s.edit(ctx, requestID, actor, details, changes); err != nil {
			return nil, err
		}
	}

	result, err := s.resubmit(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Travel request modified and resubmitted", "request_id", requestID, "changes", len(changes))
	return result.Request, nil
}

func (s *travelRequestServiceImpl) edit(ctx context.Context, requestID string, actor *domainwf.Actor, details TripDetails, changes []string) error {
	_, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: requestID,
		Trigger:   domainwf.TriggerEdit,
		Actor:     actor,
		Details:   audit.Details{Changes: changes},
		Quiet:     true,
		Apply: func(txCtx context.Context, req *entity.TravelRequest) error {
			applyTrip(req, details)
			req.UpdatedAt = time.Now().UTC()
			if err := s.requestRepo.UpdateTripDetails(txCtx, req); err != nil {
				return fmt.Errorf("update trip details: %w", err)
			}
			return nil
		},
	})
	return err
}

// resubmit moves a Modified request back to review. Infrastructure failures
// are retried; one that persists leaves the request at Modified, where a
// repeated edit with the same details resubmits it.
func (s *travelRequestServiceImpl) resubmit(ctx context.Context, requestID string, actor *domainwf.Actor) (*appwf.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= resubmitAttempts; attempt++ {
		result, err := s.engine.Execute(ctx, appwf.Command{
			RequestID: requestID,
			Trigger:   domainwf.TriggerResubmit,
			Actor:     actor,
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if isDomainError(err) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("Resubmit attempt failed", "request_id", requestID, "attempt", attempt, "error", err)
	}

	s.logger.Error("Travel request left in Modified status, resubmit failed",
		"request_id", requestID,
		"status_id", int(domainwf.StateModified),
		"error", lastErr,
	)
	return nil, fmt.Errorf("resubmit modified request %s: %w", requestID, lastErr)
}

// isDomainError reports whether err is a decision rather than an outage
func isDomainError(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr)
}

func (s *travelRequestServiceImpl) Cancel(ctx context.Context, requestID string, actorRef ActorRef) (*ApprovalOutcome, error) {
	if _, _, err := s.engine.Load(ctx, requestID); err != nil {
		return nil, requestNotFound(err, requestID)
	}
	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: requestID,
		Trigger:   domainwf.TriggerCancel,
		Actor:     actor,
	})
	if err != nil {
		return nil, err
	}

	outcome := &ApprovalOutcome{Request: result.Request, AuditLog: result.AuditLog}
	if result.Decision.IsNoOp() {
		outcome.Title = TitleNotApplicable
		outcome.Message = result.Decision.Message
		return outcome, nil
	}
	outcome.Applied = true
	outcome.Title = TitleSuccess
	outcome.Message = fmt.Sprintf("Travel request %s cancelled.", requestID)
	return outcome, nil
}

func (s *travelRequestServiceImpl) SubmitFeedback(ctx context.Context, requestID string, actorRef ActorRef, feedback string) (*entity.TravelRequest, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, apperr.Validation("Feedback is required.")
	}

	req, _, err := s.engine.Load(ctx, requestID)
	if err != nil {
		return nil, requestNotFound(err, requestID)
	}
	if req.HasFeedback() {
		return nil, apperr.Conflict("Feedback has already been submitted for this travel request.")
	}
	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: requestID,
		Trigger:   domainwf.TriggerSubmitFeedback,
		Actor:     actor,
		Comments:  fmt.Sprintf("Feedback: \"%s\"", truncateRunes(feedback, feedbackCommentMax)),
		Quiet:     true,
		Apply: func(txCtx context.Context, req *entity.TravelRequest) error {
			if req.HasFeedback() {
				return apperr.Conflict("Feedback has already been submitted for this travel request.")
			}
			if err := s.requestRepo.SaveFeedback(txCtx, req.RequestID, feedback); err != nil {
				return fmt.Errorf("save feedback: %w", err)
			}
			req.TravelFeedback = feedback
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return result.Request, nil
}

func (s *travelRequestServiceImpl) UploadTicket(ctx context.Context, requestID string, actorRef ActorRef, details entity.TicketDetails) (*entity.TravelRequest, error) {
	details.TravelAgencyName = strings.TrimSpace(details.TravelAgencyName)
	if details.TravelAgencyName == "" {
		return nil, apperr.Validation("Travel agency name is required.")
	}
	if details.TravelAgencyExpense < 0 || details.TotalExpense < 0 {
		return nil, apperr.Validation("Expenses cannot be negative.")
	}
	for _, segment := range details.Airlines {
		if strings.TrimSpace(segment.Name) == "" {
			return nil, apperr.Validation("Airline name is required for every segment.")
		}
	}

	if _, _, err := s.engine.Load(ctx, requestID); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Travel request with ID %s not found.", requestID)
		}
		return nil, err
	}
	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Execute(ctx, appwf.Command{
		RequestID: requestID,
		Trigger:   domainwf.TriggerUploadTicket,
		Actor:     actor,
		Comments:  fmt.Sprintf("Agency: %s, Total: %s", details.TravelAgencyName, strconv.FormatFloat(details.TotalExpense, 'f', 2, 64)),
		Apply: func(txCtx context.Context, req *entity.TravelRequest) error {
			if err := s.requestRepo.SaveTicketDetails(txCtx, req.RequestID, &details); err != nil {
				return fmt.Errorf("save ticket details: %w", err)
			}
			if err := s.airlineRepo.ReplaceForRequest(txCtx, req.RequestID, details.Airlines); err != nil {
				return fmt.Errorf("save airline segments: %w", err)
			}
			agency, total := details.TravelAgencyExpense, details.TotalExpense
			req.TravelAgencyName = details.TravelAgencyName
			req.TravelAgencyExpense = &agency
			req.TotalExpense = &total
			req.TicketDocumentPath = details.TicketDocumentPath
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return result.Request, nil
}

func (s *travelRequestServiceImpl) Timeline(ctx context.Context, requestID string) (*Timeline, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, apperr.Validation("Travel Request ID cannot be empty.")
	}

	logs, err := s.auditSvc.ListByRequest(ctx, requestID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("No timeline data found for request ID %s.", requestID)
		}
		return nil, err
	}

	ordered := make([]*entity.AuditLog, len(logs))
	copy(ordered, logs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	timeline := &Timeline{
		Status:       domainwf.StatePendingReview.String(),
		RequestDate:  ordered[0].Timestamp.Format(timelineDateLayout),
		TravelerName: "Traveler",
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].NewStatusID != nil {
			timeline.Status = domainwf.State(*ordered[i].NewStatusID).String()
			break
		}
	}
	if req, err := s.requestRepo.GetByID(ctx, requestID); err == nil && req != nil {
		if user, err := s.userRepo.GetByID(ctx, req.UserID); err == nil && user != nil {
			timeline.TravelerName = user.EmployeeName
		}
	}

	for _, log := range ordered {
		var statusName string
		if log.NewStatusID != nil {
			statusName = domainwf.State(*log.NewStatusID).String()
		}
		date := log.ActionDate
		if date.IsZero() {
			date = log.Timestamp
		}
		description := log.ChangeDescription
		if description == "" {
			description = "No description provided."
		}
		timeline.TimelineEvents = append(timeline.TimelineEvents, TimelineEvent{
			ID:          strconv.FormatInt(log.LogID, 10),
			Type:        audit.Kind(log.ActionType).TimelineLabel(statusName),
			Date:        date.Format(timelineDateLayout),
			Description: description,
			Details:     log.Comments,
		})
	}

	return timeline, nil
}

func normalizeTrip(d TripDetails) TripDetails {
	d.ProjectCode = strings.TrimSpace(d.ProjectCode)
	d.OutboundDepartureDate = d.OutboundDepartureDate.UTC()
	d.OutboundArrivalDate = utcPtr(d.OutboundArrivalDate)
	d.ReturnDepartureDate = utcPtr(d.ReturnDepartureDate)
	d.ReturnArrivalDate = utcPtr(d.ReturnArrivalDate)
	if !d.IsRoundTrip {
		d.ReturnDepartureDate = nil
		d.ReturnArrivalDate = nil
	}
	return d
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func validateTrip(d TripDetails) error {
	var problems []string

	if !entity.IsKnownTravelMode(d.TravelModeID) {
		problems = append(problems, fmt.Sprintf("Travel mode %d is not supported.", d.TravelModeID))
	}
	if d.ProjectCode == "" {
		problems = append(problems, "Project code is required.")
	}
	if d.OutboundDepartureDate.IsZero() {
		problems = append(problems, "Outbound departure date is required.")
	}
	if d.OutboundArrivalDate != nil && !d.OutboundArrivalDate.After(d.OutboundDepartureDate) {
		problems = append(problems, "Outbound arrival date must be after outbound departure date.")
	}
	if d.IsRoundTrip {
		switch {
		case d.ReturnDepartureDate == nil:
			problems = append(problems, "Return departure date is required for a round trip.")
		default:
			if d.OutboundArrivalDate != nil && !d.ReturnDepartureDate.After(*d.OutboundArrivalDate) {
				problems = append(problems, "Return departure date must be after outbound arrival date.")
			}
			if d.ReturnArrivalDate != nil && !d.ReturnArrivalDate.After(*d.ReturnDepartureDate) {
				problems = append(problems, "Return arrival date must be after return departure date.")
			}
		}
	}
	if d.IsPickUpRequired && strings.TrimSpace(d.PickUpPlace) == "" {
		problems = append(problems, "Pick-up place is required when pick-up is requested.")
	}
	if d.IsDropOffRequired && strings.TrimSpace(d.DropOffPlace) == "" {
		problems = append(problems, "Drop-off place is required when drop-off is requested.")
	}

	if len(problems) > 0 {
		return apperr.Validation("%s", strings.Join(problems, " "))
	}
	return nil
}

func applyTrip(req *entity.TravelRequest, d TripDetails) {
	req.TravelModeID = d.TravelModeID
	req.IsInternational = d.IsInternational
	req.IsRoundTrip = d.IsRoundTrip
	req.ProjectCode = d.ProjectCode
	req.SourcePlace = d.SourcePlace
	req.SourceCountry = d.SourceCountry
	req.DestinationPlace = d.DestinationPlace
	req.DestinationCountry = d.DestinationCountry
	req.OutboundDepartureDate = d.OutboundDepartureDate
	req.OutboundArrivalDate = d.OutboundArrivalDate
	req.ReturnDepartureDate = d.ReturnDepartureDate
	req.ReturnArrivalDate = d.ReturnArrivalDate
	req.IsAccommodationRequired = d.IsAccommodationRequired
	req.IsDropOffRequired = d.IsDropOffRequired
	req.DropOffPlace = d.DropOffPlace
	req.IsPickUpRequired = d.IsPickUpRequired
	req.PickUpPlace = d.PickUpPlace
	req.Comments = d.Comments
	req.PurposeOfTravel = d.PurposeOfTravel
	req.IsVegetarian = d.IsVegetarian
	req.FoodComment = d.FoodComment
	req.AttendedCCT = d.AttendedCCT
}

// diffTrip lists one line per changed field, in a fixed field order
func diffTrip(req *entity.TravelRequest, d TripDetails) []string {
	var changes []string
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, audit.FieldChanged(field, oldValue, newValue))
		}
	}

	add("TravelModeId", strconv.Itoa(req.TravelModeID), strconv.Itoa(d.TravelModeID))
	add("IsInternational", strconv.FormatBool(req.IsInternational), strconv.FormatBool(d.IsInternational))
	add("IsRoundTrip", strconv.FormatBool(req.IsRoundTrip), strconv.FormatBool(d.IsRoundTrip))
	add("ProjectCode", req.ProjectCode, d.ProjectCode)
	add("SourcePlace", req.SourcePlace, d.SourcePlace)
	add("SourceCountry", req.SourceCountry, d.SourceCountry)
	add("DestinationPlace", req.DestinationPlace, d.DestinationPlace)
	add("DestinationCountry", req.DestinationCountry, d.DestinationCountry)
	add("OutboundDepartureDate", formatDate(&req.OutboundDepartureDate), formatDate(&d.OutboundDepartureDate))
	add("OutboundArrivalDate", formatDate(req.OutboundArrivalDate), formatDate(d.OutboundArrivalDate))
	add("ReturnDepartureDate", formatDate(req.ReturnDepartureDate), formatDate(d.ReturnDepartureDate))
	add("ReturnArrivalDate", formatDate(req.ReturnArrivalDate), formatDate(d.ReturnArrivalDate))
	add("IsAccommodationRequired", strconv.FormatBool(req.IsAccommodationRequired), strconv.FormatBool(d.IsAccommodationRequired))
	add("IsDropOffRequired", strconv.FormatBool(req.IsDropOffRequired), strconv.FormatBool(d.IsDropOffRequired))
	add("DropOffPlace", req.DropOffPlace, d.DropOffPlace)
	add("IsPickUpRequired", strconv.FormatBool(req.IsPickUpRequired), strconv.FormatBool(d.IsPickUpRequired))
	add("PickUpPlace", req.PickUpPlace, d.PickUpPlace)
	add("PurposeOfTravel", req.PurposeOfTravel, d.PurposeOfTravel)
	add("IsVegetarian", strconv.FormatBool(req.IsVegetarian), strconv.FormatBool(d.IsVegetarian))
	add("AttendedCCT", strconv.FormatBool(req.AttendedCCT), strconv.FormatBool(d.AttendedCCT))

	return changes
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(diffDateLayout)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
