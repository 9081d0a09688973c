package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// MaxTicketDocumentSize bounds an uploaded ticket document
const MaxTicketDocumentSize = 10 << 20

// ticketDocumentTypes maps accepted extensions to the content type the bytes must carry
var ticketDocumentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// TicketDocument is a stored ticket file ready to be served
type TicketDocument struct {
	Name        string
	ContentType string
	Content     []byte
}

// TicketDocumentService stores the booked ticket file an admin attaches to a
// request. The returned path is what UploadTicket records.
type TicketDocumentService interface {
	Store(ctx context.Context, requestID string, actor ActorRef, filename string, content []byte) (string, error)
	Fetch(ctx context.Context, requestID string, actor ActorRef) (*TicketDocument, error)
}

type ticketDocumentServiceImpl struct {
	requestRepo port.TravelRequestRepository
	store       port.DocumentStore
	actors      actorResolver
	logger      Logger
}

// NewTicketDocumentService creates a new TicketDocumentService
func NewTicketDocumentService(
	requestRepo port.TravelRequestRepository,
	userRepo port.UserRepository,
	store port.DocumentStore,
	logger Logger,
) TicketDocumentService {
	return &ticketDocumentServiceImpl{
		requestRepo: requestRepo,
		store:       store,
		actors:      actorResolver{userRepo: userRepo},
		logger:      logger,
	}
}

func (s *ticketDocumentServiceImpl) Store(ctx context.Context, requestID string, actorRef ActorRef, filename string, content []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	want, ok := ticketDocumentTypes[ext]
	if !ok {
		return "", apperr.Validation("Ticket document must be a PDF, PNG or JPEG file.")
	}
	if len(content) == 0 {
		return "", apperr.Validation("Ticket document is empty.")
	}
	if len(content) > MaxTicketDocumentSize {
		return "", apperr.Validation("Ticket document exceeds the %d MB limit.", MaxTicketDocumentSize>>20)
	}
	if detected := mimetype.Detect(content); !detected.Is(want) {
		return "", apperr.Validation("Ticket document content (%s) does not match its %s extension.", detected.String(), ext)
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("get travel request %s: %w", requestID, err)
	}
	if req == nil {
		return "", apperr.NotFound("Travel request with ID %s not found.", requestID)
	}

	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return "", err
	}
	if actor == nil || !actor.Active {
		return "", apperr.Unprocessable(domainwf.UnresolvedActorMessage)
	}
	if !actor.IsAdmin() {
		return "", apperr.Forbidden("User %s is not authorized to attach ticket documents.", actor.Name)
	}

	status := domainwf.State(req.CurrentStatusID)
	if status == domainwf.StateCancelled || status == domainwf.StateRejected {
		return "", apperr.Conflict("Ticket documents cannot be attached to a request in status '%s'.", status)
	}

	stored, err := s.store.Save(ctx, requestID, filename, content)
	if err != nil {
		return "", fmt.Errorf("store ticket document: %w", err)
	}

	s.logger.Info("Ticket document stored",
		"request_id", requestID,
		"path", stored,
		"size", len(content),
		"actor", actor.Email)

	return stored, nil
}

func (s *ticketDocumentServiceImpl) Fetch(ctx context.Context, requestID string, actorRef ActorRef) (*TicketDocument, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get travel request %s: %w", requestID, err)
	}
	if req == nil {
		return nil, apperr.NotFound("Travel request with ID %s not found.", requestID)
	}

	actor, err := s.actors.resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}
	if actor == nil || !actor.Active {
		return nil, apperr.Unprocessable(domainwf.UnresolvedActorMessage)
	}
	if actor.UserID != req.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("User %s does not own travel request %s.", actor.Name, requestID)
	}

	if req.TicketDocumentPath == "" {
		return nil, apperr.NotFound("No ticket document has been uploaded for request %s.", requestID)
	}

	content, err := s.store.Read(ctx, req.TicketDocumentPath)
	if errors.Is(err, port.ErrDocumentNotFound) {
		return nil, apperr.NotFound("Ticket document for request %s is no longer available.", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("read ticket document: %w", err)
	}

	return &TicketDocument{
		Name:        path.Base(req.TicketDocumentPath),
		ContentType: mimetype.Detect(content).String(),
		Content:     content,
	}, nil
}
