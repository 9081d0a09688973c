package port

import (
	"context"
	"errors"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// EmailMessage is one outbound HTML email
type EmailMessage struct {
	To       []string
	Subject  string
	HTMLBody string
}

// EmailSender delivers email. Implementations must be safe for concurrent use.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// NotificationRecorder observes notification outcomes
type NotificationRecorder interface {
	NotificationSent(statusID int, outcome string)
}

// EmailTemplate names one notification layout
type EmailTemplate string

const (
	TemplateRequestSubmitted EmailTemplate = "request_submitted"
	TemplateManagerApproval  EmailTemplate = "manager_approval"
	TemplateDuHeadApproval   EmailTemplate = "duhead_approval"
	TemplateTicketOptions    EmailTemplate = "ticket_options"
	TemplateProvideOptions   EmailTemplate = "provide_options"
	TemplateRequestApproved  EmailTemplate = "request_approved"
	TemplateRequestRejected  EmailTemplate = "request_rejected"
	TemplateTicketBooked     EmailTemplate = "ticket_booked"
	TemplateGeneral          EmailTemplate = "general"
)

// EmailData is the input every notification template renders from
type EmailData struct {
	Salutation     string
	RequestID      string
	RequesterName  string
	ProjectName    string
	Destination    string
	Purpose        string
	Message        string
	RejectedBy     string
	Comments       string
	SelectedOption string
	ApproveURL     string
	RejectURL      string
	Options        []EmailOptionLink
}

// EmailOptionLink is one selectable ticket option in a manager email
type EmailOptionLink struct {
	Description string
	SelectURL   string
}

// EmailRenderer turns a template and its data into a subject and HTML body
type EmailRenderer interface {
	Render(tmpl EmailTemplate, data EmailData) (subject string, body string, err error)
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(user *entity.User) (string, error)
}

// PasswordHasher hashes and verifies user passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// ErrDocumentNotFound is returned when no stored document exists at a path
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore keeps uploaded ticket documents
type DocumentStore interface {
	Save(ctx context.Context, requestID, filename string, content []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}
