package workflow

import (
	"context"
	"fmt"

	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Engine applies validated actions to travel requests. Every status change
// goes through Execute so the compare-and-set write, the audit append and the
// post-commit event stay together.
type Engine interface {
	// Execute validates cmd against the stored request and applies it. A
	// graceful no-op returns a Result whose Decision.IsNoOp is true and
	// writes nothing.
	Execute(ctx context.Context, cmd Command) (*Result, error)

	// Load returns the stored request and its project. A missing or
	// deactivated request is a NotFound error; a missing project is not.
	Load(ctx context.Context, requestID string) (*entity.TravelRequest, *entity.Project, error)
}

// AuditPolicy decides when Execute writes the transition entry
type AuditPolicy int

const (
	// AuditAlways writes the entry for every applied action
	AuditAlways AuditPolicy = iota

	// AuditOnStatusChange writes it only when the status moves
	AuditOnStatusChange

	// AuditNever leaves auditing to Before entries or the caller
	AuditNever
)

// Command describes one action against one request
type Command struct {
	RequestID string
	Trigger   domainwf.Trigger
	Actor     *domainwf.Actor

	// Facts feed the rule table's guards. SelectedOptionID is filled from
	// the stored request.
	Facts domainwf.Facts

	Comments string

	// Kind overrides the action's default audit label
	Kind audit.Kind

	// Details are merged into the transition entry's description inputs
	Details audit.Details

	// Apply runs inside the transaction after the status write
	Apply func(ctx context.Context, req *entity.TravelRequest) error

	// Before entries are appended ahead of the transition entry
	Before []audit.Entry

	Audit AuditPolicy

	// Publish overrides the event type raised after commit
	Publish event.Type

	// Quiet suppresses the post-commit event
	Quiet bool
}

// Result is the outcome of Execute
type Result struct {
	Decision domainwf.Decision
	Request  *entity.TravelRequest
	Project  *entity.Project

	// AuditLog is the transition entry. It is set even when persisting it
	// failed, in which case LogID is zero.
	AuditLog *entity.AuditLog
}

// ProjectMissingError reports a request whose project code resolves to nothing
type ProjectMissingError struct {
	RequestID   string
	ProjectCode string
}

func (e *ProjectMissingError) Error() string {
	return fmt.Sprintf("project %s for request %s not found", e.ProjectCode, e.RequestID)
}

func (e *ProjectMissingError) Unwrap() error {
	return domainwf.ErrProjectMissing
}

// AuditRecorder appends audit entries
type AuditRecorder interface {
	RecordTransition(ctx context.Context, entry audit.Entry) (*entity.AuditLog, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
