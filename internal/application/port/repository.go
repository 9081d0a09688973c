package port

import (
	"context"
	"errors"

	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// ErrStatusChanged is returned by a compare-and-set status write that lost a race
var ErrStatusChanged = errors.New("travel request status changed concurrently")

// TravelRequestRepository defines persistence operations for TravelRequest.
// Lookups return (nil, nil) when the row does not exist.
type TravelRequestRepository interface {
	Create(ctx context.Context, req *entity.TravelRequest) error
	GetByID(ctx context.Context, requestID string) (*entity.TravelRequest, error)
	Exists(ctx context.Context, requestID string) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*entity.TravelRequest, error)

	// UpdateTripDetails rewrites the editable trip fields, leaving status untouched
	UpdateTripDetails(ctx context.Context, req *entity.TravelRequest) error

	// CompareAndSetStatus moves the request from one status to another and
	// returns ErrStatusChanged when the stored status is no longer from
	CompareAndSetStatus(ctx context.Context, requestID string, from, to int) error

	SetSelectedOption(ctx context.Context, requestID string, optionID *int64) error
	SaveFeedback(ctx context.Context, requestID string, feedback string) error
	SaveTicketDetails(ctx context.Context, requestID string, details *entity.TicketDetails) error
}

// AuditLogRepository is the append-only store of audit entries
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	GetByID(ctx context.Context, logID int64) (*entity.AuditLog, error)

	// ListByRequest returns entries ordered by timestamp, oldest first
	ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditLog, error)
}

// TicketOptionRepository defines persistence operations for TicketOption
type TicketOptionRepository interface {
	Create(ctx context.Context, option *entity.TicketOption) error
	GetByID(ctx context.Context, optionID int64) (*entity.TicketOption, error)
	ListByRequest(ctx context.Context, requestID string) ([]*entity.TicketOption, error)
	CountByRequest(ctx context.Context, requestID string) (int, error)
	UpdateDescription(ctx context.Context, optionID int64, description string) error

	// MarkSelected flags one option and clears the flag on all its siblings
	MarkSelected(ctx context.Context, requestID string, optionID int64) error

	Delete(ctx context.Context, optionID int64) error
	DeleteByRequest(ctx context.Context, requestID string) (int64, error)
}

// AirlineRepository stores the booked legs of a dispatched ticket
type AirlineRepository interface {
	ReplaceForRequest(ctx context.Context, requestID string, segments []entity.AirlineSegment) error
	ListByRequest(ctx context.Context, requestID string) ([]entity.AirlineSegment, error)
}

// ProjectRepository reads the project lookup table
type ProjectRepository interface {
	GetByCode(ctx context.Context, projectCode string) (*entity.Project, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, userID int64) (*entity.User, error)

	// GetByEmail matches case-insensitively
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// ListActiveByRole returns active users holding the role
	ListActiveByRole(ctx context.Context, role string) ([]*entity.User, error)
}

// StatusRepository reads the seeded status lookup table
type StatusRepository interface {
	List(ctx context.Context) ([]StatusRow, error)
}

// StatusRow is one persisted status
type StatusRow struct {
	ID   int    `json:"status_id"`
	Name string `json:"status_name"`
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
