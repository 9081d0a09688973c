package workflow

import (
	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// NewSubject builds the validation snapshot for a request. The project may be
// nil, in which case approver actions fail with ErrProjectMissing.
func NewSubject(req *entity.TravelRequest, project *entity.Project, facts domainwf.Facts) domainwf.Subject {
	facts.SelectedOptionID = req.SelectedTicketOptionID

	subject := domainwf.Subject{
		RequestID:   req.RequestID,
		Status:      domainwf.State(req.CurrentStatusID),
		OwnerUserID: req.UserID,
		Facts:       facts,
	}
	if project != nil {
		subject.HasProject = true
		subject.ManagerEmail = project.ProjectManagerEmail
		subject.DuHeadEmail = project.DuHeadEmail
	}
	return subject
}

// ActorFromUser converts a stored user into a validation actor. A nil user
// yields a nil actor.
func ActorFromUser(user *entity.User) *domainwf.Actor {
	if user == nil {
		return nil
	}
	return &domainwf.Actor{
		UserID: user.UserID,
		Name:   user.EmployeeName,
		Email:  user.EmployeeEmail,
		Role:   user.UserRole,
		Active: user.IsActive,
	}
}
