package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
)

// Subject is the snapshot of a request an action is validated against
type Subject struct {
	RequestID    string
	Status       State
	OwnerUserID  int64
	ManagerEmail string
	DuHeadEmail  string
	HasProject   bool
	Facts        Facts
}

// Actor is the resolved user attempting an action
type Actor struct {
	UserID int64
	Name   string
	Email  string
	Role   string
	Active bool
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, "Admin")
}

// Action is the strategy for a single trigger
type Action interface {
	Trigger() Trigger
	Authorize(s Subject, actor Actor) error
	RequiredStatus() []State
	TargetStatus(ctx context.Context, s Subject) (State, error)
	AuditLabel() audit.Kind
}

// idempotent actions recognise a request already carrying their effect
type idempotent interface {
	AlreadyApplied(s Subject) (string, bool)
}

// explainer actions word their own precondition failure
type explainer interface {
	Explain(s Subject) string
}

type baseAction struct {
	trigger Trigger
	label   audit.Kind
}

func (a baseAction) Trigger() Trigger        { return a.trigger }
func (a baseAction) AuditLabel() audit.Kind  { return a.label }
func (a baseAction) RequiredStatus() []State { return RequiredStatuses(a.trigger) }

func (a baseAction) TargetStatus(ctx context.Context, s Subject) (State, error) {
	machine := NewMachine(s.Status)
	if err := machine.Fire(ctx, a.trigger, s.Facts); err != nil {
		return s.Status, err
	}
	return machine.State(), nil
}

// approverAction covers manager and DU head decisions
type approverAction struct {
	baseAction
	roleName  string
	pendingOn string
	emailOf   func(Subject) string
	settled   map[State]bool
	rejection bool
}

func (a approverAction) Authorize(s Subject, actor Actor) error {
	if !s.HasProject {
		return fmt.Errorf("%w: request %s", ErrProjectMissing, s.RequestID)
	}
	if !sameEmail(actor.Email, a.emailOf(s)) {
		return apperr.Forbidden("User %s is not the designated %s for this request.", actor.Name, a.roleName)
	}
	return nil
}

func (a approverAction) AlreadyApplied(s Subject) (string, bool) {
	if a.rejection {
		if s.Status == StateRejected {
			return fmt.Sprintf("Request %s is already rejected. No action taken.", s.RequestID), true
		}
		return "", false
	}
	if a.settled[s.Status] {
		return fmt.Sprintf("Request %s is not pending %s review (current status: %s). No action taken.", s.RequestID, a.pendingOn, s.Status), true
	}
	return "", false
}

func (a approverAction) Explain(s Subject) string {
	return fmt.Sprintf("Travel request is not pending %s approval. Current status: '%s'", a.pendingOn, s.Status)
}

// adminAction is reserved for travel desk admins
type adminAction struct {
	baseAction
	explain func(Subject) string
}

func (a adminAction) Authorize(_ Subject, actor Actor) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("User %s is not authorized to perform '%s'.", actor.Name, a.trigger)
	}
	return nil
}

func (a adminAction) Explain(s Subject) string {
	if a.explain != nil {
		return a.explain(s)
	}
	return defaultExplanation(a.trigger, s)
}

// selectAction lets the project manager or an admin pick an option
type selectAction struct {
	baseAction
}

func (a selectAction) Authorize(s Subject, actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	if !s.HasProject {
		return fmt.Errorf("%w: request %s", ErrProjectMissing, s.RequestID)
	}
	if !sameEmail(actor.Email, s.ManagerEmail) {
		return apperr.Forbidden("User %s is not the designated manager for this request.", actor.Name)
	}
	return nil
}

func (a selectAction) AlreadyApplied(s Subject) (string, bool) {
	if s.Status == StateOptionSelected && s.Facts.TargetIsSelected() {
		return fmt.Sprintf("Ticket option %d is already selected for this request.", s.Facts.TargetOptionID), true
	}
	return "", false
}

func (a selectAction) Explain(s Subject) string {
	return fmt.Sprintf("Travel request must be in 'OptionsListed' (ID: %d) or 'OptionSelected' (ID: %d) state to select an option. Current status ID: %d.",
		StateOptionsListed, StateOptionSelected, s.Status)
}

// ownerAction belongs to the requester; admins may be allowed too
type ownerAction struct {
	baseAction
	allowAdmin bool
}

func (a ownerAction) Authorize(s Subject, actor Actor) error {
	if actor.UserID == s.OwnerUserID {
		return nil
	}
	if a.allowAdmin && actor.IsAdmin() {
		return nil
	}
	return apperr.Forbidden("User %s does not own travel request %s.", actor.Name, s.RequestID)
}

func (a ownerAction) AlreadyApplied(s Subject) (string, bool) {
	if a.trigger == TriggerCancel && s.Status == StateCancelled {
		return fmt.Sprintf("Request %s is already cancelled. No action taken.", s.RequestID), true
	}
	return "", false
}

func (a ownerAction) Explain(s Subject) string {
	if a.trigger == TriggerCancel {
		return fmt.Sprintf("Request %s cannot be cancelled in status '%s'.", s.RequestID, s.Status)
	}
	return defaultExplanation(a.trigger, s)
}

func explainOptionCreation(s Subject) string {
	return fmt.Sprintf("Travel request must be in 'Verified' (Status ID: %d) or 'OptionsListed' (Status ID: %d) state to add ticket options. Current status ID: %d.",
		StateVerified, StateOptionsListed, s.Status)
}

func defaultExplanation(trigger Trigger, s Subject) string {
	return fmt.Sprintf("Action '%s' is not allowed while request %s is in status '%s'.", trigger, s.RequestID, s.Status)
}

func sameEmail(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func managerEmail(s Subject) string { return s.ManagerEmail }
func duHeadEmail(s Subject) string  { return s.DuHeadEmail }

var afterManagerReview = map[State]bool{
	StateVerified:          true,
	StateOptionsListed:     true,
	StateOptionSelected:    true,
	StateDuApproved:        true,
	StateBuManagerApproved: true,
	StateTicketDispatched:  true,
}

var afterDuHeadReview = map[State]bool{
	StateDuApproved:        true,
	StateBuManagerApproved: true,
	StateTicketDispatched:  true,
}

var registry = map[Trigger]Action{
	TriggerManagerApprove: approverAction{
		baseAction: baseAction{TriggerManagerApprove, audit.KindManagerApproved},
		roleName:   "manager", pendingOn: "manager", emailOf: managerEmail, settled: afterManagerReview,
	},
	TriggerManagerReject: approverAction{
		baseAction: baseAction{TriggerManagerReject, audit.KindManagerRejected},
		roleName:   "manager", pendingOn: "manager", emailOf: managerEmail, rejection: true,
	},
	TriggerDuHeadApprove: approverAction{
		baseAction: baseAction{TriggerDuHeadApprove, audit.KindDuHeadApproved},
		roleName:   "DU Head", pendingOn: "DU Head", emailOf: duHeadEmail, settled: afterDuHeadReview,
	},
	TriggerDuHeadReject: approverAction{
		baseAction: baseAction{TriggerDuHeadReject, audit.KindDuHeadRejected},
		roleName:   "DU Head", pendingOn: "DU Head", emailOf: duHeadEmail, rejection: true,
	},
	TriggerListOptions: adminAction{
		baseAction: baseAction{TriggerListOptions, audit.KindOptionsListed},
		explain:    explainOptionCreation,
	},
	TriggerAddOption: adminAction{
		baseAction: baseAction{TriggerAddOption, audit.KindOptionsListed},
		explain:    explainOptionCreation,
	},
	TriggerSelectOption: selectAction{
		baseAction: baseAction{TriggerSelectOption, audit.KindOptionSelected},
	},
	TriggerDeleteOption: adminAction{
		baseAction: baseAction{TriggerDeleteOption, audit.KindOptionReverted},
	},
	TriggerDeleteAllOptions: adminAction{
		baseAction: baseAction{TriggerDeleteAllOptions, audit.KindAllOptionsDeleted},
	},
	TriggerUploadTicket: adminAction{
		baseAction: baseAction{TriggerUploadTicket, audit.KindTicketUploaded},
	},
	TriggerSubmitFeedback: ownerAction{
		baseAction: baseAction{TriggerSubmitFeedback, audit.KindFeedbackSubmitted},
	},
	TriggerEdit: ownerAction{
		baseAction: baseAction{TriggerEdit, audit.KindModified},
	},
	TriggerResubmit: ownerAction{
		baseAction: baseAction{TriggerResubmit, audit.KindStatusChange},
	},
	TriggerCancel: ownerAction{
		baseAction: baseAction{TriggerCancel, audit.KindCancelled},
		allowAdmin: true,
	},
}

// Lookup returns the strategy registered for a trigger
func Lookup(trigger Trigger) (Action, bool) {
	action, ok := registry[trigger]
	return action, ok
}
