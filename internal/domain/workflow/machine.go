package workflow

import "context"

// StateMachine tracks the current state of one request and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has any transition from the current state
	CanFire(trigger Trigger) bool

	// Fire evaluates guards against facts and moves to the first permitted target
	Fire(ctx context.Context, trigger Trigger, facts Facts) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []Trigger
}

// Facts carries request details that guards may inspect
type Facts struct {
	// RemainingOptions counts ticket options left after a deletion
	RemainingOptions int

	// SelectedOptionID is the request's current selection, if any
	SelectedOptionID *int64

	// TargetOptionID is the option an action operates on
	TargetOptionID int64
}

// TargetIsSelected reports whether the action targets the selected option
func (f Facts) TargetIsSelected() bool {
	return f.SelectedOptionID != nil && *f.SelectedOptionID == f.TargetOptionID
}
