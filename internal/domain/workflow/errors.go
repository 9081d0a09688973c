package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not in the catalog
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guarded transition rejects the facts
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrUnknownAction is returned when no strategy is registered for a trigger
	ErrUnknownAction = errors.New("unknown action")

	// ErrProjectMissing is returned when approver authorization needs a
	// project record that could not be loaded
	ErrProjectMissing = errors.New("project configuration missing")
)
