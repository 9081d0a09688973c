package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
)

// Outcome classifies a successful validation
type Outcome int

const (
	// OutcomeTransition means the action should be applied
	OutcomeTransition Outcome = iota + 1

	// OutcomeNoOp means the request already reflects the action
	OutcomeNoOp
)

// Decision is the result of validating an action against a request snapshot
type Decision struct {
	Action  Trigger
	Outcome Outcome
	From    State
	To      State
	Label   audit.Kind
	Message string
}

// IsNoOp reports whether nothing should be written
func (d Decision) IsNoOp() bool {
	return d.Outcome == OutcomeNoOp
}

// StatusChanged reports whether the decision moves the request to a new status
func (d Decision) StatusChanged() bool {
	return d.Outcome == OutcomeTransition && d.From != d.To
}

// UnresolvedActorMessage is shown when the acting user cannot be identified
const UnresolvedActorMessage = "Could not identify the acting user. Please ensure the email in the link is correct and the user account is active."

// Validate decides whether actor may apply trigger to the request described by s.
// It has no side effects. A nil or inactive actor yields an Unprocessable error,
// a role mismatch yields Forbidden, and a status outside the trigger's sources
// yields Conflict unless the request already carries the action's effect, in
// which case the decision is a no-op.
func Validate(ctx context.Context, s Subject, trigger Trigger, actor *Actor) (Decision, error) {
	action, ok := Lookup(trigger)
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s", ErrUnknownAction, trigger)
	}

	if !s.Status.IsValid() {
		return Decision{}, fmt.Errorf("%w: %d", ErrInvalidState, s.Status)
	}

	if actor == nil || !actor.Active {
		return Decision{}, apperr.Unprocessable(UnresolvedActorMessage)
	}

	if err := action.Authorize(s, *actor); err != nil {
		return Decision{}, err
	}

	if idem, ok := action.(idempotent); ok {
		if message, done := idem.AlreadyApplied(s); done {
			return Decision{
				Action:  trigger,
				Outcome: OutcomeNoOp,
				From:    s.Status,
				To:      s.Status,
				Label:   action.AuditLabel(),
				Message: message,
			}, nil
		}
	}

	to, err := action.TargetStatus(ctx, s)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrGuardFailed) {
			return Decision{}, apperr.Conflict(explain(action, s))
		}
		return Decision{}, err
	}

	return Decision{
		Action:  trigger,
		Outcome: OutcomeTransition,
		From:    s.Status,
		To:      to,
		Label:   action.AuditLabel(),
	}, nil
}

func explain(action Action, s Subject) string {
	if e, ok := action.(explainer); ok {
		return e.Explain(s)
	}
	return defaultExplanation(action.Trigger(), s)
}
