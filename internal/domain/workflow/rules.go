package workflow

import "context"

// rules is the one transition table every entry point validates against.
// API calls and email links both resolve through it.
var rules = buildRules()

func buildRules() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StatePendingReview).
		Permit(TriggerManagerApprove, StateVerified).
		Permit(TriggerManagerReject, StateRejected)

	b.Configure(StateVerified).
		Permit(TriggerManagerReject, StateRejected).
		Permit(TriggerDuHeadApprove, StateDuApproved).
		Permit(TriggerDuHeadReject, StateRejected).
		Permit(TriggerListOptions, StateOptionsListed)

	b.Configure(StateOptionsListed).
		Permit(TriggerAddOption, StateOptionsListed).
		Permit(TriggerSelectOption, StateOptionSelected)

	b.Configure(StateOptionSelected).
		Permit(TriggerSelectOption, StateOptionSelected)

	b.Configure(StateModified).
		Permit(TriggerResubmit, StatePendingReview)

	for _, state := range allStates() {
		config := b.Configure(state).
			Permit(TriggerEdit, StateModified).
			Permit(TriggerSubmitFeedback, state)

		if !state.IsTerminal() {
			config.Permit(TriggerCancel, StateCancelled)
		}

		if state == StateCancelled || state == StateRejected {
			continue
		}

		config.Permit(TriggerUploadTicket, StateTicketDispatched)
	}

	// Options can be removed in any status. Once the manager has approved,
	// losing the selected option reverts the request to option listing and
	// losing every option reverts it to Verified. Before that review, and
	// after cancellation or rejection, removal leaves the status alone.
	for _, state := range allStates() {
		config := b.Configure(state)
		if !afterManagerReview[state] {
			config.
				Permit(TriggerDeleteOption, state).
				Permit(TriggerDeleteAllOptions, state)
			continue
		}
		config.
			PermitIf(TriggerDeleteOption, StateOptionsListed, selectedWithSiblings).
			PermitIf(TriggerDeleteOption, StateVerified, selectedAlone).
			PermitIf(TriggerDeleteOption, state, notSelected).
			Permit(TriggerDeleteAllOptions, StateVerified)
	}

	return b
}

func selectedWithSiblings(_ context.Context, f Facts) bool {
	return f.TargetIsSelected() && f.RemainingOptions > 0
}

func selectedAlone(_ context.Context, f Facts) bool {
	return f.TargetIsSelected() && f.RemainingOptions == 0
}

func notSelected(_ context.Context, f Facts) bool {
	return !f.TargetIsSelected()
}

// NewMachine builds a state machine over the shared transition table
func NewMachine(initial State) StateMachine {
	return rules.Build(initial)
}

// RequiredStatuses lists the states from which the trigger may fire
func RequiredStatuses(trigger Trigger) []State {
	return rules.SourcesOf(trigger)
}
