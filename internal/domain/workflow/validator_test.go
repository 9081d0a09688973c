package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
)

func subjectAt(status State) Subject {
	return Subject{
		RequestID:    "1F1123456",
		Status:       status,
		OwnerUserID:  10,
		ManagerEmail: "Manager@Corp.test",
		DuHeadEmail:  "duhead@corp.test",
		HasProject:   true,
	}
}

var (
	manager   = &Actor{UserID: 20, Name: "Meera", Email: "manager@corp.test", Role: "Manager", Active: true}
	duHead    = &Actor{UserID: 30, Name: "Dev", Email: "DUHEAD@corp.test", Role: "Manager", Active: true}
	admin     = &Actor{UserID: 40, Name: "Ada", Email: "admin@corp.test", Role: "Admin", Active: true}
	requester = &Actor{UserID: 10, Name: "Riya", Email: "riya@corp.test", Role: "Employee", Active: true}
	stranger  = &Actor{UserID: 50, Name: "Sam", Email: "sam@corp.test", Role: "Employee", Active: true}
)

func TestValidate_ManagerApprove(t *testing.T) {
	tests := []struct {
		name        string
		status      State
		actor       *Actor
		wantOutcome Outcome
		wantTo      State
		wantErr     error
	}{
		{"pending review approves", StatePendingReview, manager, OutcomeTransition, StateVerified, nil},
		{"already verified is no-op", StateVerified, manager, OutcomeNoOp, StateVerified, nil},
		{"already du approved is no-op", StateDuApproved, manager, OutcomeNoOp, StateDuApproved, nil},
		{"rejected is conflict", StateRejected, manager, 0, 0, apperr.ErrConflict},
		{"modified is conflict", StateModified, manager, 0, 0, apperr.ErrConflict},
		{"wrong email is forbidden", StatePendingReview, stranger, 0, 0, apperr.ErrForbidden},
		{"missing actor is unprocessable", StatePendingReview, nil, 0, 0, apperr.ErrUnprocessable},
		{"inactive actor is unprocessable", StatePendingReview, &Actor{Email: "manager@corp.test"}, 0, 0, apperr.ErrUnprocessable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := Validate(context.Background(), subjectAt(tt.status), TriggerManagerApprove, tt.actor)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, decision.Outcome)
			assert.Equal(t, tt.wantTo, decision.To)
			assert.Equal(t, audit.KindManagerApproved, decision.Label)
		})
	}
}

func TestValidate_ManagerApproveTwice(t *testing.T) {
	ctx := context.Background()

	first, err := Validate(ctx, subjectAt(StatePendingReview), TriggerManagerApprove, manager)
	require.NoError(t, err)
	require.True(t, first.StatusChanged())

	second, err := Validate(ctx, subjectAt(first.To), TriggerManagerApprove, manager)
	require.NoError(t, err)
	assert.True(t, second.IsNoOp())
	assert.False(t, second.StatusChanged())
	assert.Equal(t, "Request 1F1123456 is not pending manager review (current status: Verified). No action taken.", second.Message)
}

func TestValidate_Rejections(t *testing.T) {
	ctx := context.Background()

	decision, err := Validate(ctx, subjectAt(StateVerified), TriggerManagerReject, manager)
	require.NoError(t, err)
	assert.Equal(t, StateRejected, decision.To)

	for _, trigger := range []Trigger{TriggerManagerReject, TriggerDuHeadReject} {
		actor := manager
		if trigger == TriggerDuHeadReject {
			actor = duHead
		}
		decision, err := Validate(ctx, subjectAt(StateRejected), trigger, actor)
		require.NoError(t, err)
		assert.True(t, decision.IsNoOp(), trigger)
		assert.Equal(t, "Request 1F1123456 is already rejected. No action taken.", decision.Message)
	}

	_, err = Validate(ctx, subjectAt(StatePendingReview), TriggerDuHeadReject, duHead)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestValidate_DuHeadApprove(t *testing.T) {
	ctx := context.Background()

	_, err := Validate(ctx, subjectAt(StatePendingReview), TriggerDuHeadApprove, duHead)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "Travel request is not pending DU Head approval. Current status: 'Pending Review'", apperr.Message(err, ""))

	decision, err := Validate(ctx, subjectAt(StateVerified), TriggerDuHeadApprove, duHead)
	require.NoError(t, err)
	assert.Equal(t, StateDuApproved, decision.To)

	_, err = Validate(ctx, subjectAt(StateVerified), TriggerDuHeadApprove, manager)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "User Meera is not the designated DU Head for this request.", apperr.Message(err, ""))
}

func TestValidate_ProjectMissing(t *testing.T) {
	subject := subjectAt(StatePendingReview)
	subject.HasProject = false

	_, err := Validate(context.Background(), subject, TriggerManagerApprove, manager)
	assert.ErrorIs(t, err, ErrProjectMissing)
}

func TestValidate_TicketOptions(t *testing.T) {
	ctx := context.Background()
	selected := int64(5)

	decision, err := Validate(ctx, subjectAt(StateVerified), TriggerListOptions, admin)
	require.NoError(t, err)
	assert.Equal(t, StateOptionsListed, decision.To)

	_, err = Validate(ctx, subjectAt(StatePendingReview), TriggerListOptions, admin)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, apperr.Message(err, ""), "Current status ID: 1")

	_, err = Validate(ctx, subjectAt(StateVerified), TriggerListOptions, requester)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	reselect := subjectAt(StateOptionSelected)
	reselect.Facts = Facts{SelectedOptionID: &selected, TargetOptionID: 5}
	decision, err = Validate(ctx, reselect, TriggerSelectOption, manager)
	require.NoError(t, err)
	assert.True(t, decision.IsNoOp())
	assert.Equal(t, "Ticket option 5 is already selected for this request.", decision.Message)

	switchSelection := subjectAt(StateOptionSelected)
	switchSelection.Facts = Facts{SelectedOptionID: &selected, TargetOptionID: 6}
	decision, err = Validate(ctx, switchSelection, TriggerSelectOption, admin)
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransition, decision.Outcome)
	assert.Equal(t, StateOptionSelected, decision.To)

	_, err = Validate(ctx, subjectAt(StateVerified), TriggerSelectOption, manager)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestValidate_Cancel(t *testing.T) {
	ctx := context.Background()

	decision, err := Validate(ctx, subjectAt(StateVerified), TriggerCancel, requester)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, decision.To)

	decision, err = Validate(ctx, subjectAt(StateCancelled), TriggerCancel, admin)
	require.NoError(t, err)
	assert.True(t, decision.IsNoOp())

	_, err = Validate(ctx, subjectAt(StateTicketDispatched), TriggerCancel, requester)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = Validate(ctx, subjectAt(StateVerified), TriggerCancel, stranger)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestValidate_UnknownTrigger(t *testing.T) {
	_, err := Validate(context.Background(), subjectAt(StatePendingReview), Trigger("Teleport"), admin)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestLookup_EveryTriggerRegistered(t *testing.T) {
	triggers := []Trigger{
		TriggerManagerApprove, TriggerManagerReject, TriggerDuHeadApprove, TriggerDuHeadReject,
		TriggerListOptions, TriggerAddOption, TriggerSelectOption, TriggerDeleteOption,
		TriggerDeleteAllOptions, TriggerUploadTicket, TriggerSubmitFeedback, TriggerEdit,
		TriggerResubmit, TriggerCancel,
	}
	for _, trigger := range triggers {
		action, ok := Lookup(trigger)
		require.True(t, ok, trigger)
		assert.Equal(t, trigger, action.Trigger())
		assert.NotEmpty(t, action.RequiredStatus(), trigger)
	}
}
