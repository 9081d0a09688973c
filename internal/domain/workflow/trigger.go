package workflow

// Trigger is an action that may move a travel request between states
type Trigger string

const (
	TriggerManagerApprove   Trigger = "ManagerApprove"
	TriggerManagerReject    Trigger = "ManagerReject"
	TriggerDuHeadApprove    Trigger = "DuHeadApprove"
	TriggerDuHeadReject     Trigger = "DuHeadReject"
	TriggerListOptions      Trigger = "ListOptions"
	TriggerAddOption        Trigger = "AddOption"
	TriggerSelectOption     Trigger = "SelectOption"
	TriggerDeleteOption     Trigger = "DeleteOption"
	TriggerDeleteAllOptions Trigger = "DeleteAllOptions"
	TriggerUploadTicket     Trigger = "UploadTicket"
	TriggerSubmitFeedback   Trigger = "SubmitFeedback"
	TriggerEdit             Trigger = "Edit"
	TriggerResubmit         Trigger = "Resubmit"
	TriggerCancel           Trigger = "Cancel"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
