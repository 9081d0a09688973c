// Package audit defines the closed set of audit entry kinds. Each kind owns
// the rule that renders its change description and its timeline label.
package audit

import (
	"fmt"
	"strings"
)

// Kind identifies what an audit entry records. The string value is the
// persisted action_type column.
type Kind string

const (
	KindRequestCreated    Kind = "REQUEST_CREATED"
	KindManagerApproved   Kind = "ManagerApproved"
	KindManagerRejected   Kind = "ManagerRejected"
	KindDuHeadApproved    Kind = "DuHeadApproved"
	KindDuHeadRejected    Kind = "DuHeadRejected"
	KindTicketSelected    Kind = "TicketSelected"
	KindOptionsListed     Kind = "STATUS_UPDATED_OPTIONS_LISTED"
	KindOptionSelected    Kind = "STATUS_UPDATED_OPTION_SELECTED"
	KindOptionEdited      Kind = "TICKET_OPTION_EDITED"
	KindOptionDeleted     Kind = "TICKET_OPTION_DELETED"
	KindOptionReverted    Kind = "STATUS_UPDATED_OPTION_DELETED"
	KindAllOptionsDeleted Kind = "STATUS_UPDATED_ALL_OPTIONS_DELETED"
	KindModified          Kind = "Modified"
	KindStatusChange      Kind = "Status Change"
	KindFeedbackSubmitted Kind = "TRAVEL_FEEDBACK_SUBMITTED"
	KindTicketUploaded    Kind = "TICKET_DETAILS_UPLOADED"
	KindCancelled         Kind = "RequestCancelled"
)

// Details carries the values a description rule may need. Status fields hold
// display names, not ids.
type Details struct {
	OldStatus    string
	NewStatus    string
	ActorUserID  int64
	ActorName    string
	ActorEmail   string
	OptionID     int64
	Before       string
	After        string
	Changes      []string
	ViaEmailLink bool
}

type rule struct {
	describe func(k Kind, d Details) string
	timeline string
}

var rules = map[Kind]rule{
	KindRequestCreated: {
		describe: fixed("New travel request created."),
		timeline: "Pending",
	},
	KindManagerApproved: {
		describe: approval("Manager", "approved"),
		timeline: "Approved",
	},
	KindManagerRejected: {
		describe: approval("Manager", "rejected"),
		timeline: "Rejected",
	},
	KindDuHeadApproved: {
		describe: approval("DU Head", "approved"),
		timeline: "Approved",
	},
	KindDuHeadRejected: {
		describe: approval("DU Head", "rejected"),
		timeline: "Rejected",
	},
	KindTicketSelected: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("%s selected ticket option ID %d.", d.ActorName, d.OptionID)
		},
		timeline: "Ticket Option Selected",
	},
	KindOptionsListed: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("Status changed to '%s' after first ticket option creation.", d.NewStatus)
		},
		timeline: "Ticket Options Listed",
	},
	KindOptionSelected: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("Status set to '%s' after ticket option %d was selected.", d.NewStatus, d.OptionID)
		},
		timeline: "Ticket Option Selected",
	},
	KindOptionEdited: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("Ticket option %d description changed from '%s' to '%s'.", d.OptionID, d.Before, d.After)
		},
		timeline: "Ticket Option Edited",
	},
	KindOptionDeleted: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("Ticket option %d ('%s') deleted.", d.OptionID, d.Before)
		},
		timeline: "Ticket Option Deleted",
	},
	KindOptionReverted: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("Status changed after ticket option %d was deleted.", d.OptionID)
		},
	},
	KindAllOptionsDeleted: {
		describe: fixed("Status changed after all ticket options were deleted."),
	},
	KindModified: {
		describe: func(_ Kind, d Details) string {
			if len(d.Changes) == 0 {
				return "Request modified."
			}
			return strings.Join(d.Changes, " ")
		},
		timeline: "Modified",
	},
	KindStatusChange: {
		describe: fixed("Request resubmitted for review after modification."),
		timeline: "Status Changed",
	},
	KindFeedbackSubmitted: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("Travel feedback submitted by user ID %d.", d.ActorUserID)
		},
		timeline: "Feedback Submitted",
	},
	KindTicketUploaded: {
		describe: fixed("Ticket details and airline information uploaded."),
	},
	KindCancelled: {
		describe: func(_ Kind, d Details) string {
			return fmt.Sprintf("Travel request cancelled by %s.", orDefault(d.ActorName, "System"))
		},
	},
}

func fixed(text string) func(Kind, Details) string {
	return func(Kind, Details) string { return text }
}

// approval renders either the email-link form or the API form of an
// approver decision.
func approval(role, verb string) func(Kind, Details) string {
	return func(k Kind, d Details) string {
		if d.ViaEmailLink {
			return fmt.Sprintf("%s (%s) performed '%s' via email link.", d.ActorName, d.ActorEmail, k)
		}
		return fmt.Sprintf("%s (%s) %s. Status changed from '%s' to '%s'.", role, d.ActorName, verb, d.OldStatus, d.NewStatus)
	}
}

// String returns the persisted action type
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether the kind is one of the defined constants
func (k Kind) IsValid() bool {
	_, ok := rules[k]
	return ok
}

// Describe renders the change description for an entry of this kind.
// Unknown kinds fall back to a status diff when both statuses are present.
func (k Kind) Describe(d Details) string {
	if r, ok := rules[k]; ok {
		return r.describe(k, d)
	}
	if d.OldStatus != "" && d.NewStatus != "" {
		return StatusChanged(d.OldStatus, d.NewStatus)
	}
	return fmt.Sprintf("Action '%s' performed.", k)
}

// TimelineLabel names the entry on a request timeline. Kinds without a label
// use the name of the status they moved into, then the raw action type.
func (k Kind) TimelineLabel(newStatusName string) string {
	if r, ok := rules[k]; ok && r.timeline != "" {
		return r.timeline
	}
	if newStatusName != "" {
		return newStatusName
	}
	return string(k)
}

// Rejector names the approver role that issued a rejection, or "" when the
// kind is not a rejection.
func (k Kind) Rejector() string {
	switch k {
	case KindManagerRejected:
		return "Manager"
	case KindDuHeadRejected:
		return "DU Head"
	default:
		return ""
	}
}

// StatusChanged is the default description of a plain status transition
func StatusChanged(oldStatus, newStatus string) string {
	return fmt.Sprintf("Status changed from '%s' to '%s'.", oldStatus, newStatus)
}

// FieldChanged renders one line of an edit diff
func FieldChanged(field, oldValue, newValue string) string {
	return fmt.Sprintf("%s changed from '%s' to '%s'.", field, oldValue, newValue)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
