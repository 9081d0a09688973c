package workflow

import (
	"fmt"
	"sort"
)

// State is a travel request status. The integer values are the seeded ids of
// the request_statuses table and must never change.
type State int

const (
	StatePendingReview     State = 1
	StateVerified          State = 2
	StateOptionsListed     State = 3
	StateOptionSelected    State = 4
	StateDuApproved        State = 5
	StateBuManagerApproved State = 6
	StateTicketDispatched  State = 7
	StateCancelled         State = 11
	StateRejected          State = 12
	StateModified          State = 13
)

type stateInfo struct {
	code string
	name string
}

var catalog = map[State]stateInfo{
	StatePendingReview:     {"PendingReview", "Pending Review"},
	StateVerified:          {"Verified", "Verified"},
	StateOptionsListed:     {"OptionsListed", "Options Listed"},
	StateOptionSelected:    {"OptionSelected", "Option Selected"},
	StateDuApproved:        {"DuApproved", "DU Approved"},
	StateBuManagerApproved: {"BuManagerApproved", "BU Manager Approved"},
	StateTicketDispatched:  {"TicketDispatched", "Ticket Dispatched"},
	StateCancelled:         {"Cancelled", "Cancelled"},
	StateRejected:          {"Rejected", "Rejected"},
	StateModified:          {"Modified", "Modified"},
}

// terminal states end the lifecycle; only an edit reopens them
var terminalStates = map[State]bool{
	StateTicketDispatched: true,
	StateCancelled:        true,
	StateRejected:         true,
}

// IsTerminal returns true if the request lifecycle has ended in this state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is in the catalog
func (s State) IsValid() bool {
	_, ok := catalog[s]
	return ok
}

// String returns the display name of the state
func (s State) String() string {
	if info, ok := catalog[s]; ok {
		return info.name
	}
	return fmt.Sprintf("Status %d", int(s))
}

// Code returns the stable code name of the state
func (s State) Code() string {
	if info, ok := catalog[s]; ok {
		return info.code
	}
	return ""
}

// ID returns the persisted status id
func (s State) ID() int {
	return int(s)
}

// Status is one row of the status catalog
type Status struct {
	ID       int    `json:"status_id"`
	Code     string `json:"code"`
	Name     string `json:"status_name"`
	Terminal bool   `json:"terminal"`
}

// Catalog lists every status ordered by id
func Catalog() []Status {
	statuses := make([]Status, 0, len(catalog))
	for state, info := range catalog {
		statuses = append(statuses, Status{
			ID:       int(state),
			Code:     info.code,
			Name:     info.name,
			Terminal: state.IsTerminal(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].ID < statuses[j].ID
	})
	return statuses
}

// allStates returns every catalog state ordered by id
func allStates() []State {
	states := make([]State, 0, len(catalog))
	for state := range catalog {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}
