package audit

// Entry is a request to append one audit row. Status ids are nil when the
// entry does not record that side of a transition.
type Entry struct {
	RequestID   string
	ActorUserID int64
	Kind        Kind
	OldStatusID *int
	NewStatusID *int
	Comments    string
	Details     Details
}
