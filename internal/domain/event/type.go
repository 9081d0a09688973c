package event

// Type identifies the type of domain event
type Type string

const (
	// TypeRequestCreated fires once a new travel request is stored
	TypeRequestCreated Type = "request.created"

	// TypeTransitionRecorded fires after a status change or audited action commits
	TypeTransitionRecorded Type = "request.transition_recorded"

	// TypeOptionsRemoved fires after ticket options are deleted. It carries no notification.
	TypeOptionsRemoved Type = "request.options_removed"

	// TypeAuditWriteFailed fires when an action committed without its audit entry
	TypeAuditWriteFailed Type = "audit.write_failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeTransitionRecorded,
		TypeOptionsRemoved,
		TypeAuditWriteFailed:
		return true
	default:
		return false
	}
}

// Notifies reports whether handlers should email anyone about this event
func (t Type) Notifies() bool {
	return t == TypeRequestCreated || t == TypeTransitionRecorded
}
