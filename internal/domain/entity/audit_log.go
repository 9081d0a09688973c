package entity

import "time"

// AuditLog is an append-only record of one change to a travel request.
// A nil OldStatusID marks the creation entry.
type AuditLog struct {
	LogID             int64     `json:"log_id"`
	RequestID         string    `json:"request_id"`
	UserID            int64     `json:"user_id"`
	ActionType        string    `json:"action_type"`
	OldStatusID       *int      `json:"old_status_id,omitempty"`
	NewStatusID       *int      `json:"new_status_id,omitempty"`
	ChangeDescription string    `json:"change_description"`
	Comments          string    `json:"comments,omitempty"`
	ActionDate        time.Time `json:"action_date"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewStatus returns the status the entry moved the request into, or 0
func (l *AuditLog) NewStatus() int {
	if l.NewStatusID == nil {
		return 0
	}
	return *l.NewStatusID
}

// OldStatus returns the status the request left, or 0 for creation entries
func (l *AuditLog) OldStatus() int {
	if l.OldStatusID == nil {
		return 0
	}
	return *l.OldStatusID
}

// StatusPtr is a small helper for building audit entries
func StatusPtr(id int) *int {
	return &id
}
