package entity

import "time"

// TicketOption is a candidate booking proposed by an admin for a request
type TicketOption struct {
	OptionID          int64     `json:"option_id"`
	RequestID         string    `json:"request_id"`
	CreatedByUserID   int64     `json:"created_by_user_id"`
	OptionDescription string    `json:"option_description"`
	IsSelected        bool      `json:"is_selected"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
