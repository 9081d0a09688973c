package entity

import "time"

// TravelRequest is a single employee trip moving through the approval lifecycle
type TravelRequest struct {
	RequestID               string     `json:"request_id"`
	UserID                  int64      `json:"user_id"`
	TravelModeID            int        `json:"travel_mode_id"`
	IsInternational         bool       `json:"is_international"`
	IsRoundTrip             bool       `json:"is_round_trip"`
	ProjectCode             string     `json:"project_code"`
	SourcePlace             string     `json:"source_place"`
	SourceCountry           string     `json:"source_country"`
	DestinationPlace        string     `json:"destination_place"`
	DestinationCountry      string     `json:"destination_country"`
	OutboundDepartureDate   time.Time  `json:"outbound_departure_date"`
	OutboundArrivalDate     *time.Time `json:"outbound_arrival_date,omitempty"`
	ReturnDepartureDate     *time.Time `json:"return_departure_date,omitempty"`
	ReturnArrivalDate       *time.Time `json:"return_arrival_date,omitempty"`
	IsAccommodationRequired bool       `json:"is_accommodation_required"`
	IsDropOffRequired       bool       `json:"is_drop_off_required"`
	DropOffPlace            string     `json:"drop_off_place,omitempty"`
	IsPickUpRequired        bool       `json:"is_pick_up_required"`
	PickUpPlace             string     `json:"pick_up_place,omitempty"`
	Comments                string     `json:"comments,omitempty"`
	PurposeOfTravel         string     `json:"purpose_of_travel"`
	IsVegetarian            bool       `json:"is_vegetarian"`
	FoodComment             string     `json:"food_comment,omitempty"`
	AttendedCCT             bool       `json:"attended_cct"`
	CurrentStatusID         int        `json:"current_status_id"`
	SelectedTicketOptionID  *int64     `json:"selected_ticket_option_id,omitempty"`
	TravelAgencyName        string     `json:"travel_agency_name,omitempty"`
	TravelAgencyExpense     *float64   `json:"travel_agency_expense,omitempty"`
	TotalExpense            *float64   `json:"total_expense,omitempty"`
	TicketDocumentPath      string     `json:"ticket_document_path,omitempty"`
	TravelFeedback          string     `json:"travel_feedback,omitempty"`
	IsActive                bool       `json:"is_active"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// HasFeedback reports whether the requester already left trip feedback
func (r *TravelRequest) HasFeedback() bool {
	return r.TravelFeedback != ""
}

// TicketDetails holds the booking data uploaded once a ticket is dispatched
type TicketDetails struct {
	TravelAgencyName    string           `json:"travel_agency_name"`
	TravelAgencyExpense float64          `json:"travel_agency_expense"`
	TotalExpense        float64          `json:"total_expense"`
	TicketDocumentPath  string           `json:"ticket_document_path"`
	Airlines            []AirlineSegment `json:"airlines"`
}

// AirlineSegment is one booked flight leg of a dispatched ticket
type AirlineSegment struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Name      string    `json:"name"`
	Expense   float64   `json:"expense"`
	CreatedAt time.Time `json:"created_at"`
}
