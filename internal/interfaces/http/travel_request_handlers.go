package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// TripRequest is the body of create and edit
type TripRequest struct {
	TravelModeID            int        `json:"travel_mode_id" binding:"required,travelmode"`
	IsInternational         bool       `json:"is_international"`
	IsRoundTrip             bool       `json:"is_round_trip"`
	ProjectCode             string     `json:"project_code" binding:"required"`
	SourcePlace             string     `json:"source_place" binding:"required"`
	SourceCountry           string     `json:"source_country"`
	DestinationPlace        string     `json:"destination_place" binding:"required"`
	DestinationCountry      string     `json:"destination_country"`
	OutboundDepartureDate   time.Time  `json:"outbound_departure_date" binding:"required"`
	OutboundArrivalDate     *time.Time `json:"outbound_arrival_date"`
	ReturnDepartureDate     *time.Time `json:"return_departure_date"`
	ReturnArrivalDate       *time.Time `json:"return_arrival_date"`
	IsAccommodationRequired bool       `json:"is_accommodation_required"`
	IsDropOffRequired       bool       `json:"is_drop_off_required"`
	DropOffPlace            string     `json:"drop_off_place"`
	IsPickUpRequired        bool       `json:"is_pick_up_required"`
	PickUpPlace             string     `json:"pick_up_place"`
	Comments                string     `json:"comments"`
	PurposeOfTravel         string     `json:"purpose_of_travel" binding:"required"`
	IsVegetarian            bool       `json:"is_vegetarian"`
	FoodComment             string     `json:"food_comment"`
	AttendedCCT             bool       `json:"attended_cct"`
}

func (r TripRequest) toDetails() service.TripDetails {
	return service.TripDetails{
		TravelModeID:            r.TravelModeID,
		IsInternational:         r.IsInternational,
		IsRoundTrip:             r.IsRoundTrip,
		ProjectCode:             r.ProjectCode,
		SourcePlace:             r.SourcePlace,
		SourceCountry:           r.SourceCountry,
		DestinationPlace:        r.DestinationPlace,
		DestinationCountry:      r.DestinationCountry,
		OutboundDepartureDate:   r.OutboundDepartureDate,
		OutboundArrivalDate:     r.OutboundArrivalDate,
		ReturnDepartureDate:     r.ReturnDepartureDate,
		ReturnArrivalDate:       r.ReturnArrivalDate,
		IsAccommodationRequired: r.IsAccommodationRequired,
		IsDropOffRequired:       r.IsDropOffRequired,
		DropOffPlace:            r.DropOffPlace,
		IsPickUpRequired:        r.IsPickUpRequired,
		PickUpPlace:             r.PickUpPlace,
		Comments:                r.Comments,
		PurposeOfTravel:         r.PurposeOfTravel,
		IsVegetarian:            r.IsVegetarian,
		FoodComment:             r.FoodComment,
		AttendedCCT:             r.AttendedCCT,
	}
}

// FeedbackRequest is the body of PUT /feedback
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

// AirlineRequest is one booked leg
type AirlineRequest struct {
	Name    string  `json:"name" binding:"required"`
	Expense float64 `json:"expense" binding:"gte=0"`
}

// TicketDetailsRequest is the body of PUT /uploadticketdetails
type TicketDetailsRequest struct {
	TravelAgencyName    string           `json:"travel_agency_name" binding:"required"`
	TravelAgencyExpense float64          `json:"travel_agency_expense" binding:"gte=0"`
	TotalExpense        float64          `json:"total_expense" binding:"gte=0"`
	TicketDocumentPath  string           `json:"ticket_document_path"`
	Airlines            []AirlineRequest `json:"airlines" binding:"dive"`
}

// CreateTravelRequest handles POST /api/travelrequests
func (h *Handlers) CreateTravelRequest(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		abort(c, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	created, err := h.services.Requests.Create(c.Request.Context(), claims.UserID, req.toDetails())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusCreated, created, "Travel request created successfully.")
}

// ListMyTravelRequests handles GET /api/travelrequests/mine
func (h *Handlers) ListMyTravelRequests(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		abort(c, http.StatusUnauthorized, "missing bearer token")
		return
	}

	requests, err := h.services.Requests.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if requests == nil {
		requests = []*entity.TravelRequest{}
	}
	h.respondOK(c, http.StatusOK, requests, "")
}

// GetTravelRequest handles GET /api/travelrequests/:id
func (h *Handlers) GetTravelRequest(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	req, err := h.services.Requests.Get(c.Request.Context(), requestID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, req, "")
}

// EditTravelRequest handles POST /api/travelrequests/:id/edit
func (h *Handlers) EditTravelRequest(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	updated, err := h.services.Requests.EditAndResubmit(c.Request.Context(), requestID, actorFrom(c, ""), req.toDetails())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, updated, "Travel request updated and resubmitted for review.")
}

// CancelTravelRequest handles PUT /api/travelrequests/:id/cancel
func (h *Handlers) CancelTravelRequest(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	outcome, err := h.services.Requests.Cancel(c.Request.Context(), requestID, actorFrom(c, ""))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, outcome.Request, outcome.Message)
}

// SubmitFeedback handles PUT /api/travelrequests/:id/feedback
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	updated, err := h.services.Requests.SubmitFeedback(c.Request.Context(), requestID, actorFrom(c, ""), req.Feedback)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, updated, "Feedback submitted successfully.")
}

// UploadTicketDetails handles PUT /api/travelrequests/:id/uploadticketdetails
func (h *Handlers) UploadTicketDetails(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	var req TicketDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	details := entity.TicketDetails{
		TravelAgencyName:    req.TravelAgencyName,
		TravelAgencyExpense: req.TravelAgencyExpense,
		TotalExpense:        req.TotalExpense,
		TicketDocumentPath:  req.TicketDocumentPath,
	}
	for _, a := range req.Airlines {
		details.Airlines = append(details.Airlines, entity.AirlineSegment{Name: a.Name, Expense: a.Expense})
	}

	updated, err := h.services.Requests.UploadTicket(c.Request.Context(), requestID, actorFrom(c, ""), details)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, updated, "Ticket details uploaded successfully.")
}

// Timeline handles GET /api/travelrequests/:id/timeline
func (h *Handlers) Timeline(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	timeline, err := h.services.Requests.Timeline(c.Request.Context(), requestID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, timeline, "")
}

// TicketDocumentResponse reports where an uploaded ticket was stored
type TicketDocumentResponse struct {
	TicketDocumentPath string `json:"ticket_document_path"`
}

// UploadTicketDocument handles POST /api/travelrequests/:id/ticketdocument
func (h *Handlers) UploadTicketDocument(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "A ticket document must be sent in the 'file' form field.")
		return
	}
	if header.Size > service.MaxTicketDocumentSize {
		h.badRequest(c, "Ticket document is too large.")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.respondError(c, fmt.Errorf("open uploaded document: %w", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, service.MaxTicketDocumentSize+1))
	if err != nil {
		h.respondError(c, fmt.Errorf("read uploaded document: %w", err))
		return
	}

	stored, err := h.services.Documents.Store(c.Request.Context(), requestID, actorFrom(c, ""), header.Filename, content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusCreated, TicketDocumentResponse{TicketDocumentPath: stored}, "Ticket document uploaded successfully.")
}

// DownloadTicketDocument handles GET /api/travelrequests/:id/ticketdocument
func (h *Handlers) DownloadTicketDocument(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	doc, err := h.services.Documents.Fetch(c.Request.Context(), requestID, actorFrom(c, ""))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
