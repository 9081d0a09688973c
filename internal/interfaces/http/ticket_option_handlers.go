package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// TicketOptionRequest is the body of create and edit
type TicketOptionRequest struct {
	OptionDescription string `json:"option_description" binding:"required"`
}

// SelectOptionRequest is the optional body of select
type SelectOptionRequest struct {
	Comments string `json:"comments"`
}

// ListTicketOptions handles GET /api/travelrequests/:id/ticketoptions
func (h *Handlers) ListTicketOptions(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	options, err := h.services.Options.List(c.Request.Context(), requestID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if options == nil {
		options = []*entity.TicketOption{}
	}
	h.respondOK(c, http.StatusOK, options, "")
}

// GetTicketOption handles GET /api/travelrequests/:id/ticketoptions/:optionId
func (h *Handlers) GetTicketOption(c *gin.Context) {
	uri, ok := h.bindOptionURI(c)
	if !ok {
		return
	}

	option, err := h.services.Options.Get(c.Request.Context(), uri.ID, uri.OptionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, option, "")
}

// CreateTicketOption handles POST /api/travelrequests/:id/ticketoptions
func (h *Handlers) CreateTicketOption(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	var req TicketOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	option, err := h.services.Options.Create(c.Request.Context(), requestID, actorFrom(c, ""), req.OptionDescription)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusCreated, option, "Ticket option created successfully.")
}

// EditTicketOption handles PUT /api/travelrequests/:id/ticketoptions/:optionId
func (h *Handlers) EditTicketOption(c *gin.Context) {
	uri, ok := h.bindOptionURI(c)
	if !ok {
		return
	}

	var req TicketOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	option, err := h.services.Options.Edit(c.Request.Context(), uri.ID, uri.OptionID, actorFrom(c, ""), req.OptionDescription)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, option, "Ticket option updated successfully.")
}

// SelectTicketOption handles PUT /api/travelrequests/:id/ticketoptions/:optionId/select
func (h *Handlers) SelectTicketOption(c *gin.Context) {
	uri, ok := h.bindOptionURI(c)
	if !ok {
		return
	}

	var req SelectOptionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "Invalid request body.")
			return
		}
	}

	outcome, err := h.services.Options.Select(c.Request.Context(), service.SelectOptionCommand{
		RequestID: uri.ID,
		OptionID:  uri.OptionID,
		Actor:     actorFrom(c, ""),
		Comments:  req.Comments,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, outcome.Option, outcome.Message)
}

// DeleteTicketOption handles DELETE /api/travelrequests/:id/ticketoptions/:optionId
func (h *Handlers) DeleteTicketOption(c *gin.Context) {
	uri, ok := h.bindOptionURI(c)
	if !ok {
		return
	}

	outcome, err := h.services.Options.Delete(c.Request.Context(), uri.ID, uri.OptionID, actorFrom(c, ""))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, outcome.Request, outcome.Message)
}

// DeleteAllTicketOptions handles DELETE /api/travelrequests/:id/ticketoptions/all
func (h *Handlers) DeleteAllTicketOptions(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	outcome, err := h.services.Options.DeleteAll(c.Request.Context(), requestID, actorFrom(c, ""))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, outcome.Request, outcome.Message)
}
