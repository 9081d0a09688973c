package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

func newHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

type requestURI struct {
	ID string `uri:"id" binding:"required,requestid"`
}

type optionURI struct {
	ID       string `uri:"id" binding:"required,requestid"`
	OptionID int64  `uri:"optionId" binding:"required,gt=0"`
}

// bindRequestID reads and validates the :id path segment
func (h *Handlers) bindRequestID(c *gin.Context) (string, bool) {
	var uri requestURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.badRequest(c, bindingMessage(err))
		return "", false
	}
	return uri.ID, true
}

func (h *Handlers) bindOptionURI(c *gin.Context) (optionURI, bool) {
	var uri optionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.badRequest(c, bindingMessage(err))
		return uri, false
	}
	return uri, true
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body.")
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, result, "Login successful.")
}

// RegisterRequest is the body of POST /api/users
type RegisterRequest struct {
	EmployeeName  string `json:"employee_name" binding:"required"`
	EmployeeEmail string `json:"employee_email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	PhoneNumber   string `json:"phone_number"`
	UserRole      string `json:"user_role" binding:"omitempty,oneof=Admin Employee Manager"`
	Department    string `json:"department"`
}

// Register handles POST /api/users
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, bindingMessage(err))
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), &entity.User{
		EmployeeName:  req.EmployeeName,
		EmployeeEmail: req.EmployeeEmail,
		PhoneNumber:   req.PhoneNumber,
		UserRole:      req.UserRole,
		Department:    req.Department,
		IsActive:      true,
	}, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusCreated, user, "User created.")
}

// ListStatuses handles GET /api/statuses
func (h *Handlers) ListStatuses(c *gin.Context) {
	statuses, err := h.services.Statuses.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, statuses, "")
}

// GetAuditLog handles GET /api/auditlogs/:logId
func (h *Handlers) GetAuditLog(c *gin.Context) {
	logID, err := strconv.ParseInt(c.Param("logId"), 10, 64)
	if err != nil || logID <= 0 {
		h.badRequest(c, "Invalid audit log ID.")
		return
	}

	log, err := h.services.Audit.GetByID(c.Request.Context(), logID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, log, "")
}

// ListAuditLogs handles GET /api/auditlogs/request/:id
func (h *Handlers) ListAuditLogs(c *gin.Context) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	logs, err := h.services.Audit.ListByRequest(c.Request.Context(), requestID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, logs, "")
}

// ApprovalRequest is the body of the approval endpoints
type ApprovalRequest struct {
	Comments   string `json:"comments"`
	ActorEmail string `json:"actorEmail" binding:"omitempty,email"`
}

// ManagerApprove handles PUT /api/approvals/:id/manager/approve
func (h *Handlers) ManagerApprove(c *gin.Context) {
	h.decide(c, workflow.TriggerManagerApprove)
}

// ManagerReject handles PUT /api/approvals/:id/manager/reject
func (h *Handlers) ManagerReject(c *gin.Context) {
	h.decide(c, workflow.TriggerManagerReject)
}

// DuHeadApprove handles PUT /api/approvals/:id/duhead/approve
func (h *Handlers) DuHeadApprove(c *gin.Context) {
	h.decide(c, workflow.TriggerDuHeadApprove)
}

// DuHeadReject handles PUT /api/approvals/:id/duhead/reject
func (h *Handlers) DuHeadReject(c *gin.Context) {
	h.decide(c, workflow.TriggerDuHeadReject)
}

func (h *Handlers) decide(c *gin.Context, trigger workflow.Trigger) {
	requestID, ok := h.bindRequestID(c)
	if !ok {
		return
	}

	var req ApprovalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, bindingMessage(err))
			return
		}
	}

	actor := actorFrom(c, req.ActorEmail)
	if actor.IsZero() {
		h.badRequest(c, "Actor email is required.")
		return
	}

	outcome, err := h.services.Approvals.Decide(c.Request.Context(), service.ApprovalCommand{
		RequestID: requestID,
		Trigger:   trigger,
		Actor:     actor,
		Comments:  req.Comments,
		Channel:   service.ChannelAPI,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, outcome.Request, outcome.Message)
}
