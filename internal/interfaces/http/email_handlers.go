package http

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/workflow"
)

//go:embed pages/*.html
var pageFS embed.FS

const unexpectedPageError = "An unexpected error occurred. Please contact support."

// emailActions maps the action segment of a notification link to its trigger
var emailActions = map[string]struct {
	trigger workflow.Trigger
	label   string
}{
	"manager-approve": {workflow.TriggerManagerApprove, "approve this travel request as Manager"},
	"manager-reject":  {workflow.TriggerManagerReject, "reject this travel request as Manager"},
	"duhead-approve":  {workflow.TriggerDuHeadApprove, "approve this travel request as DU Head"},
	"duhead-reject":   {workflow.TriggerDuHeadReject, "reject this travel request as DU Head"},
	"select-ticket":   {workflow.TriggerSelectOption, "select this ticket option"},
}

type resultPage struct {
	Title   string
	Message string
	Class   string
}

type confirmPage struct {
	Action    string
	Label     string
	RequestID string
	Actor     string
	OptionID  string
	ActionURL string
}

func (s *Server) loadPages() error {
	tmpl, err := template.ParseFS(pageFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse pages: %w", err)
	}
	s.router.SetHTMLTemplate(tmpl)
	return nil
}

// pageClass picks the stylesheet class for a result title
func pageClass(title string) string {
	switch {
	case strings.Contains(title, "Successful"), strings.Contains(title, "Approved"):
		return "success"
	case strings.Contains(title, "Denied"), strings.Contains(title, "Error"), strings.Contains(title, "Rejected"):
		return "error"
	default:
		return "info"
	}
}

func (h *Handlers) renderResult(c *gin.Context, status int, title, message string) {
	c.HTML(status, "result.html", resultPage{
		Title:   title,
		Message: message,
		Class:   pageClass(title),
	})
}

// ConfirmAction handles GET /confirm-action.html, the landing page of every
// notification link. Nothing changes until the recipient confirms.
func (h *Handlers) ConfirmAction(c *gin.Context) {
	action := c.Query("action")
	requestID := strings.TrimSpace(c.Query("requestId"))
	actor := strings.TrimSpace(c.Query("intendedActor"))
	optionID := strings.TrimSpace(c.Query("optionId"))

	def, ok := emailActions[action]
	if !ok || requestID == "" || actor == "" || (def.trigger == workflow.TriggerSelectOption && optionID == "") {
		h.renderResult(c, http.StatusBadRequest, "Error", "Invalid action link: Required information is missing.")
		return
	}

	query := url.Values{}
	query.Set("requestId", requestID)
	query.Set("actorEmail", actor)
	if optionID != "" {
		query.Set("optionId", optionID)
	}

	c.HTML(http.StatusOK, "confirm.html", confirmPage{
		Action:    action,
		Label:     def.label,
		RequestID: requestID,
		Actor:     actor,
		OptionID:  optionID,
		ActionURL: "/api/email-actions/" + url.PathEscape(action) + "?" + query.Encode(),
	})
}

// EmailAction handles GET /api/email-actions/:action and answers with an
// HTML result page rather than JSON
func (h *Handlers) EmailAction(c *gin.Context) {
	def, ok := emailActions[c.Param("action")]
	if !ok {
		h.renderResult(c, http.StatusBadRequest, "Error", "Invalid action link: Unknown action.")
		return
	}

	requestID := strings.TrimSpace(c.Query("requestId"))
	actorEmail := strings.TrimSpace(c.Query("actorEmail"))
	if requestID == "" || actorEmail == "" {
		h.renderResult(c, http.StatusBadRequest, "Error", "Invalid action link: Required information is missing.")
		return
	}

	var (
		outcome *service.ApprovalOutcome
		err     error
	)
	ctx := c.Request.Context()

	if def.trigger == workflow.TriggerSelectOption {
		optionID, parseErr := strconv.ParseInt(c.Query("optionId"), 10, 64)
		if parseErr != nil || optionID <= 0 {
			h.renderResult(c, http.StatusBadRequest, "Error", "Invalid action link: Missing information.")
			return
		}
		outcome, err = h.services.Approvals.SelectOptionByLink(ctx, requestID, optionID, actorEmail)
	} else {
		outcome, err = h.services.Approvals.Decide(ctx, service.ApprovalCommand{
			RequestID: requestID,
			Trigger:   def.trigger,
			Actor:     service.ActorRef{Email: actorEmail},
			Channel:   service.ChannelEmailLink,
		})
	}

	if err != nil {
		status, title, message := h.pageError(c, err)
		h.renderResult(c, status, title, message)
		return
	}
	h.renderResult(c, http.StatusOK, outcome.Title, outcome.Message)
}

// pageError maps a failure to the status and wording of a result page. A
// link clicked against a request in an unrelated state is a 409 but keeps
// the informational styling.
func (h *Handlers) pageError(c *gin.Context, err error) (int, string, string) {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, apperr.Title(err, service.TitleNotApplicable), apperr.Message(err, "")
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, apperr.Title(err, "Error"), apperr.Message(err, "")
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, apperr.Title(err, "Not Found"), apperr.Message(err, "")
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, apperr.Title(err, "Action Denied"), apperr.Message(err, "")
	case errors.Is(err, apperr.ErrUnprocessable):
		return http.StatusUnprocessableEntity, apperr.Title(err, "Error"), apperr.Message(err, "")
	}

	h.logger.Error("Email action failed",
		"path", c.Request.URL.Path,
		"request_id", c.GetString(requestIDKey),
		"error", err,
	)
	return http.StatusInternalServerError, "Error", unexpectedPageError
}
