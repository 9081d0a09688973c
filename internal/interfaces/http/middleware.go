package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/domain/event"
	"github.com/garyjia/travel-approval/internal/infrastructure/auth"
	"github.com/garyjia/travel-approval/internal/infrastructure/authz"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	claimsKey       = "claims"
)

const (
	resourceTravelRequest = authz.ResourceTravelRequest
	resourceTicketOption  = authz.ResourceTicketOption
	resourceTicket        = authz.ResourceTicket
	resourceApproval      = authz.ResourceApproval
	resourceAuditLog      = authz.ResourceAuditLog
	resourceUser          = authz.ResourceUser

	actionRead   = authz.ActionRead
	actionWrite  = authz.ActionWrite
	actionSelect = authz.ActionSelect
	actionDecide = authz.ActionDecide
	actionUpload = authz.ActionUpload
)

// accessLog records one entry per request, at Warn for 4xx and Error for 5xx,
// and feeds the HTTP metrics
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if s.observer != nil {
			s.observer.ObserveHTTP(c.Request.Method, c.FullPath(), status)
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			s.logger.Warn("HTTP request", fields...)
		default:
			s.logger.Info("HTTP request", fields...)
		}
	}
}

// requestIDMiddleware tags each request with an id that also becomes the
// correlation id of any event it raises
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(event.ContextWithCorrelationID(c.Request.Context(), id))
		c.Next()
	}
}

// requireAuth rejects requests without a valid bearer token
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if !s.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

// optionalAuth verifies a bearer token when one is sent and lets anonymous
// requests through
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" && !s.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context, token string) bool {
	if s.security.Tokens == nil {
		abort(c, http.StatusUnauthorized, "authentication is not configured")
		return false
	}
	claims, err := s.security.Tokens.Parse(token)
	if err != nil {
		abort(c, http.StatusUnauthorized, "invalid or expired token")
		return false
	}
	c.Set(claimsKey, claims)
	return true
}

// require enforces the role policy for authenticated callers. Anonymous
// callers on optionally authenticated routes pass through to the workflow
// checks.
func (s *Server) require(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFrom(c)
		if claims == nil || s.security.Policy == nil {
			c.Next()
			return
		}

		ok, err := s.security.Policy.Allowed(claims.Role, resource, action)
		if err != nil {
			s.logger.Error("Policy check failed", "resource", resource, "action", action, "error", err)
			abort(c, http.StatusInternalServerError, "An unexpected error occurred.")
			return
		}
		if !ok {
			abort(c, http.StatusForbidden, "Your role is not permitted to perform this action.")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func claimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// actorFrom prefers the verified token over a self-declared email
func actorFrom(c *gin.Context, fallbackEmail string) service.ActorRef {
	if claims := claimsFrom(c); claims != nil {
		return service.ActorRef{UserID: claims.UserID}
	}
	return service.ActorRef{Email: strings.TrimSpace(fallbackEmail)}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: message})
}
