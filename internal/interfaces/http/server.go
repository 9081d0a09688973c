// Package http is the transport adapter: a JSON API for the web client and
// HTML pages for links clicked in notification emails.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/infrastructure/auth"
)

const shutdownTimeout = 10 * time.Second

// Logger is the key/value logger handlers write to
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authorizer answers role permission questions
type Authorizer interface {
	Allowed(role, resource, action string) (bool, error)
}

// HTTPObserver counts served requests
type HTTPObserver interface {
	ObserveHTTP(method, route string, code int)
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	Version        string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		AllowedOrigins: []string{"http://localhost:3000"},
		Version:        "1.0.0",
	}
}

// Services are the application services the handlers call
type Services struct {
	Requests  service.TravelRequestService
	Options   service.TicketOptionService
	Approvals service.ApprovalService
	Documents service.TicketDocumentService
	Audit     service.AuditService
	Auth      service.AuthService
	Statuses  port.StatusRepository
}

// Security groups token verification and role policy
type Security struct {
	Tokens TokenParser
	Policy Authorizer
}

// ServerOption configures optional server features
type ServerOption func(*Server)

// WithMetrics mounts handler on /metrics and counts requests through observer
func WithMetrics(observer HTTPObserver, handler http.Handler) ServerOption {
	return func(s *Server) {
		s.observer = observer
		s.metricsHandler = handler
	}
}

// WithHealthCheck adds a dependency probe to /health
func WithHealthCheck(check HealthCheck) ServerOption {
	return func(s *Server) {
		s.healthChecks = append(s.healthChecks, check)
	}
}

// Server is the HTTP server adapter
type Server struct {
	config         ServerConfig
	httpServer     *http.Server
	router         *gin.Engine
	handler        http.Handler
	services       Services
	security       Security
	observer       HTTPObserver
	metricsHandler http.Handler
	healthChecks   []HealthCheck
	logger         Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, security Security, logger Logger, opts ...ServerOption) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		security: security,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(server)
	}

	if err := server.loadPages(); err != nil {
		return nil, err
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.handler = cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}).Handler(router)

	return server, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery(), s.requestIDMiddleware(), s.accessLog())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := newHandlers(s.services, s.logger)

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/confirm-action.html", h.ConfirmAction)
	if s.metricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	api := s.router.Group("/api")
	api.POST("/auth/login", h.Login)
	api.GET("/statuses", h.ListStatuses)
	api.GET("/email-actions/:action", h.EmailAction)

	approvals := api.Group("/approvals/:id", s.optionalAuth(), s.require(resourceApproval, actionDecide))
	{
		approvals.PUT("/manager/approve", h.ManagerApprove)
		approvals.PUT("/manager/reject", h.ManagerReject)
		approvals.PUT("/duhead/approve", h.DuHeadApprove)
		approvals.PUT("/duhead/reject", h.DuHeadReject)
	}

	secured := api.Group("", s.requireAuth())

	secured.POST("/users", s.require(resourceUser, actionWrite), h.Register)

	requests := secured.Group("/travelrequests")
	{
		requests.POST("", s.require(resourceTravelRequest, actionWrite), h.CreateTravelRequest)
		requests.GET("/mine", s.require(resourceTravelRequest, actionRead), h.ListMyTravelRequests)
		requests.GET("/:id", s.require(resourceTravelRequest, actionRead), h.GetTravelRequest)
		requests.GET("/:id/timeline", s.require(resourceTravelRequest, actionRead), h.Timeline)
		requests.POST("/:id/edit", s.require(resourceTravelRequest, actionWrite), h.EditTravelRequest)
		requests.PUT("/:id/cancel", s.require(resourceTravelRequest, actionWrite), h.CancelTravelRequest)
		requests.PUT("/:id/feedback", s.require(resourceTravelRequest, actionWrite), h.SubmitFeedback)
		requests.PUT("/:id/uploadticketdetails", s.require(resourceTicket, actionUpload), h.UploadTicketDetails)
		requests.POST("/:id/ticketdocument", s.require(resourceTicket, actionUpload), h.UploadTicketDocument)
		requests.GET("/:id/ticketdocument", s.require(resourceTravelRequest, actionRead), h.DownloadTicketDocument)

		options := requests.Group("/:id/ticketoptions")
		options.GET("", s.require(resourceTicketOption, actionRead), h.ListTicketOptions)
		options.POST("", s.require(resourceTicketOption, actionWrite), h.CreateTicketOption)
		options.DELETE("/all", s.require(resourceTicketOption, actionWrite), h.DeleteAllTicketOptions)
		options.GET("/:optionId", s.require(resourceTicketOption, actionRead), h.GetTicketOption)
		options.PUT("/:optionId", s.require(resourceTicketOption, actionWrite), h.EditTicketOption)
		options.PUT("/:optionId/select", s.require(resourceTicketOption, actionSelect), h.SelectTicketOption)
		options.DELETE("/:optionId", s.require(resourceTicketOption, actionWrite), h.DeleteTicketOption)
	}

	audits := secured.Group("/auditlogs", s.require(resourceAuditLog, actionRead))
	{
		audits.GET("/:logId", h.GetAuditLog)
		audits.GET("/request/:id", h.ListAuditLogs)
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// healthCheck handles GET /health
func (s *Server) healthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.config.Version,
	}

	for i, check := range s.healthChecks {
		if err := check(c.Request.Context()); err != nil {
			s.logger.Error("Health check failed", "check", i, "error", err)
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response, Error: err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: response})
}

// Start serves until ctx is cancelled, then shuts down within shutdownTimeout
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.Address(),
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Travel approval API listening", "address", s.httpServer.Addr)
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("Travel approval API stopped unexpectedly", "error", err)
		return err
	case <-ctx.Done():
		return s.Stop()
	}
}

// Stop drains open connections. It is a no-op before Start.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Travel approval API shutdown incomplete", "error", err)
		return err
	}
	s.logger.Info("Travel approval API stopped")
	return nil
}

// Router exposes the gin engine without the CORS wrapper
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler returns the router wrapped with CORS
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
