package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/infrastructure/metrics"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-approval/pkg/database"
)

var errNotInitialized = errors.New("not initialized")

// Container owns the travel approval components and their lifecycle
type Container struct {
	config *Config
	logger *zap.Logger

	conn         *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	security *SecurityBundle
	email    *EmailBundle
	metrics  *metrics.Metrics

	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	releasers []releaser
	ready     atomic.Bool
	closed    atomic.Bool
}

// RepositoryBundle holds the sqlite-backed repositories
type RepositoryBundle struct {
	Requests port.TravelRequestRepository
	Audit    port.AuditLogRepository
	Options  port.TicketOptionRepository
	Airlines port.AirlineRepository
	Projects port.ProjectRepository
	Users    port.UserRepository
	Statuses port.StatusRepository
}

// ServiceBundle holds the services the HTTP layer and CLI call into
type ServiceBundle struct {
	Engine       workflow.Engine
	Audit        service.AuditService
	Requests     service.TravelRequestService
	Options      service.TicketOptionService
	Approvals    service.ApprovalService
	Documents    service.TicketDocumentService
	Auth         service.AuthService
	Notification service.NotificationService
}

// HealthStatus is the aggregate served by /health
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer validates cfg. Nothing is opened until Start.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("container config is required")
	case logger == nil:
		return nil, errors.New("container logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("container config: %w", err)
	}
	return &Container{config: cfg, logger: logger}, nil
}

// component is one startup stage. init returns the function that releases
// what it acquired, or nil when there is nothing to release.
type component struct {
	name string
	init func(ctx context.Context) (release func() error, err error)
}

type releaser struct {
	name    string
	release func() error
}

func (c *Container) components() []component {
	return []component{
		{name: "database", init: c.startDatabase},
		{name: "security", init: c.startSecurity},
		{name: "email", init: c.startEmail},
		{name: "events", init: c.startEvents},
		{name: "services", init: c.startServices},
	}
}

// Start initializes components in dependency order. A failing stage
// releases everything started before it.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed.Load():
		return errors.New("container has been closed")
	case c.ready.Load():
		return errors.New("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	for _, comp := range c.components() {
		release, err := comp.init(c.ctx)
		if err != nil {
			if unwindErr := c.unwind(); unwindErr != nil {
				c.logger.Warn("Partial startup cleanup failed", zap.Error(unwindErr))
			}
			c.cancel()
			return fmt.Errorf("start %s: %w", comp.name, err)
		}
		if release != nil {
			c.releasers = append(c.releasers, releaser{name: comp.name, release: release})
		}
		c.logger.Debug("Component started", zap.String("component", comp.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started", zap.Int("components", len(c.components())))
	return nil
}

// Close releases components in reverse start order. The dispatcher drains
// before the database it writes through goes away.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return errors.New("container already closed")
	}
	c.ready.Store(false)

	if c.cancel != nil {
		c.cancel()
	}

	if err := c.unwind(); err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Container closed")
	return nil
}

func (c *Container) unwind() error {
	var errs []error
	for i := len(c.releasers) - 1; i >= 0; i-- {
		r := c.releasers[i]
		if err := r.release(); err != nil {
			c.logger.Error("Failed to release component", zap.String("component", r.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", r.name, err))
		}
	}
	c.releasers = nil
	return errors.Join(errs...)
}

func (c *Container) startDatabase(ctx context.Context) (func() error, error) {
	bundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return nil, err
	}
	c.conn, c.db = bundle.Conn, bundle.TransactionMgr

	release := func() error {
		err := c.conn.Close()
		c.conn = nil
		return err
	}

	repos, err := ProvideRepositories(c.conn.DB, c.logger)
	if err != nil {
		return nil, errors.Join(err, release())
	}
	c.repositories = repos
	return release, nil
}

func (c *Container) startSecurity(context.Context) (func() error, error) {
	security, err := ProvideSecurity(&c.config.Auth, c.logger)
	if err != nil {
		return nil, err
	}
	c.security = security
	return nil, nil
}

func (c *Container) startEmail(context.Context) (func() error, error) {
	bundle, err := ProvideEmail(&c.config.Email, c.logger.Named("email"))
	if err != nil {
		return nil, err
	}
	c.email = bundle
	c.logger.Info("Email transport ready", zap.Bool("smtp_enabled", c.config.Email.Enabled))
	return nil, nil
}

func (c *Container) startEvents(context.Context) (func() error, error) {
	c.metrics = metrics.New()
	c.dispatcher = ProvideDispatcher(&c.config.Dispatch, c.logger)
	return c.dispatcher.Close, nil
}

func (c *Container) startServices(context.Context) (func() error, error) {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		Security:   c.security,
		Email:      c.email,
		Metrics:    c.metrics,
		EmailCfg:   &c.config.Email,
		Storage:    &c.config.Storage,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, err
	}
	c.services = services
	return nil, nil
}

// Ready reports whether Start completed and Close has not run
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health probes every component and reports the aggregate.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	probes := map[string]func() error{
		"database": func() error { return c.CheckDatabase(ctx) },
		"documents": func() error {
			return checkWritableDir(c.config.Storage.DocumentsDir)
		},
		"dispatcher": func() error {
			if c.dispatcher == nil {
				return errNotInitialized
			}
			return nil
		},
		"services": func() error {
			if c.services == nil {
				return errNotInitialized
			}
			return nil
		},
	}

	status := &HealthStatus{Overall: true, Components: make(map[string]ComponentHealth, len(probes))}
	for name, probe := range probes {
		if err := probe(); err != nil {
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
			continue
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}
	return status
}

// checkWritableDir creates dir when missing and fails if it is not a directory
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("documents directory unavailable: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// CheckDatabase pings the database; it is the probe behind /health.
func (c *Container) CheckDatabase(ctx context.Context) error {
	if c.conn == nil {
		return errNotInitialized
	}
	return c.conn.Health(ctx)
}

func (c *Container) DB() port.TransactionManager {
	return c.db
}

func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Security returns the token, password and policy components.
func (c *Container) Security() *SecurityBundle {
	return c.security
}

// Email returns the renderer and transport.
func (c *Container) Email() *EmailBundle {
	return c.email
}

// Metrics returns the Prometheus collectors.
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

func (c *Container) Services() *ServiceBundle {
	return c.services
}

func (c *Container) Logger() *zap.Logger {
	return c.logger
}

func (c *Container) Config() *Config {
	return c.config
}
