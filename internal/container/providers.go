package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/event"
	"github.com/garyjia/travel-approval/internal/email"
	"github.com/garyjia/travel-approval/internal/infrastructure/auth"
	"github.com/garyjia/travel-approval/internal/infrastructure/authz"
	"github.com/garyjia/travel-approval/internal/infrastructure/metrics"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/travel-approval/internal/infrastructure/storage"
	"github.com/garyjia/travel-approval/migrations"
	"github.com/garyjia/travel-approval/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// SecurityBundle holds token, password and policy components.
type SecurityBundle struct {
	Tokens *auth.JWTIssuer
	Hasher *auth.BcryptHasher
	Policy *authz.Enforcer
}

// EmailBundle holds the notification renderer and transport.
type EmailBundle struct {
	Renderer port.EmailRenderer
	Sender   port.EmailSender
}

// ProvideDatabase opens the SQLite database, applies the embedded
// migrations and wraps the connection in a transaction manager.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipMigrations {
		if _, err := database.NewMigrator(conn, logger).Run(ctx, migrations.FS); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Requests: repository.NewTravelRequestRepository(sqlDB, logger),
		Audit:    repository.NewAuditLogRepository(sqlDB, logger),
		Options:  repository.NewTicketOptionRepository(sqlDB, logger),
		Airlines: repository.NewAirlineRepository(sqlDB, logger),
		Projects: repository.NewProjectRepository(sqlDB, logger),
		Users:    repository.NewUserRepository(sqlDB, logger),
		Statuses: repository.NewStatusRepository(sqlDB, logger),
	}, nil
}

// ProvideSecurity builds the token issuer, password hasher and role policy.
func ProvideSecurity(cfg *AuthConfig, logger *zap.Logger) (*SecurityBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	tokens, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	policy, err := authz.NewEnforcer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy enforcer: %w", err)
	}

	return &SecurityBundle{
		Tokens: tokens,
		Hasher: auth.NewBcryptHasher(cfg.BcryptCost),
		Policy: policy,
	}, nil
}

// ProvideEmail builds the template renderer and picks SMTP delivery or the
// log sender depending on configuration.
func ProvideEmail(cfg *EmailConfig, logger *zap.Logger) (*EmailBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("email config is required")
	}

	renderer, err := email.NewRenderer(cfg.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to create email renderer: %w", err)
	}

	if !cfg.Enabled {
		logger.Warn("Email delivery disabled, notifications will only be logged")
		return &EmailBundle{Renderer: renderer, Sender: email.NewLogSender(logger)}, nil
	}

	sender, err := email.NewSMTPSender(email.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.Username,
		Password:    cfg.Password,
		FromAddress: cfg.FromAddress,
		FromName:    cfg.FromName,
		Timeout:     cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp sender: %w", err)
	}

	return &EmailBundle{Renderer: renderer, Sender: sender}, nil
}

// ProvideDocumentStore creates the local ticket document store.
func ProvideDocumentStore(cfg *StorageConfig, logger *zap.Logger) port.DocumentStore {
	dir := DefaultConfig().Storage.DocumentsDir
	if cfg != nil && cfg.DocumentsDir != "" {
		dir = cfg.DocumentsDir
	}
	return storage.NewLocalDocumentStore(dir, logger.Named("storage"))
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(cfg *DispatchConfig, logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(NewLogger(logger.Named("dispatcher"))),
		dispatcher.WithHandlerTimeout(cfg.HandlerTimeout),
		dispatcher.WithMaxInFlight(cfg.MaxInFlight),
	)
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Security   *SecurityBundle
	Email      *EmailBundle
	Metrics    *metrics.Metrics
	EmailCfg   *EmailConfig
	Storage    *StorageConfig
	Logger     *zap.Logger
}

// ProvideServices creates the transition engine and every application
// service, and subscribes the notification and metrics handlers.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.TxManager == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("transaction manager and dispatcher are required")
	}

	log := NewLogger(deps.Logger.Named("service"))
	repos := deps.Repos

	auditSvc := service.NewAuditService(repos.Audit, log)

	engine := workflow.NewEngine(
		repos.Requests,
		repos.Projects,
		deps.TxManager,
		auditSvc,
		NewLogger(deps.Logger.Named("workflow")),
		workflow.WithDispatcher(deps.Dispatcher),
	)

	options := service.NewTicketOptionService(engine, repos.Options, repos.Requests, repos.Users, deps.TxManager, auditSvc, log)

	var recorder port.NotificationRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	bundle := &ServiceBundle{
		Engine: engine,
		Audit:  auditSvc,
		Requests: service.NewTravelRequestService(
			engine, repos.Requests, repos.Projects, repos.Users, repos.Airlines,
			deps.TxManager, auditSvc, deps.Dispatcher, log,
		),
		Options:   options,
		Approvals: service.NewApprovalService(engine, options, repos.Users, log),
		Documents: service.NewTicketDocumentService(
			repos.Requests, repos.Users,
			ProvideDocumentStore(deps.Storage, deps.Logger),
			log,
		),
		Auth:      service.NewAuthService(repos.Users, deps.Security.Hasher, deps.Security.Tokens, log),
		Notification: service.NewNotificationService(
			repos.Requests, repos.Users, repos.Projects, repos.Options,
			deps.Email.Renderer, deps.Email.Sender, recorder,
			deps.EmailCfg.ActionBaseURL, NewLogger(deps.Logger.Named("notification")),
		),
	}

	deps.Dispatcher.SubscribeNamed(event.TypeRequestCreated, "notification", bundle.Notification.Handle)
	deps.Dispatcher.SubscribeNamed(event.TypeTransitionRecorded, "notification", bundle.Notification.Handle)
	if deps.Metrics != nil {
		deps.Metrics.Subscribe(deps.Dispatcher)
	}

	return bundle, nil
}
