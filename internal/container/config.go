// Package container provides dependency injection and lifecycle management
// for the travel approval service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Token and password configuration
	Auth AuthConfig

	// Outbound email configuration
	Email EmailConfig

	// Ticket document storage configuration
	Storage StorageConfig

	// Server configuration
	Server ServerConfig

	// Event dispatch configuration
	Dispatch DispatchConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// SkipMigrations leaves the schema untouched on start
	SkipMigrations bool
}

// AuthConfig holds JWT and bcrypt settings.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

// EmailConfig holds SMTP and notification link settings.
type EmailConfig struct {
	// Enabled switches from the log sender to SMTP delivery
	Enabled bool

	SMTPHost    string
	SMTPPort    int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	Timeout     time.Duration

	// ActionBaseURL prefixes every approve, reject and select link
	ActionBaseURL string

	// Signature closes every message
	Signature string
}

// StorageConfig holds ticket document storage settings.
type StorageConfig struct {
	// DocumentsDir is the root under which ticket files are written
	DocumentsDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration

	// AllowedOrigins for CORS
	AllowedOrigins []string
}

// DispatchConfig holds event dispatcher settings.
type DispatchConfig struct {
	// HandlerTimeout bounds each asynchronous handler run
	HandlerTimeout time.Duration

	// MaxInFlight caps concurrent asynchronous handler runs
	MaxInFlight int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/travel.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			Issuer:     "travel-approval",
			BcryptCost: 12,
		},
		Email: EmailConfig{
			SMTPPort:      587,
			FromName:      "Travel Desk",
			Timeout:       15 * time.Second,
			ActionBaseURL: "http://localhost:8080",
		},
		Storage: StorageConfig{
			DocumentsDir: "data/documents",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Dispatch: DispatchConfig{
			HandlerTimeout: 30 * time.Second,
			MaxInFlight:    16,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Storage.DocumentsDir == "" {
		return fmt.Errorf("storage.documents_dir is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Email.Enabled && c.Email.SMTPHost == "" {
		return fmt.Errorf("email.smtp_host is required when email is enabled")
	}

	return nil
}
