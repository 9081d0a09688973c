package config

import (
	"github.com/garyjia/travel-approval/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	cfg := container.DefaultConfig()

	cfg.Database = container.DatabaseConfig{
		Path:            c.Database.Path,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
	cfg.Auth = container.AuthConfig{
		JWTSecret:  c.Auth.JWTSecret,
		TokenTTL:   c.Auth.TokenTTL,
		Issuer:     c.Auth.Issuer,
		BcryptCost: c.Auth.BcryptCost,
	}
	cfg.Email = container.EmailConfig{
		Enabled:       c.Email.Enabled,
		SMTPHost:      c.Email.SMTPHost,
		SMTPPort:      c.Email.SMTPPort,
		Username:      c.Email.Username,
		Password:      c.Email.Password,
		FromAddress:   c.Email.FromAddress,
		FromName:      c.Email.FromName,
		Timeout:       c.Email.Timeout,
		ActionBaseURL: c.Email.ActionBaseURL,
		Signature:     c.Email.Signature,
	}
	cfg.Storage = container.StorageConfig{
		DocumentsDir: c.Storage.DocumentsDir,
	}
	cfg.Dispatch = container.DispatchConfig{
		HandlerTimeout: c.Dispatch.HandlerTimeout,
		MaxInFlight:    c.Dispatch.MaxInFlight,
	}
	cfg.Server = container.ServerConfig{
		Host:           c.Server.Host,
		Port:           c.Server.Port,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		AllowedOrigins: c.Server.AllowedOrigins,
	}

	return cfg
}
