package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"leadwire/internal/constants"
	"leadwire/internal/models"
)

var (
	ErrMissingDBPath = models.ConfigError{Message: "missing database path"}
)

func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path) // #nosec G304 - Path comes from the operator's -config flag
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultIdleTimeoutSec
	}
	if c.Server.ShutdownGraceSec <= 0 {
		c.Server.ShutdownGraceSec = constants.DefaultShutdownGraceSec
	}
	if c.Server.MaxRequestBytes <= 0 {
		c.Server.MaxRequestBytes = constants.DefaultMaxRequestBytes
	}

	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = constants.DefaultGatewayAPIBaseURL
	}
	if c.Gateway.TimeoutSec <= 0 {
		c.Gateway.TimeoutSec = constants.DefaultGatewayTimeoutSec
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultRetryMaxAttempts
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Server.Port = p
		}
	}

	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}

	// SECURITY: Webhook secrets should be set via environment variables
	if secret := os.Getenv("LEADWIRE_WEBHOOK_SECRET"); secret != "" {
		c.Server.WebhookSecret = secret
	}

	if url := os.Getenv("GATEWAY_API_URL"); url != "" {
		c.Gateway.BaseURL = url
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("LEADWIRE_ENV") == "production"

	if isProduction {
		// In production, webhook secrets are mandatory
		if c.Server.WebhookSecret == "" {
			return models.ConfigError{Message: "webhook secret is required in production (set LEADWIRE_WEBHOOK_SECRET environment variable)"}
		}

		if len(c.Server.WebhookSecret) < 32 {
			return models.ConfigError{Message: "webhook secret must be at least 32 characters long"}
		}

		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else {
		if c.Server.WebhookSecret == "" {
			fmt.Fprintf(os.Stderr, "WARNING: webhook secret not set. Set LEADWIRE_WEBHOOK_SECRET environment variable for security.\n")
		}
	}

	return nil
}
