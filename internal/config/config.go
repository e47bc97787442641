// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Cache (Redis). Optional: when unset, rate limiting and the
	// security event stream are disabled and every request is admitted.
	RedisURL string `env:"REDIS_URL"`

	// SendGrid transactional mail. When the key is unset, sends fail
	// with a configuration error (contact form returns 500, welcome
	// emails are skipped with a logged warning).
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	FromEmail      string `env:"FROM_EMAIL" envDefault:"sebastian@narratia.pl"`
	FromName       string `env:"FROM_NAME" envDefault:"Sebastian Proba - Narratia"`

	// Mailchimp list management.
	MailchimpAPIKey       string `env:"MAILCHIMP_API_KEY"`
	MailchimpServerPrefix string `env:"MAILCHIMP_SERVER_PREFIX" envDefault:"us1"`
	MailchimpAudienceID   string `env:"MAILCHIMP_AUDIENCE_ID"`

	// Contact form notifications go to the site owner.
	OwnerEmail string `env:"OWNER_EMAIL" envDefault:"sebastian.narratia@gmail.com"`

	// Public site base URL, used for download landing page links.
	BaseURL string `env:"BASE_URL" envDefault:"https://narratia.pl"`

	// Directory holding the published lead-magnet PDFs.
	DownloadsDir string `env:"DOWNLOADS_DIR" envDefault:"./downloads"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting master switch. Redis must also be configured for
	// limiting to take effect.
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://narratia.pl,https://www.narratia.pl")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB, forms are small)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RateLimitActive reports whether admission control is actually in
// effect: the switch is on and a backing store is configured.
func (c *Config) RateLimitActive() bool {
	return c.RateLimitEnabled && c.RedisURL != ""
}

// MailConfigured reports whether the SendGrid client has credentials.
func (c *Config) MailConfigured() bool {
	return c.SendGridAPIKey != ""
}

// ListConfigured reports whether the Mailchimp client has credentials
// and a target audience.
func (c *Config) ListConfigured() bool {
	return c.MailchimpAPIKey != "" && c.MailchimpAudienceID != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
