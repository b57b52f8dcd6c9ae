package internal

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server needs at boot. Values come from the
// environment, with a .env file honored in development.
type Config struct {
	Env         string
	LogLevel    string
	Port        uint16
	DatabaseUrl string
	Gateway     GatewayConfig
	Audit       AuditConfig
	Sentry      SentryConfig
}

// GatewayConfig holds payment-gateway webhook settings.
type GatewayConfig struct {
	// WebhookSecret keys the HMAC-SHA256 signature over webhook bodies.
	// An empty secret is a server misconfiguration: the webhook endpoint
	// refuses to process events and alerts instead of accepting them
	// unverified.
	WebhookSecret string
}

// AuditConfig holds activity-auditor settings. When NatsURL is empty audit
// events fall back to the structured log.
type AuditConfig struct {
	NatsURL string
	Subject string
}

// SentryConfig holds error-tracking settings.
type SentryConfig struct {
	DSN         string
	Environment string
}

// NewConfig loads configuration from the environment (and .env if present).
func NewConfig() (*Config, error) {
	// Best-effort: absence of a .env file is normal outside development.
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("ENV", "dev")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("AUDIT_SUBJECT", "lapidary.audit")

	cfg := &Config{
		Env:         viper.GetString("ENV"),
		LogLevel:    viper.GetString("LOG_LEVEL"),
		Port:        uint16(viper.GetUint32("PORT")),
		DatabaseUrl: viper.GetString("DATABASE_URL"),
		Gateway: GatewayConfig{
			WebhookSecret: viper.GetString("WEBHOOK_SECRET"),
		},
		Audit: AuditConfig{
			NatsURL: viper.GetString("NATS_URL"),
			Subject: viper.GetString("AUDIT_SUBJECT"),
		},
		Sentry: SentryConfig{
			DSN:         viper.GetString("SENTRY_DSN"),
			Environment: viper.GetString("SENTRY_ENVIRONMENT"),
		},
	}

	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.Env
	}

	return cfg, nil
}
