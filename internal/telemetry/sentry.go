package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// SentryConfig holds configuration for Sentry error tracking.
type SentryConfig struct {
	// DSN is the Sentry Data Source Name. Empty disables capture.
	DSN string

	// Environment identifies the deployment environment (dev, staging, prod).
	Environment string
}

var sentryEnabled bool

// InitSentry initializes error tracking. Returns a flush function to call on
// shutdown. With no DSN configured everything becomes a no-op.
func InitSentry(cfg SentryConfig, logger zerolog.Logger) (func(), error) {
	if cfg.DSN == "" {
		logger.Info().Msg("sentry disabled, no DSN configured")
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		SampleRate:  1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentryEnabled = true
	logger.Info().Str("environment", cfg.Environment).Msg("sentry initialized")

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports an error with optional key/value context. Safe to
// call when Sentry is disabled.
func CaptureError(err error, extras map[string]interface{}) {
	if !sentryEnabled || err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		sentry.CaptureException(err)
	})
}
