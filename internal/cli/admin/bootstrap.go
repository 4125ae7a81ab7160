package admin

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/cloo-solutions/admitbot/internal/config"
	"github.com/cloo-solutions/admitbot/internal/logger"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
)

// bootstrap loads configuration, installs the global logger and starts
// Sentry when a DSN is configured. The returned func flushes Sentry.
func bootstrap() (*config.Config, zerolog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log := logger.Init(logger.Config{
		Level:      level,
		Pretty:     cfg.LogPretty,
		Output:     os.Stderr,
		WithCaller: cfg.Debug,
	})

	flush := func() {}
	if cfg.SentryDSN != "" {
		// 10% sampling in production, everything elsewhere
		sampleRate := 1.0
		if cfg.Environment == "production" {
			sampleRate = 0.1
		}
		f, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
			Logger:           log,
		})
		if err != nil {
			log.Warn().Err(err).Msg("telemetry init failed, continuing without tracing")
		} else {
			flush = f
		}
	}

	return cfg, log, flush, nil
}
