package bootstrap

import (
	"context"
	"log/slog"

	"github.com/vijayaragavaan2065/faculty-pulse-view/config"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/observability/statsd"
)

// BuildMetrics returns the StatsD sink, or nil when metrics are disabled.
// A sink that cannot be dialed is logged and skipped.
func BuildMetrics(ctx context.Context, cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.WarnContext(ctx, "metrics disabled", "error", err)
		return nil
	}
	logger.InfoContext(ctx, "metrics enabled", "address", cfg.StatsdAddress, "prefix", cfg.Prefix)
	return client
}
