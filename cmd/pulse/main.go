// Command pulse serves the academic dashboard console: the session core,
// its route guards and the /api/ proxy behind one loopback HTTP server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vijayaragavaan2065/faculty-pulse-view/config"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.ErrorContext(ctx, "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
	logger := bootstrap.InitLogger(cfg.Observability.Logging, os.Stdout)

	if err := run(ctx, cfg, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	logger.InfoContext(ctx, "starting pulse console",
		"auth_mode", cfg.Auth.Mode,
		"session_store", cfg.Store.Backend,
		"addr", cfg.HTTP.Addr,
		"dev", cfg.IsDev,
	)

	app, err := bootstrap.NewApp(ctx, bootstrap.AppOptions{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close backends failed", "error", cerr)
		}
	}()

	sess := app.Sessions.Rehydrate(ctx)
	logger.InfoContext(ctx, "session ready", "status", sess.Status, "role", sess.Role())

	server := bootstrap.NewServer(cfg.HTTP, app.Handler)
	return bootstrap.Serve(ctx, server, nil, cfg.HTTP.ShutdownTimeout, logger)
}
