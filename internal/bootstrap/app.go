package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/vijayaragavaan2065/faculty-pulse-view/config"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/apiclient"
	httpx "github.com/vijayaragavaan2065/faculty-pulse-view/internal/http"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/observability/statsd"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/service"
)

// AppOptions contains what NewApp needs. Store and Verifier override the
// configured backends.
type AppOptions struct {
	Config config.AppConfig
	Logger *slog.Logger

	Store    ports.SessionStore
	Verifier ports.CredentialVerifier
	// Transport is the innermost outbound round tripper.
	Transport http.RoundTripper
}

// App is the assembled session core with its outbound clients and the
// console handler.
type App struct {
	Config   config.AppConfig
	Logger   *slog.Logger
	Sessions *service.SessionService

	// BaseClient never carries the session token.
	BaseClient *http.Client
	// APIClient attaches the session token and logs out on 401.
	APIClient *http.Client
	Handler   http.Handler

	DemoAccounts []httpx.DemoAccount

	closers []func() error
}

// NewApp wires configuration into a ready App. The session starts
// anonymous; callers decide when to Rehydrate.
func NewApp(ctx context.Context, opts AppOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	app := &App{Config: cfg, Logger: logger}

	base, err := apiclient.NewBase(apiclient.Options{Timeout: cfg.API.Timeout, Transport: opts.Transport})
	if err != nil {
		return nil, err
	}
	app.BaseClient = base

	verifier := Verifier{CredentialVerifier: opts.Verifier}
	if verifier.CredentialVerifier == nil {
		verifier, err = BuildVerifier(ctx, VerifierConfig{Auth: cfg.Auth, API: cfg.API, Client: base, Logger: logger})
		if err != nil {
			return nil, err
		}
	}
	app.DemoAccounts = verifier.DemoAccounts

	store := opts.Store
	if store == nil {
		built, buildErr := BuildStore(ctx, StoreConfig{
			Store:    cfg.Store,
			Postgres: cfg.Postgres,
			Redis:    cfg.Redis,
			Logger:   logger,
		})
		if buildErr != nil {
			return nil, buildErr
		}
		store = built
		app.closers = append(app.closers, built.Close)
	}

	var sink statsd.Sink
	if client := BuildMetrics(ctx, cfg.Observability.Metrics, logger); client != nil {
		sink = client
		app.closers = append(app.closers, client.Close)
	}

	app.Sessions = service.NewSessionService(service.SessionServiceOptions{
		Verifier: verifier.CredentialVerifier,
		Store:    store,
		Logger:   logger,
		Metrics:  sink,
	})
	app.APIClient = apiclient.NewAuthorized(base, app.Sessions, logger)

	var api http.Handler
	if cfg.API.BaseURL != "" {
		target, parseErr := url.Parse(cfg.API.BaseURL)
		if parseErr != nil {
			_ = app.Close()
			return nil, fmt.Errorf("parse api base url: %w", parseErr)
		}
		api = httpx.NewAPIProxy(httpx.APIProxyOptions{
			Target:    target,
			Transport: app.APIClient.Transport,
			Logger:    logger,
		})
	}

	app.Handler, err = httpx.NewRouter(httpx.RouterServices{
		Sessions:     app.Sessions,
		API:          api,
		DemoAccounts: verifier.DemoAccounts,
		DemoPassword: verifier.DemoPassword,
		Logger:       logger,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("build router: %w", err)
	}
	return app, nil
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
