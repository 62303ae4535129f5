package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vijayaragavaan2065/faculty-pulse-view/config"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/apiverifier"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/authroles"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/devauth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/oidc"
	httpx "github.com/vijayaragavaan2065/faculty-pulse-view/internal/http"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

// VerifierConfig contains dependencies for building the credential verifier.
type VerifierConfig struct {
	Auth config.AuthConfig
	API  config.APIConfig
	// Client is the unauthenticated outbound client. It must not carry the
	// session's bearer token.
	Client *http.Client
	Logger *slog.Logger
}

// Verifier bundles the selected credential verifier with the demo
// accounts the login page advertises in mock mode.
type Verifier struct {
	ports.CredentialVerifier
	DemoAccounts []httpx.DemoAccount
	DemoPassword string
}

// BuildVerifier selects the credential verifier for AUTH_MODE.
func BuildVerifier(ctx context.Context, cfg VerifierConfig) (Verifier, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock, "":
		return buildDevVerifier(cfg.Auth.DevAuth, logger)
	case config.AuthModeAPI:
		v, err := apiverifier.New(apiverifier.Config{
			BaseURL:   cfg.API.BaseURL,
			LoginPath: cfg.API.LoginPath,
			MePath:    cfg.API.MePath,
			TokenExpr: cfg.API.TokenExpr,
			UserExpr:  cfg.API.UserExpr,
			MeExpr:    cfg.API.MeExpr,
			Client:    cfg.Client,
			Logger:    logger,
		})
		if err != nil {
			return Verifier{}, fmt.Errorf("api verifier: %w", err)
		}
		logger.InfoContext(ctx, "credential verifier ready", "mode", cfg.Auth.Mode, "base_url", cfg.API.BaseURL)
		return Verifier{CredentialVerifier: v}, nil
	case config.AuthModeOIDC:
		return buildOIDCVerifier(ctx, cfg, logger)
	default:
		return Verifier{}, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildDevVerifier(cfg config.DevAuthConfig, logger *slog.Logger) (Verifier, error) {
	p, err := devauth.NewProvider(devauth.Config{Password: cfg.Password})
	if err != nil {
		return Verifier{}, fmt.Errorf("dev verifier: %w", err)
	}
	users := p.Users()
	accounts := make([]httpx.DemoAccount, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, httpx.DemoAccount{Email: u.Email, Role: u.Role})
	}
	logger.Warn("using demo credential verifier; do not expose this console publicly", "accounts", len(accounts))
	return Verifier{
		CredentialVerifier: p,
		DemoAccounts:       accounts,
		DemoPassword:       cfg.Password,
	}, nil
}

func buildOIDCVerifier(ctx context.Context, cfg VerifierConfig, logger *slog.Logger) (Verifier, error) {
	if cfg.Auth.OIDC.DiscoveryURL == "" || cfg.Auth.OIDC.ClientID == "" {
		return Verifier{}, errors.New("oidc verifier: discovery URL and client ID are required")
	}
	mapper, err := authroles.Parse(cfg.Auth.OIDC.GroupRoles)
	if err != nil {
		return Verifier{}, fmt.Errorf("oidc verifier: %w", err)
	}
	p, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     cfg.Auth.OIDC.ClientID,
		ClientSecret: cfg.Auth.OIDC.ClientSecret,
		Scope:        cfg.Auth.OIDC.Scope,
		DiscoveryURL: cfg.Auth.OIDC.DiscoveryURL,
		RoleClaim:    cfg.Auth.OIDC.RoleClaim,
		Roles:        mapper,
		HTTPClient:   cfg.Client,
	})
	if err != nil {
		return Verifier{}, fmt.Errorf("oidc verifier: %w", err)
	}
	logger.InfoContext(ctx, "credential verifier ready", "mode", config.AuthModeOIDC, "groups_mapped", len(mapper.Groups))
	return Verifier{CredentialVerifier: p}, nil
}
