package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AppConfig is the root configuration for the pulse console and CLI.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: credential verifier selection and settings
//   - store.go: persisted session store and its backends
//   - http.go: console server and outbound API client
//   - observability.go: logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth  AuthConfig
	Store StoreConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig
	API  APIConfig `envPrefix:"API_"`

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Store.Sanitize()
	c.HTTP.Sanitize()
	c.API.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks NODE_ENV as a fallback for DEV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// Validate checks the sanitized configuration with struct tags and the
// cross-field rules that depend on the selected modes.
func (c *AppConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	var errs []error
	switch c.Auth.Mode {
	case AuthModeAPI:
		if c.API.BaseURL == "" {
			errs = append(errs, errors.New("API_BASE_URL is required when AUTH_MODE=api"))
		}
	case AuthModeOIDC:
		if c.Auth.OIDC.DiscoveryURL == "" || c.Auth.OIDC.ClientID == "" {
			errs = append(errs, errors.New("OIDC_DISCOVERY_URL and OIDC_CLIENT_ID are required when AUTH_MODE=oidc"))
		}
	case AuthModeMock:
		if !c.IsDev && !c.Auth.AllowMockInProduction {
			errs = append(errs, errors.New("AUTH_MODE=mock requires DEV=true or AUTH_ALLOW_MOCK=true"))
		}
	}
	if c.Store.Backend == StoreBackendFile && c.Store.Dir == "" {
		errs = append(errs, errors.New("SESSION_STORE_DIR is required when SESSION_STORE=file"))
	}
	return errors.Join(errs...)
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
