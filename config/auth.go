package config

import (
	"fmt"
	"strings"
)

// AuthMode selects the credential verifier.
type AuthMode string

const (
	// AuthModeMock verifies against the built-in demo accounts.
	AuthModeMock AuthMode = "mock"
	// AuthModeAPI verifies against the academic API's login and me endpoints.
	AuthModeAPI AuthMode = "api"
	// AuthModeOIDC verifies with an OpenID Connect provider's password grant.
	AuthModeOIDC AuthMode = "oidc"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "mock", "api", "oidc":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: mock, api, oidc)", v)
	}
}

// DevAuthConfig controls the demo credential table used when AUTH_MODE=mock.
type DevAuthConfig struct {
	Password string `env:"PASSWORD" envDefault:"password123" validate:"required"`
}

// OIDCConfig contains OpenID Connect configuration (AUTH_MODE=oidc).
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL" validate:"omitempty,url"`
	// RoleClaim names the claim holding the application role directly.
	RoleClaim string `env:"ROLE_CLAIM" envDefault:"role"`
	// GroupRoles maps provider groups to roles: "group=role,group=role".
	GroupRoles string `env:"GROUP_ROLES"`
}

// AuthConfig groups authentication-related configuration.
type AuthConfig struct {
	Mode AuthMode `env:"AUTH_MODE" envDefault:"mock" validate:"required,oneof=mock api oidc"`

	// AllowMockInProduction permits the demo accounts outside dev mode.
	AllowMockInProduction bool `env:"AUTH_ALLOW_MOCK" envDefault:"false"`

	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
	OIDC    OIDCConfig    `envPrefix:"OIDC_"`
}

// Sanitize trims free-form values.
func (c *AuthConfig) Sanitize() {
	c.OIDC.DiscoveryURL = strings.TrimSpace(c.OIDC.DiscoveryURL)
	c.OIDC.ClientID = strings.TrimSpace(c.OIDC.ClientID)
	c.OIDC.RoleClaim = strings.TrimSpace(c.OIDC.RoleClaim)
	if strings.TrimSpace(c.OIDC.Scope) == "" {
		c.OIDC.Scope = "openid profile email"
	}
}
