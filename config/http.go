package config

import (
	"strings"
	"time"
)

// HTTPConfig contains console server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the console to. Loopback by default:
	// the console serves the single session of this process.
	Addr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080" validate:"required,hostname_port"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"15s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
}

// APIConfig describes the academic API that verifies credentials and
// serves data behind the /api/ proxy.
type APIConfig struct {
	BaseURL string        `env:"BASE_URL" validate:"omitempty,url"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`

	LoginPath string `env:"LOGIN_PATH" envDefault:"/api/auth/login"`
	MePath    string `env:"ME_PATH"    envDefault:"/api/auth/me"`

	// JMESPath expressions locating fields in verifier responses.
	TokenExpr string `env:"TOKEN_EXPR" envDefault:"access_token"`
	UserExpr  string `env:"USER_EXPR"  envDefault:"user"`
	MeExpr    string `env:"ME_EXPR"    envDefault:"@"`
}

// Sanitize trims the base URL and bounds the timeout.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
	if a.Timeout > 2*time.Minute {
		a.Timeout = 2 * time.Minute
	}
}
