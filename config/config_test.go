package config

import (
	"log/slog"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	var cfg AppConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: vars}))
	cfg.Sanitize()
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parse(t, map[string]string{"DEV": "true", "SESSION_STORE_DIR": "/tmp/pulse"})

	assert.True(t, cfg.IsDev)
	assert.Equal(t, AuthModeMock, cfg.Auth.Mode)
	assert.Equal(t, "password123", cfg.Auth.DevAuth.Password)
	assert.Equal(t, StoreBackendFile, cfg.Store.Backend)
	assert.Equal(t, "/tmp/pulse", cfg.Store.Dir)
	assert.Equal(t, "default", cfg.Store.Profile)
	assert.Equal(t, "pulse:session:", cfg.Store.RedisPrefix)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, "/api/auth/login", cfg.API.LoginPath)
	assert.Equal(t, "/api/auth/me", cfg.API.MePath)
	assert.Equal(t, "access_token", cfg.API.TokenExpr)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "pulse", cfg.Postgres.Name)
	assert.False(t, cfg.Observability.Metrics.IsEnabled())
	require.NoError(t, cfg.Validate())
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    AuthMode
		wantErr bool
	}{
		{"mock", AuthModeMock, false},
		{"API", AuthModeAPI, false},
		{" oidc ", AuthModeOIDC, false},
		{"oauth", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m AuthMode
			err := m.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestStoreBackend_FromEnv(t *testing.T) {
	cfg := parse(t, map[string]string{"SESSION_STORE": "Redis", "SESSION_REDIS_TTL": "-5s"})
	assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
	assert.Zero(t, cfg.Store.RedisTTL)

	var bad AppConfig
	err := env.ParseWithOptions(&bad, env.Options{Environment: map[string]string{"SESSION_STORE": "memcached"}})
	require.Error(t, err)
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "api mode needs base url",
			vars:    map[string]string{"AUTH_MODE": "api", "SESSION_STORE_DIR": "/tmp/p"},
			wantErr: "API_BASE_URL",
		},
		{
			name: "api mode configured",
			vars: map[string]string{"AUTH_MODE": "api", "API_BASE_URL": "https://api.example.edu/", "SESSION_STORE_DIR": "/tmp/p"},
		},
		{
			name:    "oidc mode needs discovery",
			vars:    map[string]string{"AUTH_MODE": "oidc", "SESSION_STORE_DIR": "/tmp/p"},
			wantErr: "OIDC_DISCOVERY_URL",
		},
		{
			name:    "mock mode outside dev",
			vars:    map[string]string{"AUTH_MODE": "mock", "SESSION_STORE_DIR": "/tmp/p"},
			wantErr: "AUTH_ALLOW_MOCK",
		},
		{
			name: "mock mode explicitly allowed",
			vars: map[string]string{"AUTH_MODE": "mock", "AUTH_ALLOW_MOCK": "true", "SESSION_STORE_DIR": "/tmp/p"},
		},
		{
			name:    "profile with path separator",
			vars:    map[string]string{"DEV": "true", "SESSION_PROFILE": "../x", "SESSION_STORE_DIR": "/tmp/p"},
			wantErr: "Profile",
		},
		{
			name:    "bad http addr",
			vars:    map[string]string{"DEV": "true", "HTTP_ADDR": "nope", "SESSION_STORE_DIR": "/tmp/p"},
			wantErr: "Addr",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parse(t, tt.vars)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAPIConfig_Sanitize(t *testing.T) {
	a := APIConfig{BaseURL: " https://api.example.edu/// ", Timeout: time.Hour}
	a.Sanitize()
	assert.Equal(t, "https://api.example.edu", a.BaseURL)
	assert.Equal(t, 2*time.Minute, a.Timeout)
}

func TestLoggingConfig_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LoggingConfig{Level: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LoggingConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LoggingConfig{Level: "loud"}.SlogLevel())
}

func TestDetectDevMode_NodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := parse(t, map[string]string{})
	assert.True(t, cfg.IsDev)
}

func TestMetricsConfig_Sanitize(t *testing.T) {
	m := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "  ", Prefix: ".pulse."}
	m.Sanitize()
	assert.False(t, m.IsEnabled())
	assert.Equal(t, "pulse", m.Prefix)
}
