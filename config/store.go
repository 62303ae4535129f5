package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StoreBackend selects where the persisted session lives.
type StoreBackend string

const (
	// StoreBackendFile keeps the two slots as files under Dir.
	StoreBackendFile StoreBackend = "file"
	// StoreBackendRedis keeps the slots as Redis keys.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendPostgres keeps the slots as a row of client_sessions.
	StoreBackendPostgres StoreBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "redis", "postgres":
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: file, redis, postgres)", v)
	}
}

// StoreConfig configures the persisted session store.
type StoreConfig struct {
	Backend StoreBackend `env:"SESSION_STORE"         envDefault:"file" validate:"required,oneof=file redis postgres"`
	// Dir is the root of the file store. Defaults to the user config dir.
	Dir string `env:"SESSION_STORE_DIR"`
	// Profile separates independent sessions sharing one backend.
	Profile string `env:"SESSION_PROFILE" envDefault:"default" validate:"required,excludesall=/\\:"`

	RedisPrefix string        `env:"SESSION_REDIS_PREFIX" envDefault:"pulse:session:"`
	RedisTTL    time.Duration `env:"SESSION_REDIS_TTL"    envDefault:"0s"`
}

// Sanitize fills the default file store directory.
func (c *StoreConfig) Sanitize() {
	c.Dir = strings.TrimSpace(c.Dir)
	c.Profile = strings.TrimSpace(c.Profile)
	if c.Dir == "" && c.Backend == StoreBackendFile {
		if base, err := os.UserConfigDir(); err == nil {
			c.Dir = filepath.Join(base, "faculty-pulse")
		}
	}
	if c.RedisTTL < 0 {
		c.RedisTTL = 0
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"      validate:"min=1,max=65535"`
	User     string `env:"USER"     envDefault:"pulse"`
	Password string `env:"PASSWORD" envDefault:"pulse"`
	Name     string `env:"NAME"     envDefault:"pulse"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the client_sessions table is created at startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
