package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/vijayaragavaan2065/faculty-pulse-view/config"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/filestore"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/postgres"
	redisstore "github.com/vijayaragavaan2065/faculty-pulse-view/internal/adapters/redis"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

// StoreConfig contains dependencies for building the session store.
type StoreConfig struct {
	Store    config.StoreConfig
	Postgres config.DBConfig
	Redis    config.RedisConfig
	Logger   *slog.Logger

	// DB and RedisClient, when set, are used instead of dialing. The
	// caller keeps ownership of them.
	DB          *sql.DB
	RedisClient redis.UniversalClient
}

// SessionStore is the configured store plus the function releasing its
// backend connection.
type SessionStore struct {
	ports.SessionStore
	Backend config.StoreBackend
	Close   func() error
}

func noClose() error { return nil }

// BuildStore selects the session store for SESSION_STORE.
func BuildStore(ctx context.Context, cfg StoreConfig) (SessionStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Store.Backend {
	case config.StoreBackendFile, "":
		s, err := filestore.NewSessionStore(cfg.Store.Dir, cfg.Store.Profile)
		if err != nil {
			return SessionStore{}, fmt.Errorf("file session store: %w", err)
		}
		logger.InfoContext(ctx, "session store ready", "backend", config.StoreBackendFile, "dir", s.Dir())
		return SessionStore{SessionStore: s, Backend: config.StoreBackendFile, Close: noClose}, nil
	case config.StoreBackendRedis:
		return buildRedisStore(ctx, cfg, logger)
	case config.StoreBackendPostgres:
		return buildPostgresStore(ctx, cfg, logger)
	default:
		return SessionStore{}, fmt.Errorf("unsupported session store %q", cfg.Store.Backend)
	}
}

func buildRedisStore(ctx context.Context, cfg StoreConfig, logger *slog.Logger) (SessionStore, error) {
	client, closeFn := cfg.RedisClient, noClose
	if client == nil {
		c, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return SessionStore{}, err
		}
		client, closeFn = c, c.Close
	}
	s := redisstore.NewSessionStore(client, redisstore.Options{
		Prefix: cfg.Store.RedisPrefix + cfg.Store.Profile + ":",
		TTL:    cfg.Store.RedisTTL,
	})
	logger.InfoContext(ctx, "session store ready", "backend", config.StoreBackendRedis, "profile", cfg.Store.Profile)
	return SessionStore{SessionStore: s, Backend: config.StoreBackendRedis, Close: closeFn}, nil
}

func buildPostgresStore(ctx context.Context, cfg StoreConfig, logger *slog.Logger) (SessionStore, error) {
	db, closeFn := cfg.DB, noClose
	if db == nil {
		d, err := ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return SessionStore{}, err
		}
		db, closeFn = d, d.Close
	}
	if cfg.Postgres.RunMigrationsOnStart {
		if err := RunMigrations(ctx, db, logger); err != nil {
			_ = closeFn()
			return SessionStore{}, err
		}
	}
	s := postgres.NewSessionStore(db, postgres.Options{Profile: cfg.Store.Profile})
	logger.InfoContext(ctx, "session store ready", "backend", config.StoreBackendPostgres, "profile", cfg.Store.Profile)
	return SessionStore{SessionStore: s, Backend: config.StoreBackendPostgres, Close: closeFn}, nil
}
