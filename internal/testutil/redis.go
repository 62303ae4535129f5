package testutil

import (
	"context"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// SetupTestRedis returns a Redis client for tests. When TEST_REDIS_ADDR is
// set the client talks to that server; otherwise an in-process miniredis is
// started and torn down with the test.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			closeAndLog(t, "redis client", client)
			if requireRedis() {
				t.Fatalf("Redis not available for testing at %s: %v", addr, err)
			}
			t.Skipf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Cleanup(func() { closeAndLog(t, "redis client", client) })
		return client
	}

	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		closeAndLog(t, "redis client", client)
		srv.Close()
	})
	return client
}
