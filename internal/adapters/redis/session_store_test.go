package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/testutil"
)

// setupTestRedis creates a Redis client for testing, backed by an
// in-process server unless TEST_REDIS_ADDR points at a real one.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSession(t *testing.T) domainauth.PersistedSession {
	t.Helper()
	p, err := domainauth.Persist(domainauth.Identity{ID: "2", Name: "Dr. Sarah Johnson", Role: domainauth.RoleHOD}, "tok-2")
	require.NoError(t, err)
	return p
}

func TestSessionStore_SaveAndLoad(t *testing.T) {
	client := setupTestRedis(t)
	store := NewSessionStore(client, Options{Prefix: "test:" + t.Name()})
	ctx := context.Background()

	want := testSession(t)
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := client.Get(ctx, "{test:"+t.Name()+"}:access_token").Result()
	require.NoError(t, err)
	assert.Equal(t, "tok-2", raw)
}

func TestSessionStore_LoadEmpty(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t), Options{Prefix: "test:" + t.Name()})

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestSessionStore_LoadPartial(t *testing.T) {
	client := setupTestRedis(t)
	store := NewSessionStore(client, Options{Prefix: "test:" + t.Name()})
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "{test:"+t.Name()+"}:access_token", "orphan", 0).Err())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "orphan", got.Token)
	assert.Empty(t, got.User)
}

func TestSessionStore_Clear(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t), Options{Prefix: "test:" + t.Name()})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession(t)))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())

	// Clearing an empty store is fine.
	require.NoError(t, store.Clear(ctx))
}

func TestSessionStore_SaveRequiresBothSlots(t *testing.T) {
	store := NewSessionStore(setupTestRedis(t), Options{Prefix: "test:" + t.Name()})
	err := store.Save(context.Background(), domainauth.PersistedSession{Token: "only"})
	require.Error(t, err)
}

func TestSessionStore_TTL(t *testing.T) {
	client := setupTestRedis(t)
	store := NewSessionStore(client, Options{Prefix: "test:" + t.Name(), TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession(t)))
	ttl, err := client.TTL(ctx, "{test:"+t.Name()+"}:user").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestSessionStore_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewSessionStore(client, Options{})

	_, err := store.Load(context.Background())
	require.Error(t, err)
	require.Error(t, store.Save(context.Background(), testSession(t)))
	require.Error(t, store.Clear(context.Background()))
}

func TestNewSessionStore_Prefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "{pulse:session}:"},
		{"x", "{x}:"},
		{"pulse:session:default:", "{pulse:session:default}:"},
		{"app:{tenant}:", "app:{tenant}:"},
		{"app:{tenant}", "app:{tenant}:"},
		{"odd{}:", "{odd{}}:"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			s := NewSessionStore(nil, Options{Prefix: tt.prefix})
			assert.Equal(t, tt.want+slotToken, s.key(slotToken))
			assert.Equal(t, tt.want+slotUser, s.key(slotUser))
		})
	}
}

func TestSessionStore_SlotsShareClusterSlot(t *testing.T) {
	require.Equal(t, uint16(0x31C3), crc16([]byte("123456789")))

	for _, prefix := range []string{"", "pulse:session:default:", "pulse:session:lab:", "app:{tenant}:"} {
		s := NewSessionStore(nil, Options{Prefix: prefix})
		assert.Equal(t, clusterSlot(s.key(slotToken)), clusterSlot(s.key(slotUser)), "prefix %q", prefix)
	}

	// Without the tag the two slot keys land on different nodes.
	assert.NotEqual(t,
		clusterSlot("pulse:session:default:access_token"),
		clusterSlot("pulse:session:default:user"))
}

// clusterSlot follows the Redis Cluster key distribution: CRC16 of the
// hash tag when one is present, of the whole key otherwise, mod 16384.
func clusterSlot(key string) uint16 {
	if open := strings.IndexByte(key, '{'); open >= 0 {
		if end := strings.IndexByte(key[open+1:], '}'); end > 0 {
			key = key[open+1 : open+1+end]
		}
	}
	return crc16([]byte(key)) % 16384
}

// crc16 is CRC-16/XMODEM, the checksum Redis Cluster uses for key slots.
func crc16(b []byte) uint16 {
	var crc uint16
	for _, c := range b {
		crc ^= uint16(c) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
