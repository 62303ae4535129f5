package redis

// Package redis provides the Redis-backed persisted session store.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

const (
	slotToken = "access_token"
	slotUser  = "user"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps the two session slots under one key namespace.
// The namespace is a cluster hash tag, so both keys live in one hash slot
// and are written and removed in a single MULTI/EXEC on every topology.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Options tunes the Redis session store.
type Options struct {
	// Prefix namespaces the slot keys, e.g. "pulse:session:default:". It is
	// wrapped in a hash tag ("{pulse:session:default}:") unless it already
	// carries one.
	Prefix string
	// TTL expires both slots together; zero keeps them until cleared.
	TTL time.Duration
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient, opts Options) *SessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "pulse:session:"
	}
	return &SessionStore{client: client, prefix: hashTagged(prefix), ttl: opts.TTL}
}

// hashTagged returns prefix with its namespace enclosed in braces. Redis
// Cluster hashes only the tag, so every key built from it shares a slot.
func hashTagged(prefix string) string {
	if open := strings.IndexByte(prefix, '{'); open >= 0 {
		if end := strings.IndexByte(prefix[open+1:], '}'); end > 0 {
			if !strings.HasSuffix(prefix, ":") {
				prefix += ":"
			}
			return prefix
		}
	}
	ns := strings.TrimSuffix(prefix, ":")
	return "{" + ns + "}:"
}

func (s *SessionStore) key(slot string) string { return s.prefix + slot }

func (s *SessionStore) Load(ctx context.Context) (domainauth.PersistedSession, error) {
	vals, err := s.client.MGet(ctx, s.key(slotToken), s.key(slotUser)).Result()
	if err != nil {
		return domainauth.PersistedSession{}, fmt.Errorf("redis mget: %w", err)
	}
	if len(vals) != 2 {
		return domainauth.PersistedSession{}, fmt.Errorf("redis mget: got %d values", len(vals))
	}
	return domainauth.PersistedSession{Token: asString(vals[0]), User: asString(vals[1])}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.PersistedSession) error {
	if sess.Token == "" || sess.User == "" {
		return errors.New("both session slots are required")
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(slotToken), sess.Token, s.ttl)
		pipe.Set(ctx, s.key(slotUser), sess.User, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(slotToken), s.key(slotUser)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}
