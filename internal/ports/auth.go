package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// CredentialVerifier exchanges credentials for a token and identity, and
// resolves a token back to its identity.
type CredentialVerifier interface {
	// Login verifies an email/password pair. Explicit rejections return
	// domainauth.ErrInvalidCredentials; transport failures, timeouts and
	// malformed responses return domainauth.ErrVerifierUnavailable.
	Login(ctx context.Context, email, password string) (domainauth.Grant, error)

	// WhoAmI returns the identity bound to token. A rejected token returns
	// domainauth.ErrSessionExpired.
	WhoAmI(ctx context.Context, token string) (domainauth.Identity, error)
}

// SessionStore persists the two session slots across process restarts.
type SessionStore interface {
	// Load returns the raw slot contents. Absent slots are empty strings.
	Load(ctx context.Context) (domainauth.PersistedSession, error)
	// Save writes both slots.
	Save(ctx context.Context, sess domainauth.PersistedSession) error
	// Clear removes both slots in one call.
	Clear(ctx context.Context) error
}

// SessionSource exposes the live session to outbound components.
type SessionSource interface {
	Current() domainauth.Session
	ExpireToken(ctx context.Context, token string) bool
}

// RoleMapper maps identity-provider groups to an application role.
// It returns an empty role when no group matches.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}
