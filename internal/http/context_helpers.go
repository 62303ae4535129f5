package httpx

import (
	"context"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the session
// snapshot a guard admitted the request with.
func SetSessionInContext(ctx context.Context, session domainauth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the guarded snapshot and whether one was set.
func GetSessionFromContext(ctx context.Context) (domainauth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domainauth.Session)
	return s, ok
}

// sessionForRequest prefers the snapshot stored by a guard so a handler
// sees the same session its guard evaluated.
func sessionForRequest(ctx context.Context, sessions SessionReader) domainauth.Session {
	if s, ok := GetSessionFromContext(ctx); ok {
		return s
	}
	return sessions.Current()
}
