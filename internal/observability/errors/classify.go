package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// sessionClasses maps the session failure taxonomy to stable tag values.
var sessionClasses = []struct { //nolint:gochecknoglobals // read-only lookup table
	target error
	class  string
}{
	{domainauth.ErrInvalidCredentials, "invalid_credentials"},
	{domainauth.ErrVerifierUnavailable, "verifier_unavailable"},
	{domainauth.ErrSessionExpired, "session_expired"},
	{domainauth.ErrMalformedPersistedSession, "malformed_session"},
	{domainauth.ErrNotAuthenticated, "not_authenticated"},
	{domainauth.ErrSuperseded, "superseded"},
	{domainauth.ErrStoreUnavailable, "store_unavailable"},
	{context.DeadlineExceeded, "timeout"},
	{context.Canceled, "canceled"},
}

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Known session failures map to fixed names; anything else is named after
// the innermost concrete error type.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range sessionClasses {
		if goerrors.Is(err, c.target) {
			return c.class
		}
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
