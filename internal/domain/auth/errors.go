package auth

import "errors"

// Failure taxonomy for the session core. Callers match with errors.Is;
// adapters wrap these with context using %w.
var (
	// ErrInvalidCredentials means the verifier explicitly rejected the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrVerifierUnavailable covers network failures, timeouts, 5xx and malformed verifier responses.
	ErrVerifierUnavailable = errors.New("credential verifier unavailable")
	// ErrSessionExpired means an authorized call returned 401 for the current token.
	ErrSessionExpired = errors.New("session expired")
	// ErrMalformedPersistedSession means the stored slots could not be decoded into a session.
	ErrMalformedPersistedSession = errors.New("malformed persisted session")

	// ErrNotAuthenticated is returned by operations that require an authenticated session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSuperseded is returned when a newer login or logout overtook an in-flight operation.
	ErrSuperseded = errors.New("superseded by a newer session transition")
	// ErrStoreUnavailable means the persisted session store could not be written.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// UserMessage returns the inline message shown for a login or refresh failure.
// Invalid credentials and verifier outages collapse to distinct but generic texts.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password. Please try again."
	case errors.Is(err, ErrVerifierUnavailable), errors.Is(err, ErrStoreUnavailable):
		return "Login failed. Please try again later."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrSuperseded):
		return "Another sign-in is in progress."
	default:
		return "Login failed. Please check your credentials."
	}
}
