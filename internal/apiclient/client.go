// Package apiclient builds the HTTP clients used to reach the academic API.
//
// The base client carries timeouts, a cookie jar and request ids. The
// authorized client layers the live session's bearer token on top and
// reports 401 responses back to the session so it can log out.
package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

// RequestIDHeader is set on every outbound request that lacks one.
const RequestIDHeader = "X-Request-ID"

const defaultTimeout = 10 * time.Second

// Options configures the base client.
type Options struct {
	Timeout time.Duration
	// DisableCookies skips the cookie jar.
	DisableCookies bool
	// Transport is the innermost round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// NewBase returns a client without authorization. Credential verification
// uses it so that a rejected login never triggers a forced logout.
func NewBase(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	inner := opts.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	c := &http.Client{
		Timeout:   timeout,
		Transport: requestIDTransport{base: inner},
	}
	if !opts.DisableCookies {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.Jar = jar
	}
	return c, nil
}

// NewAuthorized wraps base so every request carries the current session's
// bearer token. Requests made while anonymous fail with
// domainauth.ErrNotAuthenticated before reaching the network.
func NewAuthorized(base *http.Client, sessions ports.SessionSource, logger *slog.Logger) *http.Client {
	if logger == nil {
		logger = slog.Default()
	}
	inner := base.Transport
	if inner == nil {
		inner = http.DefaultTransport
	}
	return &http.Client{
		Timeout: base.Timeout,
		Jar:     base.Jar,
		Transport: &oauth2.Transport{
			Source: SessionTokenSource(sessions),
			Base: &expiryTransport{
				base:     inner,
				sessions: sessions,
				logger:   logger.With("component", "apiclient"),
			},
		},
	}
}

// SessionTokenSource adapts a session source to oauth2.TokenSource. The
// token is read on every call and never cached.
func SessionTokenSource(sessions ports.SessionSource) oauth2.TokenSource {
	return sessionTokenSource{sessions: sessions}
}

type sessionTokenSource struct {
	sessions ports.SessionSource
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	sess := s.sessions.Current()
	if !sess.IsAuthenticated() {
		return nil, domainauth.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}, nil
}

// expiryTransport expires the token that a 401 response rejected.
type expiryTransport struct {
	base     http.RoundTripper
	sessions ports.SessionSource
	logger   *slog.Logger
}

func (t *expiryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	token := bearerToken(req.Header.Get("Authorization"))
	if token == "" {
		return resp, nil
	}
	ctx := context.WithoutCancel(req.Context())
	if t.sessions.ExpireToken(ctx, token) {
		t.logger.InfoContext(ctx, "api rejected session token; logged out",
			"method", req.Method, "path", req.URL.Path)
	}
	return resp, nil
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, uuid.NewString())
	return t.base.RoundTrip(r)
}
