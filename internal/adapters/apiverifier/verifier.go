// Package apiverifier implements ports.CredentialVerifier against the
// dashboard backend's /api/auth endpoints.
package apiverifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

const (
	defaultLoginPath = "/api/auth/login"
	defaultMePath    = "/api/auth/me"
	defaultTokenExpr = "access_token"
	defaultUserExpr  = "user"
	defaultMeExpr    = "@"
	tokenTypeExpr    = "token_type"

	maxBodyBytes = 1 << 20
)

var _ ports.CredentialVerifier = (*Verifier)(nil)

// Config describes the backend contract.
// The *Expr fields are JMESPath expressions evaluated against the decoded
// JSON response bodies.
type Config struct {
	BaseURL   string
	LoginPath string
	MePath    string
	TokenExpr string
	UserExpr  string
	MeExpr    string

	// Client must not attach session credentials or react to 401s itself.
	Client *http.Client
	Logger *slog.Logger
}

// Verifier talks to the backend over HTTP.
type Verifier struct {
	loginURL string
	meURL    string
	token    expr
	user     expr
	me       expr
	// tokenType is optional in responses.
	tokenType expr
	client    *http.Client
	logger    *slog.Logger
}

// expr is a compiled JMESPath expression with its source for messages.
type expr struct {
	src    string
	search func(data any) (any, error)
}

// Search evaluates the compiled expression against doc.
func (e expr) Search(doc any) (any, error) { return e.search(doc) }

func compile(src string) (expr, error) {
	q, err := jmespath.Compile(src)
	if err != nil {
		return expr{}, fmt.Errorf("api verifier: compile %q: %w", src, err)
	}
	return expr{src: src, search: q.Search}, nil
}

// New validates cfg and returns a Verifier.
func New(cfg Config) (*Verifier, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api verifier: invalid base URL %q", cfg.BaseURL)
	}

	v := &Verifier{
		loginURL: base.JoinPath(orDefault(cfg.LoginPath, defaultLoginPath)).String(),
		meURL:    base.JoinPath(orDefault(cfg.MePath, defaultMePath)).String(),
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
	for _, c := range []struct {
		dst *expr
		src string
	}{
		{&v.token, orDefault(cfg.TokenExpr, defaultTokenExpr)},
		{&v.user, orDefault(cfg.UserExpr, defaultUserExpr)},
		{&v.me, orDefault(cfg.MeExpr, defaultMeExpr)},
		{&v.tokenType, tokenTypeExpr},
	} {
		if *c.dst, err = compile(c.src); err != nil {
			return nil, err
		}
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: 10 * time.Second}
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts the credentials and extracts the token and user.
func (v *Verifier) Login(ctx context.Context, email, password string) (domainauth.Grant, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return domainauth.Grant{}, fmt.Errorf("%w: encode login: %w", domainauth.ErrVerifierUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.loginURL, bytes.NewReader(body))
	if err != nil {
		return domainauth.Grant{}, fmt.Errorf("%w: build login request: %w", domainauth.ErrVerifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	doc, status, err := v.do(req)
	if err != nil {
		return domainauth.Grant{}, err
	}
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusUnprocessableEntity, status == http.StatusBadRequest:
		return domainauth.Grant{}, fmt.Errorf("%w: backend returned %d", domainauth.ErrInvalidCredentials, status)
	case status < 200 || status > 299:
		return domainauth.Grant{}, fmt.Errorf("%w: login returned %d", domainauth.ErrVerifierUnavailable, status)
	}

	rawToken, err := v.token.Search(doc)
	if err != nil {
		return domainauth.Grant{}, fmt.Errorf("%w: extract token: %w", domainauth.ErrVerifierUnavailable, err)
	}
	token, ok := rawToken.(string)
	if !ok || token == "" {
		return domainauth.Grant{}, fmt.Errorf("%w: login response has no token at %q", domainauth.ErrVerifierUnavailable, v.token.src)
	}
	user, err := v.identityAt(v.user, doc)
	if err != nil {
		return domainauth.Grant{}, err
	}

	grant := domainauth.Grant{AccessToken: token, TokenType: "bearer", User: user}
	if tt, _ := v.tokenType.Search(doc); tt != nil {
		if s, ok := tt.(string); ok && s != "" {
			grant.TokenType = s
		}
	}
	return grant, nil
}

// WhoAmI fetches the identity bound to token.
func (v *Verifier) WhoAmI(ctx context.Context, token string) (domainauth.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.meURL, nil)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: build me request: %w", domainauth.ErrVerifierUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	doc, status, err := v.do(req)
	if err != nil {
		return domainauth.Identity{}, err
	}
	switch {
	case status == http.StatusUnauthorized:
		return domainauth.Identity{}, domainauth.ErrSessionExpired
	case status < 200 || status > 299:
		return domainauth.Identity{}, fmt.Errorf("%w: me returned %d", domainauth.ErrVerifierUnavailable, status)
	}
	return v.identityAt(v.me, doc)
}

// do sends req and decodes a JSON body when one is present.
func (v *Verifier) do(req *http.Request) (any, int, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			v.logger.Debug("close response body", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %w", domainauth.ErrVerifierUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || len(bytes.TrimSpace(raw)) == 0 {
		return nil, resp.StatusCode, nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: decode body: %w", domainauth.ErrVerifierUnavailable, err)
	}
	return doc, resp.StatusCode, nil
}

func (v *Verifier) identityAt(e expr, doc any) (domainauth.Identity, error) {
	node, err := e.Search(doc)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: extract user: %w", domainauth.ErrVerifierUnavailable, err)
	}
	if node == nil {
		return domainauth.Identity{}, fmt.Errorf("%w: response has no user at %q", domainauth.ErrVerifierUnavailable, e.src)
	}
	b, err := json.Marshal(node)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}
	var id domainauth.Identity
	if err := json.Unmarshal(b, &id); err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: decode user: %w", domainauth.ErrVerifierUnavailable, err)
	}
	if err := domainauth.ValidateIdentity(id); err != nil {
		return domainauth.Identity{}, errors.Join(domainauth.ErrVerifierUnavailable, err)
	}
	return id, nil
}
