package oidc

// Package oidc provides a CredentialVerifier backed by an OpenID Connect
// provider using the resource-owner password grant.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.CredentialVerifier = (*Provider)(nil)

// Provider implements ports.CredentialVerifier using OIDC/OAuth2.
type Provider struct {
	config      *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
	roleClaim   string
	roles       ports.RoleMapper

	verifier *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string
	// RoleClaim names the claim carrying the application role. Default "role".
	RoleClaim string
	// Roles maps group claims to a role when RoleClaim is absent or unknown.
	Roles      ports.RoleMapper
	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider creates a new OIDC provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	var doc DiscoveryDocument
	if err := op.Claims(&doc); err != nil {
		return nil, fmt.Errorf("oidc discovery claims: %w", err)
	}
	if doc.UserinfoEndpoint == "" {
		return nil, errors.New("oidc provider does not advertise a userinfo endpoint")
	}

	roleClaim := config.RoleClaim
	if roleClaim == "" {
		roleClaim = "role"
	}
	scope := config.Scope
	if strings.TrimSpace(scope) == "" {
		scope = "openid profile email"
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		httpClient:  httpClient,
		userInfoURL: doc.UserinfoEndpoint,
		roleClaim:   roleClaim,
		roles:       config.Roles,
		verifier:    op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
	}, nil
}

// Login exchanges the credentials for tokens and builds the identity from
// the ID token, falling back to the userinfo endpoint.
func (p *Provider) Login(ctx context.Context, email, password string) (domainauth.Grant, error) {
	octx := context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.config.PasswordCredentialsToken(octx, email, password)
	if err != nil {
		return domainauth.Grant{}, classifyTokenError(err)
	}

	claims, err := p.idTokenClaims(ctx, tok)
	if err != nil {
		return domainauth.Grant{}, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}
	if claims == nil {
		if claims, err = p.userInfo(ctx, tok.AccessToken); err != nil {
			return domainauth.Grant{}, err
		}
	}

	id, err := p.identityFrom(claims)
	if err != nil {
		return domainauth.Grant{}, err
	}
	return domainauth.Grant{AccessToken: tok.AccessToken, TokenType: tok.Type(), User: id}, nil
}

// WhoAmI resolves an access token through the userinfo endpoint.
func (p *Provider) WhoAmI(ctx context.Context, token string) (domainauth.Identity, error) {
	claims, err := p.userInfo(ctx, token)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return p.identityFrom(claims)
}

func classifyTokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		if rerr.ErrorCode == "invalid_grant" || rerr.ErrorCode == "unauthorized_client" {
			return fmt.Errorf("%w: %s", domainauth.ErrInvalidCredentials, rerr.ErrorCode)
		}
		if rerr.Response != nil && (rerr.Response.StatusCode == http.StatusUnauthorized || rerr.Response.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: token endpoint returned %d", domainauth.ErrInvalidCredentials, rerr.Response.StatusCode)
		}
	}
	return fmt.Errorf("%w: token request: %w", domainauth.ErrVerifierUnavailable, err)
}

// idTokenClaims verifies the id_token when openid was requested and one was
// issued. It returns nil claims when there is nothing to verify.
func (p *Provider) idTokenClaims(ctx context.Context, tok *oauth2.Token) (claimSet, error) {
	if !slices.Contains(p.config.Scopes, "openid") {
		return nil, nil
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, nil
	}
	idTok, err := p.verifier.Verify(gooidc.ClientContext(ctx, p.httpClient), raw)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	var c claimSet
	if err := idTok.Claims(&c); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}
	return c, nil
}

// userInfo calls the userinfo endpoint directly so a 401 can be told apart
// from other failures.
func (p *Provider) userInfo(ctx context.Context, accessToken string) (claimSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch user info: %w", domainauth.ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domainauth.ErrSessionExpired
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: user info returned %d", domainauth.ErrVerifierUnavailable, resp.StatusCode)
	}

	var c claimSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: decode user info: %w", domainauth.ErrVerifierUnavailable, err)
	}
	return c, nil
}

// claimSet is a decoded JWT or userinfo payload.
type claimSet map[string]any

func (c claimSet) str(keys ...string) string {
	for _, k := range keys {
		if s, ok := c[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (c claimSet) strs(keys ...string) []string {
	for _, k := range keys {
		switch v := c[k].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, e := range v {
				if s, ok := e.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return nil
}

// identityFrom maps provider claims onto an Identity. The role comes from
// the role claim when it names a known role, otherwise from group mapping.
func (p *Provider) identityFrom(c claimSet) (domainauth.Identity, error) {
	id := domainauth.Identity{
		ID:             c.str("samaccountname", "sub"),
		Email:          c.str("email", "mail"),
		Name:           c.str("name"),
		DepartmentName: c.str("department_name", "department"),
	}
	if id.Name == "" {
		id.Name = strings.TrimSpace(c.str("given_name", "firstname") + " " + c.str("family_name", "lastname"))
	}
	if dept := c.str("department_id"); dept != "" {
		id.DepartmentID = &dept
	}

	id.Role = domainauth.Role(c.str(p.roleClaim))
	if !id.Role.Valid() && p.roles != nil {
		id.Role = p.roles.Map(c.strs("groups", "memberof"))
	}

	if err := domainauth.ValidateIdentity(id); err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}
	return id, nil
}
