package devauth

// Package devauth provides a table-driven CredentialVerifier for demos and local development.

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

// DefaultPassword is shared by every demo account.
const DefaultPassword = "password123"

const tokenPrefix = "mock-jwt-token-"

var _ ports.CredentialVerifier = (*Provider)(nil)

// Config controls the dev verifier behavior.
// Users defaults to DemoUsers and Password to DefaultPassword when empty.
type Config struct {
	Users    []domainauth.Identity
	Password string
}

// Provider implements ports.CredentialVerifier against a fixed user table.
// Tokens embed the user id so WhoAmI keeps working across restarts.
// The table is read-only after construction.
type Provider struct {
	password string
	byEmail  map[string]domainauth.Identity
	byID    map[string]domainauth.Identity
}

// DemoUsers returns the built-in demo accounts, one per role.
func DemoUsers() []domainauth.Identity {
	cs := "cs"
	return []domainauth.Identity{
		{ID: "1", Name: "Dr. John Smith", Email: "faculty@example.com", Role: domainauth.RoleFaculty, DepartmentID: &cs, DepartmentName: "Computer Science"},
		{ID: "2", Name: "Dr. Sarah Johnson", Email: "hod@example.com", Role: domainauth.RoleHOD, DepartmentID: &cs, DepartmentName: "Computer Science"},
		{ID: "3", Name: "Dr. Michael Brown", Email: "director@example.com", Role: domainauth.RoleDirector, DepartmentName: "Administration"},
		{ID: "4", Name: "Ms. Emily Davis", Email: "registrar@example.com", Role: domainauth.RoleRegistrar, DepartmentName: "Academic Office"},
		{ID: "5", Name: "Mr. David Wilson", Email: "admin@example.com", Role: domainauth.RoleAdmin, DepartmentName: "IT Department"},
		{ID: "6", Name: "Mrs. Priya Nair", Email: "officehead@example.com", Role: domainauth.RoleOfficeHead, DepartmentName: "Administrative Office"},
	}
}

// NewProvider constructs a dev verifier from Config.
func NewProvider(cfg Config) (*Provider, error) {
	users := cfg.Users
	if len(users) == 0 {
		users = DemoUsers()
	}
	password := cfg.Password
	if password == "" {
		password = DefaultPassword
	}

	p := &Provider{
		password: password,
		byEmail:  make(map[string]domainauth.Identity, len(users)),
		byID:     make(map[string]domainauth.Identity, len(users)),
	}
	for _, u := range users {
		if err := domainauth.ValidateIdentity(u); err != nil {
			return nil, fmt.Errorf("dev auth: user %q: %w", u.Email, err)
		}
		email := normalizeEmail(u.Email)
		if email == "" {
			return nil, fmt.Errorf("dev auth: user %q has no email", u.ID)
		}
		if _, dup := p.byEmail[email]; dup {
			return nil, fmt.Errorf("dev auth: duplicate email %q", email)
		}
		if strings.Contains(u.ID, "-") {
			return nil, errors.New("dev auth: user ids must not contain '-'")
		}
		if _, dup := p.byID[u.ID]; dup {
			return nil, fmt.Errorf("dev auth: duplicate user id %q", u.ID)
		}
		p.byEmail[email] = u
		p.byID[u.ID] = u
	}
	return p, nil
}

// Login checks the pair against the table and mints a fresh token.
func (p *Provider) Login(ctx context.Context, email, password string) (domainauth.Grant, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.Grant{}, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}

	u, ok := p.byEmail[normalizeEmail(email)]
	if !ok || password != p.password {
		return domainauth.Grant{}, domainauth.ErrInvalidCredentials
	}

	return domainauth.Grant{
		AccessToken: tokenPrefix + u.ID + "-" + uuid.NewString(),
		TokenType:   "bearer",
		User:        u,
	}, nil
}

// WhoAmI resolves a token minted by Login back to its user.
func (p *Provider) WhoAmI(ctx context.Context, token string) (domainauth.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}

	rest, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return domainauth.Identity{}, domainauth.ErrSessionExpired
	}
	id, nonce, ok := strings.Cut(rest, "-")
	if !ok || uuid.Validate(nonce) != nil {
		return domainauth.Identity{}, domainauth.ErrSessionExpired
	}

	u, ok := p.byID[id]
	if !ok {
		return domainauth.Identity{}, domainauth.ErrSessionExpired
	}
	return u, nil
}

// Users lists the table in id order.
func (p *Provider) Users() []domainauth.Identity {
	out := make([]domainauth.Identity, 0, len(p.byID))
	for _, u := range p.byEmail {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b domainauth.Identity) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
