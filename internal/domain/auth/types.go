package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"slices"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and wire compatibility.
// Valid values are defined as constants below.
type Role string

const (
	RoleFaculty    Role = "faculty"
	RoleHOD        Role = "hod"
	RoleDirector   Role = "director"
	RoleRegistrar  Role = "registrar"
	RoleOfficeHead Role = "office_head"
	RoleAdmin      Role = "admin"
)

// Roles returns the closed role enumeration in display order.
func Roles() []Role {
	return []Role{RoleFaculty, RoleHOD, RoleDirector, RoleRegistrar, RoleOfficeHead, RoleAdmin}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(Roles(), r)
}

// InstitutionWide reports whether the role has no department association.
func (r Role) InstitutionWide() bool {
	switch r {
	case RoleDirector, RoleRegistrar, RoleAdmin:
		return true
	default:
		return false
	}
}

// Identity represents the authenticated principal returned by the credential verifier.
// Name and Email are display attributes and play no part in authorization.
type Identity struct {
	ID             string     `json:"id"                        validate:"required"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"                      validate:"required,role"`
	DepartmentID   *string    `json:"department_id,omitempty"`
	DepartmentName string     `json:"department_name,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Department returns the department id or an empty string for institution-wide identities.
func (i Identity) Department() string {
	if i.DepartmentID == nil {
		return ""
	}
	return *i.DepartmentID
}

// Status is the position of a Session in its lifecycle.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
)

// Session is the client's single authentication state.
// Token is non-empty exactly when Identity is non-nil.
type Session struct {
	Status   Status    `json:"status"`
	Identity *Identity `json:"identity,omitempty"`
	Token    string    `json:"-"`
}

// Anonymous returns the empty session.
func Anonymous() Session { return Session{Status: StatusAnonymous} }

// Authenticated returns a session carrying the given identity and token.
func Authenticated(id Identity, token string) Session {
	return Session{Status: StatusAuthenticated, Identity: &id, Token: token}
}

// IsAuthenticated reports whether the session has a committed identity.
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil && s.Token != ""
}

// Role returns the identity's role, or an empty role for anonymous sessions.
func (s Session) Role() Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// HasRole reports whether the session is authenticated with the given role.
func (s Session) HasRole(role Role) bool {
	return s.IsAuthenticated() && s.Identity.Role == role
}

// HasAnyRole reports whether the session is authenticated with one of roles.
func (s Session) HasAnyRole(roles ...Role) bool {
	return s.IsAuthenticated() && slices.Contains(roles, s.Identity.Role)
}

// Grant is what the credential verifier hands back on a successful login.
type Grant struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type,omitempty"`
	User        Identity `json:"user"`
}

// PersistedSession holds the raw contents of the two durable storage slots.
// An empty field means the slot is absent.
type PersistedSession struct {
	Token string
	User  string
}

// Empty reports whether neither slot holds a value.
func (p PersistedSession) Empty() bool { return p.Token == "" && p.User == "" }
