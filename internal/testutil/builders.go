package testutil

import (
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// IdentityBuilder provides a fluent interface for building identities in tests.
type IdentityBuilder struct {
	id domainauth.Identity
}

// NewIdentity creates a faculty identity with sensible defaults.
func NewIdentity() *IdentityBuilder {
	return &IdentityBuilder{id: domainauth.Identity{
		ID:             "1",
		Name:           "Dr. John Smith",
		Email:          "faculty@example.com",
		Role:           domainauth.RoleFaculty,
		DepartmentID:   StringPtr("cs"),
		DepartmentName: "Computer Science",
	}}
}

// WithID sets the identity id.
func (b *IdentityBuilder) WithID(id string) *IdentityBuilder {
	b.id.ID = id
	return b
}

// WithRole sets the role; institution-wide roles drop the department id.
func (b *IdentityBuilder) WithRole(role domainauth.Role) *IdentityBuilder {
	b.id.Role = role
	if role.InstitutionWide() {
		b.id.DepartmentID = nil
	}
	return b
}

// WithEmail sets the email.
func (b *IdentityBuilder) WithEmail(email string) *IdentityBuilder {
	b.id.Email = email
	return b
}

// Build returns the identity.
func (b *IdentityBuilder) Build() domainauth.Identity {
	return b.id
}

// Session returns an authenticated session for the identity.
func (b *IdentityBuilder) Session(token string) domainauth.Session {
	return domainauth.Authenticated(b.id, token)
}

// Persisted returns the storage slots for the identity and token.
func (b *IdentityBuilder) Persisted(token string) domainauth.PersistedSession {
	p, err := domainauth.Persist(b.id, token)
	if err != nil {
		panic(err)
	}
	return p
}
