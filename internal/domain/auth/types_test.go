package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles() {
		assert.True(t, r.Valid(), "role %q should be valid", r)
	}
	assert.False(t, Role("student").Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Admin").Valid())
}

func TestRole_InstitutionWide(t *testing.T) {
	assert.True(t, RoleDirector.InstitutionWide())
	assert.True(t, RoleRegistrar.InstitutionWide())
	assert.True(t, RoleAdmin.InstitutionWide())
	assert.False(t, RoleFaculty.InstitutionWide())
	assert.False(t, RoleHOD.InstitutionWide())
	assert.False(t, RoleOfficeHead.InstitutionWide())
}

func TestSession_States(t *testing.T) {
	anon := Anonymous()
	assert.False(t, anon.IsAuthenticated())
	assert.Equal(t, Role(""), anon.Role())
	assert.False(t, anon.HasRole(RoleAdmin))

	s := Authenticated(Identity{ID: "1", Role: RoleHOD}, "tok")
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.HasRole(RoleHOD))
	assert.False(t, s.HasRole(RoleFaculty))
	assert.True(t, s.HasAnyRole(RoleFaculty, RoleHOD))
	assert.False(t, s.HasAnyRole())

	pending := Session{Status: StatusAuthenticating}
	assert.False(t, pending.IsAuthenticated())
}

func TestIdentity_Department(t *testing.T) {
	assert.Equal(t, "", Identity{}.Department())
	assert.Equal(t, "cs", Identity{DepartmentID: strPtr("cs")}.Department())
}

func TestValidateIdentity(t *testing.T) {
	require.NoError(t, ValidateIdentity(Identity{ID: "1", Role: RoleFaculty}))

	err := ValidateIdentity(Identity{ID: "1", Role: "student"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role(role)")

	err = ValidateIdentity(Identity{Role: RoleAdmin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id(required)")
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	id := Identity{
		ID:             "2",
		Name:           "Dr. Sarah Johnson",
		Email:          "hod@example.com",
		Role:           RoleHOD,
		DepartmentID:   strPtr("cs"),
		DepartmentName: "Computer Science",
	}
	p, err := Persist(id, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "token-abc", p.Token)
	assert.Contains(t, p.User, `"department_id":"cs"`)

	s, err := Restore(p)
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, id, *s.Identity)
	assert.Equal(t, "token-abc", s.Token)
}

func TestRestore_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   PersistedSession
	}{
		{name: "empty", in: PersistedSession{}},
		{name: "token only", in: PersistedSession{Token: "t"}},
		{name: "user only", in: PersistedSession{User: `{"id":"1","role":"admin"}`}},
		{name: "not json", in: PersistedSession{Token: "t", User: "{not json"}},
		{name: "unknown role", in: PersistedSession{Token: "t", User: `{"id":"1","role":"dean"}`}},
		{name: "missing id", in: PersistedSession{Token: "t", User: `{"role":"admin"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Restore(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedPersistedSession))
			assert.Equal(t, StatusAnonymous, s.Status)
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(ErrInvalidCredentials), "Invalid email or password")
	assert.Contains(t, UserMessage(errors.Join(errors.New("x"), ErrVerifierUnavailable)), "try again later")
	assert.Contains(t, UserMessage(ErrSessionExpired), "expired")
}
