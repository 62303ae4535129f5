package authroles

import (
	"fmt"
	"strings"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

var _ ports.RoleMapper = StaticRoleMapper{}

// StaticRoleMapper maps groups to roles by exact membership.
// When several groups match, the role listed first in Precedence wins.
type StaticRoleMapper struct {
	Groups     map[string]domainauth.Role
	Precedence []domainauth.Role
}

// defaultPrecedence ranks roles from most to least privileged.
func defaultPrecedence() []domainauth.Role {
	return []domainauth.Role{
		domainauth.RoleAdmin,
		domainauth.RoleDirector,
		domainauth.RoleRegistrar,
		domainauth.RoleOfficeHead,
		domainauth.RoleHOD,
		domainauth.RoleFaculty,
	}
}

// Parse builds a mapper from comma-separated "group=role" pairs,
// e.g. "teachers=faculty,heads=hod".
func Parse(spec string) (StaticRoleMapper, error) {
	m := StaticRoleMapper{Groups: make(map[string]domainauth.Role)}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		group, role, ok := strings.Cut(pair, "=")
		if !ok || strings.Contains(role, "=") {
			return StaticRoleMapper{}, fmt.Errorf("role mapping %q: want group=role", pair)
		}
		r := domainauth.Role(strings.TrimSpace(role))
		if !r.Valid() {
			return StaticRoleMapper{}, fmt.Errorf("role mapping %q: unknown role %q", pair, r)
		}
		m.Groups[strings.TrimSpace(group)] = r
	}
	return m, nil
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	matched := make(map[domainauth.Role]bool)
	for _, g := range groups {
		if r, ok := m.Groups[g]; ok {
			matched[r] = true
		}
	}
	order := m.Precedence
	if len(order) == 0 {
		order = defaultPrecedence()
	}
	for _, r := range order {
		if matched[r] {
			return r
		}
	}
	return ""
}
