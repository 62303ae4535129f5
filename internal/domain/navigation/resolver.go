// Package navigation decides where a session may go: the role-to-dashboard
// resolver, the route guards, the route table and the role-filtered menu.
// Everything here is a pure function of a session snapshot and a path.
package navigation

import (
	"slices"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// Well-known paths.
const (
	PathLanding      = "/"
	PathLogin        = "/login"
	PathDashboard    = "/dashboard"
	PathUnauthorized = "/unauthorized"
)

// DashboardPathFor maps a role to its landing path.
// Unknown roles fall back to /dashboard so the function stays total.
func DashboardPathFor(role domainauth.Role) string {
	switch role {
	case domainauth.RoleFaculty:
		return "/faculty/dashboard"
	case domainauth.RoleHOD:
		return "/hod/dashboard"
	case domainauth.RoleDirector:
		return "/director/dashboard"
	case domainauth.RoleRegistrar:
		return "/registrar/dashboard"
	case domainauth.RoleOfficeHead:
		return "/office-head/dashboard"
	case domainauth.RoleAdmin:
		return "/admin/dashboard"
	default:
		return PathDashboard
	}
}

// SectionPrefixFor returns the prefix of the console section owned by role,
// or an empty string for unknown roles.
func SectionPrefixFor(role domainauth.Role) string {
	for _, s := range Sections() {
		if slices.Contains(s.Roles, role) {
			return s.Prefix
		}
	}
	return ""
}
