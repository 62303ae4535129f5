package navigation

import (
	"slices"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// MenuItem is one entry of the console's side navigation.
type MenuItem struct {
	Title    string            `json:"title"`
	Href     string            `json:"href"`
	Roles    []domainauth.Role `json:"-"`
	Children []MenuItem        `json:"children,omitempty"`
}

func menu() []MenuItem {
	f := []domainauth.Role{domainauth.RoleFaculty}
	h := []domainauth.Role{domainauth.RoleHOD}
	a := []domainauth.Role{domainauth.RoleAdmin}
	return []MenuItem{
		{Title: "Dashboard", Href: PathDashboard, Roles: domainauth.Roles()},
		{Title: "Performance", Href: "/faculty", Roles: f, Children: []MenuItem{
			{Title: "Submit Form", Href: "/faculty/submit", Roles: f},
			{Title: "My Submissions", Href: "/faculty/submissions", Roles: f},
			{Title: "Upload Proofs", Href: "/faculty/uploads", Roles: f},
			{Title: "AI Feedback", Href: "/faculty/feedback", Roles: f},
		}},
		{Title: "Department", Href: "/hod", Roles: h, Children: []MenuItem{
			{Title: "Pending Approvals", Href: "/hod/approvals", Roles: h},
			{Title: "Department Summary", Href: "/hod/summary", Roles: h},
		}},
		{Title: "Institution Reports", Href: "/director/reports", Roles: []domainauth.Role{domainauth.RoleDirector}},
		{Title: "Monitoring", Href: "/registrar/monitor", Roles: []domainauth.Role{domainauth.RoleRegistrar}},
		{Title: "Monitoring", Href: "/office-head/monitor", Roles: []domainauth.Role{domainauth.RoleOfficeHead}},
		{Title: "Administration", Href: "/admin", Roles: a, Children: []MenuItem{
			{Title: "User Management", Href: "/admin/users", Roles: a},
			{Title: "System Settings", Href: "/admin/settings", Roles: a},
			{Title: "AI Metrics", Href: "/admin/metrics", Roles: a},
		}},
	}
}

// MenuFor returns the navigation entries visible to role. The Dashboard
// entry points straight at the role's landing page.
func MenuFor(role domainauth.Role) []MenuItem {
	if !role.Valid() {
		return nil
	}
	return filterMenu(menu(), role)
}

func filterMenu(items []MenuItem, role domainauth.Role) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if !slices.Contains(it.Roles, role) {
			continue
		}
		if it.Href == PathDashboard {
			it.Href = DashboardPathFor(role)
		}
		if it.Children != nil {
			it.Children = filterMenu(it.Children, role)
		}
		out = append(out, it)
	}
	return out
}
