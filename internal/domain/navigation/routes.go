package navigation

import (
	"path"
	"strings"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// Section is a role-scoped subtree of the console guarded by a single parent
// guard.
type Section struct {
	Name   string
	Prefix string
	Roles  []domainauth.Role
}

// Contains reports whether p lies inside the section.
func (s Section) Contains(p string) bool {
	return p == s.Prefix || strings.HasPrefix(p, s.Prefix+"/")
}

// Index is the section's landing page.
func (s Section) Index() string { return s.Prefix + "/dashboard" }

// Guard applies RequireAuth with the section's roles and sends the bare
// section root to its index.
func (s Section) Guard(sess domainauth.Session, requested string) Decision {
	d := RequireAuth(sess, requested, s.Roles...)
	if !d.Allowed() {
		return d
	}
	if requested == s.Prefix {
		return redirect(s.Index())
	}
	return d
}

// Sections returns the role-scoped sections of the console.
func Sections() []Section {
	return []Section{
		{Name: "Faculty", Prefix: "/faculty", Roles: []domainauth.Role{domainauth.RoleFaculty}},
		{Name: "Head of Department", Prefix: "/hod", Roles: []domainauth.Role{domainauth.RoleHOD}},
		{Name: "Director", Prefix: "/director", Roles: []domainauth.Role{domainauth.RoleDirector}},
		{Name: "Registrar", Prefix: "/registrar", Roles: []domainauth.Role{domainauth.RoleRegistrar}},
		{Name: "Office Head", Prefix: "/office-head", Roles: []domainauth.Role{domainauth.RoleOfficeHead}},
		{Name: "Administration", Prefix: "/admin", Roles: []domainauth.Role{domainauth.RoleAdmin}},
	}
}

// SectionFor returns the section containing p.
func SectionFor(p string) (Section, bool) {
	for _, s := range Sections() {
		if s.Contains(p) {
			return s, true
		}
	}
	return Section{}, false
}

// Kind classifies a path by who may see it.
type Kind int

const (
	// KindOpen paths render for everyone (e.g. /unauthorized, not-found).
	KindOpen Kind = iota
	// KindPublicOnly paths render only for anonymous visitors.
	KindPublicOnly
	// KindProtected paths need any authenticated session.
	KindProtected
	// KindRoleRestricted paths need an authenticated session with one of Roles.
	KindRoleRestricted
)

func (k Kind) String() string {
	switch k {
	case KindPublicOnly:
		return "public-only"
	case KindProtected:
		return "protected-unrestricted"
	case KindRoleRestricted:
		return "protected-role-restricted"
	default:
		return "open"
	}
}

// Classification is the per-request route computation.
type Classification struct {
	Kind    Kind
	Roles   []domainauth.Role
	Section *Section
}

// CleanPath normalizes a request path to an absolute, slash-cleaned form.
func CleanPath(p string) string {
	if p == "" {
		return PathLanding
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Classify places a path in the route table.
func Classify(p string) Classification {
	p = CleanPath(p)
	switch p {
	case PathLanding, PathLogin:
		return Classification{Kind: KindPublicOnly}
	case PathDashboard:
		return Classification{Kind: KindProtected}
	case PathUnauthorized:
		return Classification{Kind: KindOpen}
	}
	if s, ok := SectionFor(p); ok {
		return Classification{Kind: KindRoleRestricted, Roles: s.Roles, Section: &s}
	}
	return Classification{Kind: KindOpen}
}

// Navigate evaluates the full route table for a requested path.
// /dashboard resolves to the session's role dashboard.
func Navigate(sess domainauth.Session, requested string) Decision {
	p := CleanPath(requested)
	c := Classify(p)
	switch c.Kind {
	case KindPublicOnly:
		return RequireAuthAbsent(sess)
	case KindProtected:
		d := RequireAuth(sess, p)
		if !d.Allowed() {
			return d
		}
		if target := DashboardPathFor(sess.Identity.Role); target != PathDashboard {
			return redirect(target)
		}
		return d
	case KindRoleRestricted:
		return c.Section.Guard(sess, p)
	default:
		return allow()
	}
}

// Resolve follows redirects from requested until a view is allowed and
// returns that final path along with the first decision. Chains are bounded.
func Resolve(sess domainauth.Session, requested string) (string, Decision) {
	p := CleanPath(requested)
	first := Navigate(sess, p)
	d := first
	for range 4 {
		if d.Allowed() {
			return p, first
		}
		p = d.Location
		d = Navigate(sess, p)
	}
	return p, first
}
