package navigation

import (
	"slices"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
)

// Outcome is the verdict of a guard.
type Outcome int

const (
	// Allow renders the requested view unchanged.
	Allow Outcome = iota
	// Redirect sends the visitor to Decision.Location instead.
	Redirect
)

func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision is what a guard yields for a requested view.
// From is set on login redirects so the post-login flow can return the user.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Location string  `json:"location,omitempty"`
	From     string  `json:"from,omitempty"`
}

// Allowed reports whether the view may render.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

func allow() Decision { return Decision{Outcome: Allow} }

func redirect(to string) Decision { return Decision{Outcome: Redirect, Location: to} }

// RequireAuth guards a protected view. Unauthenticated sessions go to /login
// with the requested path preserved; sessions whose role is not in
// allowedRoles go to /unauthorized. An empty allowedRoles admits every role.
func RequireAuth(sess domainauth.Session, requested string, allowedRoles ...domainauth.Role) Decision {
	if !sess.IsAuthenticated() {
		d := redirect(PathLogin)
		d.From = requested
		return d
	}
	if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, sess.Identity.Role) {
		return redirect(PathUnauthorized)
	}
	return allow()
}

// RequireAuthAbsent guards views meant only for anonymous visitors.
// Authenticated sessions are sent to their role dashboard.
func RequireAuthAbsent(sess domainauth.Session) Decision {
	if sess.IsAuthenticated() {
		return redirect(DashboardPathFor(sess.Identity.Role))
	}
	return allow()
}
