package httpx

// Page identifiers used by templates and navigation highlighting.
const (
	PageLanding      = "landing"
	PageLogin        = "login"
	PageSection      = "section"
	PageUnauthorized = "unauthorized"
	PageNotFound     = "not-found"
)

const (
	// maxBodyBytes caps JSON and form bodies on auth endpoints.
	maxBodyBytes = 1 << 20

	// fromParam carries the originally requested path through the login redirect.
	fromParam = "from"
)
