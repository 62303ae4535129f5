package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

const (
	// CSRFCookieName holds the double-submit token for the console forms.
	CSRFCookieName = "pulse_csrf"
	// CSRFFieldName is the hidden form field carrying the token.
	CSRFFieldName = "csrf_token"
	// CSRFHeaderName is accepted in place of the form field.
	CSRFHeaderName = "X-Csrf-Token"

	csrfTokenBytes = 32
)

// CSRFProtection guards the login and logout forms with a double-submit
// cookie. Safe methods pass through and receive a token; other methods must
// echo the cookie value in the form field or header.
func CSRFProtection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(CSRFCookieName); err == nil {
				token = c.Value
			}
			if token == "" {
				b := make([]byte, csrfTokenBytes)
				if _, err := rand.Read(b); err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				token = base64.RawURLEncoding.EncodeToString(b)
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   isSecureRequest(r),
					SameSite: http.SameSiteStrictMode,
				})
			}
			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

			if !isSafeMethod(r.Method) && !csrfTokenMatches(r, token) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MachineOnly guards the JSON auth endpoints. Writes from a browser page,
// or carrying a cross-site Sec-Fetch-Site or foreign Origin, get 403.
func MachineOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isSafeMethod(r.Method) && (IsBrowserRequest(r) || isCrossSite(r)) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "cross_site_request",
					Err:     errors.New("browser and cross-site requests must use the login form"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isCrossSite reports whether the request was issued by a page on another
// origin. Requests without browser provenance headers are not cross-site.
func isCrossSite(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
	default:
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func csrfTokenMatches(r *http.Request, want string) bool {
	got := r.Header.Get(CSRFHeaderName)
	if got == "" {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return false
		}
		got = r.PostFormValue(CSRFFieldName)
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// isSecureRequest reports whether the request arrived over HTTPS, directly
// or through a proxy.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

type csrfTokenKey struct{}

// CSRFToken returns the token CSRFProtection attached to the request.
func CSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
