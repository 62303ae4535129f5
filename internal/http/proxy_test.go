package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/apiclient"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/service"
)

func newProxyHarness(t *testing.T) *harness {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/expired":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.Header().Set("X-Seen-Authorization", r.Header.Get("Authorization"))
			w.Header().Set("X-Seen-Cookie", r.Header.Get("Cookie"))
			WriteJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path})
		}
	}))
	t.Cleanup(upstream.Close)
	target, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	return newHarness(t, func(sessions *service.SessionService) http.Handler {
		base, err := apiclient.NewBase(apiclient.Options{DisableCookies: true})
		require.NoError(t, err)
		authorized := apiclient.NewAuthorized(base, sessions, nil)
		return NewAPIProxy(APIProxyOptions{Target: target, Transport: authorized.Transport})
	})
}

func TestAPIProxy_AttachesSessionToken(t *testing.T) {
	h := newProxyHarness(t)
	h.login(domainauth.RoleFaculty)

	req := httptest.NewRequest(http.MethodGet, "/api/submissions", nil)
	req.Header.Set("Authorization", "Bearer forged")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "x"})
	rec := h.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer "+h.sessions.Current().Token, rec.Header().Get("X-Seen-Authorization"))
	assert.Empty(t, rec.Header().Get("X-Seen-Cookie"))
	assert.JSONEq(t, `{"path":"/api/submissions"}`, rec.Body.String())
}

func TestAPIProxy_AnonymousIsRejectedLocally(t *testing.T) {
	h := newProxyHarness(t)

	rec := h.apiCall(http.MethodGet, "/api/submissions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_required")
}

func TestAPIProxy_UnauthorizedForcesLogout(t *testing.T) {
	h := newProxyHarness(t)
	h.login(domainauth.RoleHOD)

	rec := h.apiCall(http.MethodGet, "/api/expired", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, h.sessions.Current().IsAuthenticated())
	assert.True(t, h.store.Snapshot().Empty())
}

func TestAPIProxy_UnauthorizedRedirectsBrowsers(t *testing.T) {
	h := newProxyHarness(t)
	h.login(domainauth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/expired", nil)
	req.Header.Set("Accept", "text/html")
	rec := h.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, h.sessions.Current().IsAuthenticated())
}
