package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	mockauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/mocks/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/service"
)

type harness struct {
	t        *testing.T
	handler  http.Handler
	sessions *service.SessionService
	verifier *mockauth.FakeVerifier
	store    *mockauth.MemorySessionStore
	csrf     string
}

func newHarness(t *testing.T, api func(*service.SessionService) http.Handler) *harness {
	t.Helper()
	v := mockauth.NewFakeVerifier()
	store := mockauth.NewMemorySessionStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := service.NewSessionService(service.SessionServiceOptions{Verifier: v, Store: store, Logger: logger})

	var proxy http.Handler
	if api != nil {
		proxy = api(sessions)
	}
	h, err := NewRouter(RouterServices{
		Sessions:     sessions,
		API:          proxy,
		DemoAccounts: []DemoAccount{{Email: "faculty@example.edu", Role: domainauth.RoleFaculty}},
		DemoPassword: "secret123",
		Logger:       logger,
	})
	require.NoError(t, err)
	return &harness{t: t, handler: h, sessions: sessions, verifier: v, store: store}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) browserGet(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html")
	if h.csrf != "" {
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: h.csrf})
	}
	rec := h.do(req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			h.csrf = c.Value
		}
	}
	return rec
}

// postForm submits a browser form, fetching a CSRF cookie first if needed.
func (h *harness) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	if h.csrf == "" {
		h.browserGet("/unauthorized")
		require.NotEmpty(h.t, h.csrf)
	}
	if form.Get(CSRFFieldName) == "" {
		form.Set(CSRFFieldName, h.csrf)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: h.csrf})
	return h.do(req)
}

func (h *harness) apiCall(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.do(req)
}

func (h *harness) login(role domainauth.Role) {
	h.t.Helper()
	_, err := h.sessions.Login(context.Background(), string(role)+"@example.edu", "secret123")
	require.NoError(h.t, err)
}
