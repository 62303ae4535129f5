package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/navigation"
)

// APIProxyOptions configures the /api/ reverse proxy.
type APIProxyOptions struct {
	// Target is the academic API base URL.
	Target *url.URL
	// Transport must attach the session's bearer token and expire it on 401.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewAPIProxy forwards /api/ requests to the academic API through the
// authorized transport. The browser never sees the bearer token. When the
// API answers 401 the session has already been logged out by the
// transport; browsers are then sent to /login.
func NewAPIProxy(opts APIProxyOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	target := opts.Target
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
		},
		Transport: opts.Transport,
		ModifyResponse: func(resp *http.Response) error {
			if resp.StatusCode != http.StatusUnauthorized || !IsBrowserRequest(resp.Request) {
				return nil
			}
			_ = resp.Body.Close()
			resp.StatusCode = http.StatusSeeOther
			resp.Status = http.StatusText(http.StatusSeeOther)
			resp.Header = http.Header{"Location": []string{navigation.PathLogin}}
			resp.Body = http.NoBody
			resp.ContentLength = 0
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, domainauth.ErrNotAuthenticated) {
				writeDecision(w, r, navigation.RequireAuth(domainauth.Anonymous(), r.URL.RequestURI()))
				return
			}
			logger.WarnContext(r.Context(), "api proxy failed", "path", r.URL.Path, "error", err)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "api_unavailable",
				Err:     errors.New("academic API unavailable"),
			})
		},
	}
}
