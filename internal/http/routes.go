package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds everything the console router needs.
type RouterServices struct {
	Sessions SessionManager
	// API proxies /api/ to the academic API (optional).
	API http.Handler

	DemoAccounts []DemoAccount
	DemoPassword string

	Logger *slog.Logger
}

// NewRouter creates the console router: pages behind the route table,
// auth endpoints, the API proxy and health checks.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pages, err := NewPageHandlers(PageHandlers{
		Sessions:     services.Sessions,
		DemoAccounts: services.DemoAccounts,
		DemoPassword: services.DemoPassword,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	auth := &AuthHandlers{Sessions: services.Sessions, Pages: pages, Logger: logger}

	mux := http.NewServeMux()
	registerAuthRoutes(mux, auth, services.Sessions)
	if services.API != nil {
		mux.Handle("/api/", services.API)
	}
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	mux.Handle("/", readOnly(CSRFProtection()(http.HandlerFunc(pages.Serve))))

	var h http.Handler = mux
	h = BrowserDetection()(h)
	h = Logging(logger)(h)
	h = Recover(logger)(h)
	return h, nil
}

// readOnly rejects methods other than GET and HEAD. Pages share the
// catch-all pattern with the API proxy, so the method cannot be part of it.
func readOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, sessions SessionReader) {
	csrf := CSRFProtection()
	machine := MachineOnly()
	anonymousOnly := RequireAuthAbsent(sessions)

	mux.Handle("POST /login", csrf(anonymousOnly(http.HandlerFunc(h.LoginForm))))
	mux.Handle("POST /logout", csrf(http.HandlerFunc(h.Logout)))

	mux.Handle("POST /auth/login", machine(anonymousOnly(http.HandlerFunc(h.Login))))
	mux.Handle("POST /auth/logout", machine(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.Handle("POST /auth/refresh", machine(RequireAuth(sessions)(http.HandlerFunc(h.Refresh))))
}
