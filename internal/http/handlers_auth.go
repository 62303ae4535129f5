package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/navigation"
)

// SessionManager is the session service surface the console drives.
type SessionManager interface {
	SessionReader
	Login(ctx context.Context, email, password string) (domainauth.Identity, error)
	Logout(ctx context.Context) error
	RefreshIdentity(ctx context.Context) (domainauth.Identity, error)
}

// loginRequest is the body of POST /auth/login and the login form.
type loginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
	From     string `json:"from"     validate:"omitempty,max=2048"`
}

var (
	formValidatorOnce sync.Once
	formValidator     *validator.Validate //nolint:gochecknoglobals // validator caches struct metadata; build once
)

func loginValidator() *validator.Validate {
	formValidatorOnce.Do(func() {
		formValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return formValidator
}

// validate returns the first offending field and a message for it.
func (req *loginRequest) validate() (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	err := loginValidator().Struct(req)
	if err == nil {
		return "", nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch {
	case fe.Tag() == "required" && field == "email":
		return field, errors.New("Please enter your email address.")
	case fe.Tag() == "required" && field == "password":
		return field, errors.New("Please enter your password.")
	case fe.Tag() == "email":
		return field, errors.New("Please enter a valid email address.")
	default:
		return field, errors.New("Please check your input.")
	}
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Sessions SessionManager
	Pages    *PageHandlers
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginForm handles the browser login form.
// POST /login (application/x-www-form-urlencoded).
func (h *AuthHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.Pages.renderLogin(w, r, loginView{Status: http.StatusBadRequest, Error: "Please check your input."})
		return
	}
	req := loginRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		From:     r.PostFormValue(fromParam),
	}
	if _, err := req.validate(); err != nil {
		h.Pages.renderLogin(w, r, loginView{Status: http.StatusBadRequest, Error: err.Error(), Email: req.Email, From: req.From})
		return
	}

	if _, err := h.Sessions.Login(r.Context(), req.Email, req.Password); err != nil {
		h.logger().InfoContext(r.Context(), "login rejected", "error", err)
		h.Pages.renderLogin(w, r, loginView{
			Status: sessionErrorStatus(err),
			Error:  domainauth.UserMessage(err),
			Email:  req.Email,
			From:   req.From,
		})
		return
	}
	http.Redirect(w, r, postLoginTarget(req.From), http.StatusSeeOther)
}

// Login handles the JSON login endpoint.
// POST /auth/login {"email","password","from"}.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if field, err := req.validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err, Field: field})
		return
	}

	id, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	sess := h.Sessions.Current()
	final, _ := navigation.Resolve(sess, postLoginTarget(req.From))
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          id,
		"redirect_to":   final,
	})
}

// Logout handles the logout endpoint. The session ends anonymous even when
// the store could not be cleared.
// POST /logout and POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context()); err != nil {
		h.logger().WarnContext(r.Context(), "logout could not clear persisted session", "error", err)
	}
	if IsBrowserRequest(r) {
		http.Redirect(w, r, navigation.PathLogin, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": false,
		"redirect_to":   navigation.PathLogin,
	})
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Current()
	if !sess.IsAuthenticated() {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"status":        sess.Status,
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"status":        sess.Status,
		"user":          sess.Identity,
		"dashboard":     navigation.DashboardPathFor(sess.Identity.Role),
		"menu":          navigation.MenuFor(sess.Identity.Role),
	})
}

// Refresh re-reads the identity behind the current token.
// POST /auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	id, err := h.Sessions.RefreshIdentity(r.Context())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          id,
		"dashboard":     navigation.DashboardPathFor(id.Role),
	})
}

// postLoginTarget returns where a fresh login lands: the remembered path
// when it is a safe in-app page, otherwise /dashboard.
func postLoginTarget(from string) string {
	from = safeRedirectPath(from)
	switch navigation.Classify(pathOf(from)).Kind {
	case navigation.KindPublicOnly:
		return navigation.PathDashboard
	default:
		return from
	}
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return navigation.PathLanding
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return navigation.PathLanding
	}
	return candidate
}

func pathOf(target string) string {
	if u, err := url.Parse(target); err == nil {
		return u.Path
	}
	return target
}
