package httpx

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/navigation"
)

//go:embed views/*.tmpl
var viewsFS embed.FS

// DemoAccount is a login hint shown on the sign-in page in mock mode.
type DemoAccount struct {
	Email string
	Role  domainauth.Role
}

// PageData is the view model shared by every page.
type PageData struct {
	Page    string
	Title   string
	Section string
	Session domainauth.Session
	Menu    []navigation.MenuItem
	CSRF    string

	// Login page only.
	Error        string
	Email        string
	From         string
	DemoAccounts []DemoAccount
	DemoPassword string
}

// PageHandlers renders the console's pages behind the route table.
type PageHandlers struct {
	Sessions     SessionReader
	DemoAccounts []DemoAccount
	DemoPassword string
	Logger       *slog.Logger

	pages map[string]*template.Template
}

// NewPageHandlers parses the embedded page templates.
func NewPageHandlers(h PageHandlers) (*PageHandlers, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{PageLanding, PageLogin, PageSection, PageUnauthorized, PageNotFound} {
		t, err := template.ParseFS(viewsFS, "views/layout.tmpl", "views/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	h.pages = pages
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	return &h, nil
}

// Serve evaluates the route table for the request path and renders the
// page or follows the guard's redirect.
// GET /.
func (h *PageHandlers) Serve(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Current()
	p := navigation.CleanPath(r.URL.Path)
	requested := p
	if r.URL.RawQuery != "" {
		requested += "?" + r.URL.RawQuery
	}

	d := navigation.Navigate(sess, p)
	if !d.Allowed() {
		if d.Location == navigation.PathLogin {
			d.From = requested
		}
		writeDecision(w, r, d)
		return
	}

	c := navigation.Classify(p)
	switch {
	case p == navigation.PathLanding:
		h.render(w, r, http.StatusOK, PageData{Page: PageLanding, Title: "Welcome", Session: sess})
	case p == navigation.PathLogin:
		h.renderLogin(w, r, loginView{From: r.URL.Query().Get(fromParam)})
	case p == navigation.PathUnauthorized:
		h.render(w, r, http.StatusForbidden, PageData{Page: PageUnauthorized, Title: "Access denied", Session: sess})
	case c.Section != nil:
		title, ok := sectionPageTitle(*c.Section, p)
		if !ok {
			h.notFound(w, r, sess)
			return
		}
		h.render(w, r, http.StatusOK, PageData{Page: PageSection, Title: title, Section: c.Section.Name, Session: sess})
	default:
		h.notFound(w, r, sess)
	}
}

func (h *PageHandlers) notFound(w http.ResponseWriter, r *http.Request, sess domainauth.Session) {
	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "page not found"})
		return
	}
	h.render(w, r, http.StatusNotFound, PageData{Page: PageNotFound, Title: "Not found", Session: sess})
}

type loginView struct {
	Status int
	Error  string
	Email  string
	From   string
}

func (h *PageHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	status := v.Status
	if status == 0 {
		status = http.StatusOK
	}
	from := v.From
	if from != "" {
		from = safeRedirectPath(from)
	}
	h.render(w, r, status, PageData{
		Page:         PageLogin,
		Title:        "Sign in",
		Session:      h.Sessions.Current(),
		Error:        v.Error,
		Email:        v.Email,
		From:         from,
		DemoAccounts: h.DemoAccounts,
		DemoPassword: h.DemoPassword,
	})
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	t, ok := h.pages[data.Page]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if data.Session.IsAuthenticated() {
		data.Menu = navigation.MenuFor(data.Session.Identity.Role)
	}
	data.CSRF = CSRFToken(r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.Logger.ErrorContext(r.Context(), "template render failed",
			slog.String("page", data.Page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// sectionPageTitle finds the menu title of a page inside s. The section
// index is always a page.
func sectionPageTitle(s navigation.Section, p string) (string, bool) {
	if p == s.Index() {
		return s.Name + " Dashboard", true
	}
	for _, role := range s.Roles {
		if title, ok := findMenuTitle(navigation.MenuFor(role), p); ok {
			return title, true
		}
	}
	return "", false
}

func findMenuTitle(items []navigation.MenuItem, p string) (string, bool) {
	i := slices.IndexFunc(items, func(it navigation.MenuItem) bool { return it.Href == p })
	if i >= 0 {
		return items[i].Title, true
	}
	for _, it := range items {
		if title, ok := findMenuTitle(it.Children, p); ok {
			return title, true
		}
	}
	return "", false
}
