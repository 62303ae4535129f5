package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialVerifier = (*FakeVerifier)(nil)
	_ ports.SessionStore       = (*MemorySessionStore)(nil)
	_ ports.SessionSource      = (*StaticSessionSource)(nil)
)

// FakeVerifier simulates the credential verifier with a fixed user table.
type FakeVerifier struct {
	LoginFunc  func(ctx context.Context, email, password string) (domainauth.Grant, error)
	WhoAmIFunc func(ctx context.Context, token string) (domainauth.Identity, error)

	// Users maps email to identity; every user shares Password.
	Users    map[string]domainauth.Identity
	Password string

	mu          sync.Mutex
	tokens      map[string]domainauth.Identity
	loginCalls  int
	whoAmICalls int
}

// NewFakeVerifier creates a FakeVerifier with one user per role.
func NewFakeVerifier() *FakeVerifier {
	users := make(map[string]domainauth.Identity)
	for _, r := range domainauth.Roles() {
		email := string(r) + "@example.edu"
		users[email] = domainauth.Identity{ID: "id-" + string(r), Name: string(r), Email: email, Role: r}
	}
	return &FakeVerifier{Users: users, Password: "secret123"}
}

func (f *FakeVerifier) Login(ctx context.Context, email, password string) (domainauth.Grant, error) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, email, password)
	}

	id, ok := f.Users[email]
	if !ok || password != f.Password {
		return domainauth.Grant{}, domainauth.ErrInvalidCredentials
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = make(map[string]domainauth.Identity)
	}
	token := fmt.Sprintf("token-%s-%d", id.ID, f.loginCalls)
	f.tokens[token] = id
	return domainauth.Grant{AccessToken: token, TokenType: "bearer", User: id}, nil
}

func (f *FakeVerifier) WhoAmI(ctx context.Context, token string) (domainauth.Identity, error) {
	f.mu.Lock()
	f.whoAmICalls++
	f.mu.Unlock()
	if f.WhoAmIFunc != nil {
		return f.WhoAmIFunc(ctx, token)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	if !ok {
		return domainauth.Identity{}, domainauth.ErrSessionExpired
	}
	return id, nil
}

// LoginCalls returns how many times Login was invoked.
func (f *FakeVerifier) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

// WhoAmICalls returns how many times WhoAmI was invoked.
func (f *FakeVerifier) WhoAmICalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.whoAmICalls
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu   sync.Mutex
	sess domainauth.PersistedSession

	// SaveErr and ClearErr, when set, are returned instead of writing.
	SaveErr  error
	ClearErr error

	saves  int
	clears int
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (m *MemorySessionStore) Load(_ context.Context) (domainauth.PersistedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess, nil
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.PersistedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if sess.Token == "" {
		return errors.New("token slot cannot be empty")
	}
	m.sess = sess
	return nil
}

func (m *MemorySessionStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.sess = domainauth.PersistedSession{}
	return nil
}

// Put seeds the slots directly, bypassing Save accounting.
func (m *MemorySessionStore) Put(sess domainauth.PersistedSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = sess
}

// Snapshot returns the current slot contents.
func (m *MemorySessionStore) Snapshot() domainauth.PersistedSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

// Saves returns the number of Save calls.
func (m *MemorySessionStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Clears returns the number of Clear calls.
func (m *MemorySessionStore) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

// StaticSessionSource serves a fixed session and records expirations.
type StaticSessionSource struct {
	mu      sync.Mutex
	Session domainauth.Session
	Expired []string
}

func (s *StaticSessionSource) Current() domainauth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Session
}

func (s *StaticSessionSource) ExpireToken(_ context.Context, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Expired = append(s.Expired, token)
	if token == "" || token != s.Session.Token {
		return false
	}
	s.Session = domainauth.Anonymous()
	return true
}

// ExpiredTokens returns the tokens passed to ExpireToken.
func (s *StaticSessionSource) ExpiredTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Expired...)
}
