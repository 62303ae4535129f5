package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/navigation"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/mocks"
	authmocks "github.com/vijayaragavaan2065/faculty-pulse-view/internal/mocks/auth"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T) (*SessionService, *authmocks.FakeVerifier, *authmocks.MemorySessionStore) {
	t.Helper()
	verifier := authmocks.NewFakeVerifier()
	store := authmocks.NewMemorySessionStore()
	svc := NewSessionService(SessionServiceOptions{Verifier: verifier, Store: store})
	return svc, verifier, store
}

func persisted(t *testing.T, id domainauth.Identity, token string) domainauth.PersistedSession {
	t.Helper()
	p, err := domainauth.Persist(id, token)
	require.NoError(t, err)
	return p
}

func TestNewSessionService_StartsAnonymous(t *testing.T) {
	svc, _, _ := newTestService(t)
	cur := svc.Current()
	assert.Equal(t, domainauth.StatusAnonymous, cur.Status)
	assert.Nil(t, cur.Identity)
	assert.Empty(t, cur.Token)
}

func TestSessionService_Login_Success(t *testing.T) {
	svc, verifier, store := newTestService(t)
	ctx := context.Background()

	id, err := svc.Login(ctx, "faculty@example.edu", "secret123")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleFaculty, id.Role)

	cur := svc.Current()
	require.True(t, cur.IsAuthenticated())
	assert.Equal(t, id, *cur.Identity)
	assert.Equal(t, 1, verifier.LoginCalls())

	snap := store.Snapshot()
	assert.Equal(t, cur.Token, snap.Token)
	restored, err := domainauth.Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, cur, restored)
}

func TestSessionService_Login_PublishesAuthenticatingWhileInFlight(t *testing.T) {
	svc, verifier, _ := newTestService(t)
	started := make(chan struct{})
	release := make(chan struct{})
	verifier.LoginFunc = func(context.Context, string, string) (domainauth.Grant, error) {
		close(started)
		<-release
		return domainauth.Grant{}, domainauth.ErrInvalidCredentials
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Login(context.Background(), "x@example.edu", "secret123")
		done <- err
	}()

	<-started
	cur := svc.Current()
	assert.Equal(t, domainauth.StatusAuthenticating, cur.Status)
	assert.Nil(t, cur.Identity)
	assert.Empty(t, cur.Token)

	close(release)
	require.ErrorIs(t, <-done, domainauth.ErrInvalidCredentials)
	assert.Equal(t, domainauth.StatusAnonymous, svc.Current().Status)
}

func TestSessionService_Login_Failures(t *testing.T) {
	tests := []struct {
		name    string
		grant   domainauth.Grant
		err     error
		wantErr error
	}{
		{name: "rejected", err: domainauth.ErrInvalidCredentials, wantErr: domainauth.ErrInvalidCredentials},
		{name: "transport", err: errors.New("connection refused"), wantErr: domainauth.ErrVerifierUnavailable},
		{name: "timeout", err: context.DeadlineExceeded, wantErr: domainauth.ErrVerifierUnavailable},
		{
			name:    "missing token",
			grant:   domainauth.Grant{User: domainauth.Identity{ID: "1", Role: domainauth.RoleAdmin}},
			wantErr: domainauth.ErrVerifierUnavailable,
		},
		{
			name:    "unknown role",
			grant:   domainauth.Grant{AccessToken: "t", User: domainauth.Identity{ID: "1", Role: "dean"}},
			wantErr: domainauth.ErrVerifierUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, verifier, store := newTestService(t)
			verifier.LoginFunc = func(context.Context, string, string) (domainauth.Grant, error) {
				return tt.grant, tt.err
			}

			_, err := svc.Login(context.Background(), "a@example.edu", "secret123")
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domainauth.StatusAnonymous, svc.Current().Status)
			assert.Equal(t, 0, store.Saves())
			assert.Equal(t, 0, store.Clears())
		})
	}
}

func TestSessionService_Login_EmptyCredentials(t *testing.T) {
	svc, verifier, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "", "secret123")
	require.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "a@example.edu", "")
	require.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

	assert.Equal(t, 0, verifier.LoginCalls())
	assert.Equal(t, domainauth.StatusAnonymous, svc.Current().Status)
}

func TestSessionService_Login_StoreFailure(t *testing.T) {
	svc, _, store := newTestService(t)
	store.SaveErr = errors.New("disk full")

	_, err := svc.Login(context.Background(), "admin@example.edu", "secret123")
	require.ErrorIs(t, err, domainauth.ErrStoreUnavailable)
	assert.Equal(t, domainauth.StatusAnonymous, svc.Current().Status)
	assert.Equal(t, 1, store.Clears())
}

func TestSessionService_Login_WritesStoreBeforePublishing(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockCredentialVerifier(ctrl)
	store := mocks.NewMockSessionStore(ctrl)
	svc := NewSessionService(SessionServiceOptions{Verifier: verifier, Store: store})

	user := domainauth.Identity{ID: "7", Name: "Dr. Robert Wilson", Role: domainauth.RoleHOD, DepartmentID: ptr("cs")}
	verifier.EXPECT().Login(gomock.Any(), "hod@example.edu", "secret123").
		Return(domainauth.Grant{AccessToken: "tok", User: user}, nil).Times(1)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p domainauth.PersistedSession) error {
		assert.Equal(t, "tok", p.Token)
		assert.Equal(t, domainauth.StatusAuthenticating, svc.Current().Status)
		return nil
	})

	_, err := svc.Login(context.Background(), "hod@example.edu", "secret123")
	require.NoError(t, err)
	assert.True(t, svc.Current().HasRole(domainauth.RoleHOD))
}

func TestSessionService_Logout(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "director@example.edu", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, domainauth.Anonymous(), svc.Current())
	assert.True(t, store.Snapshot().Empty())

	// Idempotent.
	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, domainauth.Anonymous(), svc.Current())
	assert.True(t, store.Snapshot().Empty())
}

func TestSessionService_Logout_StoreFailureStillAnonymous(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "director@example.edu", "secret123")
	require.NoError(t, err)

	store.ClearErr = errors.New("read-only")
	err = svc.Logout(ctx)
	require.ErrorIs(t, err, domainauth.ErrStoreUnavailable)
	assert.Equal(t, domainauth.StatusAnonymous, svc.Current().Status)
}

func TestSessionService_Rehydrate(t *testing.T) {
	user := domainauth.Identity{ID: "3", Name: "Prof. Michael Chen", Role: domainauth.RoleDirector}

	tests := []struct {
		name      string
		slots     domainauth.PersistedSession
		wantAuth  bool
		wantClear bool
	}{
		{name: "empty", slots: domainauth.PersistedSession{}},
		{name: "valid", slots: persisted(t, user, "tok-3"), wantAuth: true},
		{name: "token only", slots: domainauth.PersistedSession{Token: "tok"}, wantClear: true},
		{name: "user only", slots: domainauth.PersistedSession{User: `{"id":"3","role":"director"}`}, wantClear: true},
		{name: "bad json", slots: domainauth.PersistedSession{Token: "tok", User: "{not json"}, wantClear: true},
		{name: "unknown role", slots: domainauth.PersistedSession{Token: "tok", User: `{"id":"3","role":"dean"}`}, wantClear: true},
		{name: "missing id", slots: domainauth.PersistedSession{Token: "tok", User: `{"role":"admin"}`}, wantClear: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, verifier, store := newTestService(t)
			store.Put(tt.slots)

			sess := svc.Rehydrate(context.Background())
			assert.Equal(t, tt.wantAuth, sess.IsAuthenticated())
			assert.Equal(t, sess, svc.Current())
			assert.Equal(t, 0, verifier.LoginCalls()+verifier.WhoAmICalls())
			if tt.wantAuth {
				assert.Equal(t, user, *sess.Identity)
				assert.Equal(t, "tok-3", sess.Token)
			}
			if tt.wantClear {
				assert.Equal(t, 1, store.Clears())
				assert.True(t, store.Snapshot().Empty())
			} else {
				assert.Equal(t, 0, store.Clears())
			}
		})
	}
}

func TestSessionService_Rehydrate_RunsOnce(t *testing.T) {
	svc, _, store := newTestService(t)
	store.Put(persisted(t, domainauth.Identity{ID: "1", Role: domainauth.RoleAdmin}, "tok"))
	require.True(t, svc.Rehydrate(context.Background()).IsAuthenticated())

	require.NoError(t, svc.Logout(context.Background()))
	store.Put(persisted(t, domainauth.Identity{ID: "2", Role: domainauth.RoleFaculty}, "other"))

	assert.False(t, svc.Rehydrate(context.Background()).IsAuthenticated())
}

func TestSessionService_RefreshIdentity_Success(t *testing.T) {
	svc, verifier, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "hod@example.edu", "secret123")
	require.NoError(t, err)
	token := svc.Current().Token

	promoted := domainauth.Identity{ID: "id-hod", Name: "hod", Role: domainauth.RoleDirector}
	verifier.WhoAmIFunc = func(_ context.Context, tok string) (domainauth.Identity, error) {
		assert.Equal(t, token, tok)
		return promoted, nil
	}

	id, err := svc.RefreshIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, promoted, id)
	assert.Equal(t, domainauth.RoleDirector, svc.Current().Role())
	assert.Equal(t, token, svc.Current().Token)

	restored, err := domainauth.Restore(store.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleDirector, restored.Role())
}

func TestSessionService_RefreshIdentity_ExpiredTokenLogsOut(t *testing.T) {
	svc, verifier, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "registrar@example.edu", "secret123")
	require.NoError(t, err)

	verifier.WhoAmIFunc = func(context.Context, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, domainauth.ErrSessionExpired
	}

	_, err = svc.RefreshIdentity(ctx)
	require.ErrorIs(t, err, domainauth.ErrSessionExpired)
	assert.Equal(t, domainauth.Anonymous(), svc.Current())
	assert.True(t, store.Snapshot().Empty())

	final, _ := navigation.Resolve(svc.Current(), "/registrar/dashboard")
	assert.Equal(t, navigation.PathLogin, final)
}

func TestSessionService_RefreshIdentity_UnavailableLogsOut(t *testing.T) {
	svc, verifier, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "registrar@example.edu", "secret123")
	require.NoError(t, err)

	verifier.WhoAmIFunc = func(context.Context, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, errors.New("502 bad gateway")
	}

	_, err = svc.RefreshIdentity(ctx)
	require.ErrorIs(t, err, domainauth.ErrVerifierUnavailable)
	assert.False(t, svc.Current().IsAuthenticated())
	assert.True(t, store.Snapshot().Empty())
}

func TestSessionService_RefreshIdentity_RequiresSession(t *testing.T) {
	svc, verifier, _ := newTestService(t)
	_, err := svc.RefreshIdentity(context.Background())
	require.ErrorIs(t, err, domainauth.ErrNotAuthenticated)
	assert.Equal(t, 0, verifier.WhoAmICalls())
}

func TestSessionService_RefreshIdentity_Coalesces(t *testing.T) {
	svc, verifier, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "admin@example.edu", "secret123")
	require.NoError(t, err)

	release := make(chan struct{})
	verifier.WhoAmIFunc = func(context.Context, string) (domainauth.Identity, error) {
		<-release
		return domainauth.Identity{ID: "id-admin", Role: domainauth.RoleAdmin}, nil
	}

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RefreshIdentity(ctx)
			errs <- err
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, verifier.WhoAmICalls())
}

func TestSessionService_LogoutSupersedesInFlightLogin(t *testing.T) {
	svc, verifier, store := newTestService(t)
	started := make(chan struct{})
	release := make(chan struct{})
	verifier.LoginFunc = func(context.Context, string, string) (domainauth.Grant, error) {
		close(started)
		<-release
		return domainauth.Grant{AccessToken: "late", User: domainauth.Identity{ID: "1", Role: domainauth.RoleAdmin}}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Login(context.Background(), "admin@example.edu", "secret123")
		done <- err
	}()
	<-started

	require.NoError(t, svc.Logout(context.Background()))
	close(release)

	require.ErrorIs(t, <-done, domainauth.ErrSuperseded)
	assert.Equal(t, domainauth.Anonymous(), svc.Current())
	assert.Equal(t, 0, store.Saves())
}

func TestSessionService_NewerLoginWins(t *testing.T) {
	svc, verifier, store := newTestService(t)
	started := make(chan struct{})
	release := make(chan struct{})
	verifier.LoginFunc = func(_ context.Context, email, _ string) (domainauth.Grant, error) {
		if email == "slow@example.edu" {
			close(started)
			<-release
			return domainauth.Grant{AccessToken: "slow", User: domainauth.Identity{ID: "s", Role: domainauth.RoleFaculty}}, nil
		}
		return domainauth.Grant{AccessToken: "fast", User: domainauth.Identity{ID: "f", Role: domainauth.RoleHOD}}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Login(context.Background(), "slow@example.edu", "secret123")
		done <- err
	}()
	<-started

	_, err := svc.Login(context.Background(), "fast@example.edu", "secret123")
	require.NoError(t, err)
	close(release)

	require.ErrorIs(t, <-done, domainauth.ErrSuperseded)
	assert.Equal(t, "fast", svc.Current().Token)
	assert.Equal(t, "fast", store.Snapshot().Token)
}

func TestSessionService_ExpireToken(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Login(ctx, "office_head@example.edu", "secret123")
	require.NoError(t, err)
	token := svc.Current().Token

	assert.False(t, svc.ExpireToken(ctx, "stale-token"))
	assert.True(t, svc.Current().IsAuthenticated())

	assert.True(t, svc.ExpireToken(ctx, token))
	assert.Equal(t, domainauth.Anonymous(), svc.Current())
	assert.True(t, store.Snapshot().Empty())

	assert.False(t, svc.ExpireToken(ctx, token))
}

func TestSessionService_FacultyCannotReachAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Login(context.Background(), "faculty@example.edu", "secret123")
	require.NoError(t, err)

	final, _ := navigation.Resolve(svc.Current(), navigation.PathLogin)
	assert.Equal(t, "/faculty/dashboard", final)

	final, first := navigation.Resolve(svc.Current(), "/admin")
	assert.Equal(t, navigation.PathUnauthorized, final)
	assert.Equal(t, navigation.Redirect, first.Outcome)
}

func TestSessionService_ConcurrentReadsNeverBlock(t *testing.T) {
	svc, verifier, _ := newTestService(t)
	release := make(chan struct{})
	verifier.LoginFunc = func(context.Context, string, string) (domainauth.Grant, error) {
		<-release
		return domainauth.Grant{AccessToken: "t", User: domainauth.Identity{ID: "1", Role: domainauth.RoleFaculty}}, nil
	}
	go func() { _, _ = svc.Login(context.Background(), "a@example.edu", "secret123") }()

	// Readers observe one of the published states and return immediately.
	deadline := time.After(time.Second)
	for range 1000 {
		select {
		case <-deadline:
			t.Fatal("reads blocked")
		default:
		}
		cur := svc.Current()
		assert.Equal(t, cur.Identity != nil, cur.Token != "")
	}
	close(release)
}

func ptr[T any](v T) *T { return &v }

type gaugeSink struct {
	mu     sync.Mutex
	gauges []float64
	roles  []string
}

func (g *gaugeSink) Count(string, int64, map[string]string)          {}
func (g *gaugeSink) Timing(string, time.Duration, map[string]string) {}

func (g *gaugeSink) Gauge(name string, value float64, tags map[string]string) {
	if name != "session.authenticated" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gauges = append(g.gauges, value)
	g.roles = append(g.roles, tags["role"])
}

func TestSessionService_PublishesAuthenticatedGauge(t *testing.T) {
	sink := &gaugeSink{}
	svc := NewSessionService(SessionServiceOptions{
		Verifier: authmocks.NewFakeVerifier(),
		Store:    authmocks.NewMemorySessionStore(),
		Metrics:  sink,
	})
	ctx := context.Background()

	_, err := svc.Login(ctx, "hod@example.edu", "secret123")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	// constructor, authenticating, authenticated, logout
	assert.Equal(t, []float64{0, 0, 1, 0}, sink.gauges)
	assert.Equal(t, []string{"", "", "hod", ""}, sink.roles)
}
