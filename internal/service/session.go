package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/observability/metrics"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/observability/statsd"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
	"golang.org/x/sync/singleflight"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Verifier ports.CredentialVerifier
	Store    ports.SessionStore
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// SessionService owns the process-wide session: it is the only writer of
// both the in-memory snapshot and the persisted store.
//
// Transitions are serialized by mu. Readers load the snapshot without
// locking. Every login start and every logout bumps epoch; a login or
// refresh whose epoch changed while it waited on the verifier is discarded.
type SessionService struct {
	verifier ports.CredentialVerifier
	store    ports.SessionStore
	logger   *slog.Logger
	metrics  statsd.Sink

	mu         sync.Mutex
	epoch      uint64
	rehydrated bool
	current    atomic.Pointer[domainauth.Session]

	refreshes singleflight.Group
}

var _ ports.SessionSource = (*SessionService)(nil)

// NewSessionService constructs an anonymous SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &SessionService{
		verifier: opts.Verifier,
		store:    opts.Store,
		logger:   logger.With("component", "session"),
		metrics:  opts.Metrics,
	}
	s.publish(domainauth.Anonymous())
	return s
}

// Current returns the session snapshot. It never blocks.
func (s *SessionService) Current() domainauth.Session {
	return *s.current.Load()
}

// publish swaps the snapshot and updates the session.authenticated gauge.
// Callers hold mu, except the constructor.
func (s *SessionService) publish(sess domainauth.Session) {
	s.current.Store(&sess)
	metrics.EmitSessionState(s.metrics, sess.IsAuthenticated(), string(sess.Role()))
}

// Login verifies credentials and, on success, persists and publishes the
// authenticated session. The session reads as authenticating while the
// verifier call is in flight.
func (s *SessionService) Login(ctx context.Context, email, password string) (domainauth.Identity, error) {
	if email == "" || password == "" {
		return domainauth.Identity{}, fmt.Errorf("%w: email and password are required", domainauth.ErrInvalidCredentials)
	}

	start := time.Now()
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.publish(domainauth.Session{Status: domainauth.StatusAuthenticating})
	s.mu.Unlock()

	grant, err := s.verifier.Login(ctx, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.commitLogin(ctx, epoch, grant, err)
	s.emit(metrics.TransitionLogin, string(id.Role), time.Since(start), err)
	if err != nil {
		s.logger.InfoContext(ctx, "login failed", "error", err)
		return domainauth.Identity{}, err
	}
	s.logger.InfoContext(ctx, "login succeeded", "user_id", id.ID, "role", id.Role)
	return id, nil
}

func (s *SessionService) commitLogin(ctx context.Context, epoch uint64, grant domainauth.Grant, verr error) (domainauth.Identity, error) {
	if s.epoch != epoch {
		return domainauth.Identity{}, domainauth.ErrSuperseded
	}
	if verr != nil {
		s.publish(domainauth.Anonymous())
		return domainauth.Identity{}, normalizeVerifierError(verr)
	}
	if grant.AccessToken == "" {
		s.publish(domainauth.Anonymous())
		return domainauth.Identity{}, fmt.Errorf("%w: empty access token", domainauth.ErrVerifierUnavailable)
	}
	if err := domainauth.ValidateIdentity(grant.User); err != nil {
		s.publish(domainauth.Anonymous())
		return domainauth.Identity{}, fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}
	if err := s.persist(ctx, grant.User, grant.AccessToken); err != nil {
		s.publish(domainauth.Anonymous())
		return domainauth.Identity{}, err
	}
	s.publish(domainauth.Authenticated(grant.User, grant.AccessToken))
	return grant.User, nil
}

// persist writes both slots. A failed write is followed by a best-effort
// clear so the store never holds a half-written session.
func (s *SessionService) persist(ctx context.Context, id domainauth.Identity, token string) error {
	p, err := domainauth.Persist(id, token)
	if err != nil {
		return fmt.Errorf("%w: %w", domainauth.ErrStoreUnavailable, err)
	}
	if err := s.store.Save(ctx, p); err != nil {
		saveErr := fmt.Errorf("%w: save: %w", domainauth.ErrStoreUnavailable, err)
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			return errors.Join(saveErr, fmt.Errorf("clear: %w", clearErr))
		}
		return saveErr
	}
	return nil
}

// Logout clears the store and then the in-memory session. It is idempotent
// and always leaves the session anonymous; only storage failures are returned.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Current()
	err := s.clearLocked(ctx)
	s.emit(metrics.TransitionLogout, string(prev.Role()), 0, err)
	if err != nil {
		s.logger.WarnContext(ctx, "logout could not clear session store", "error", err)
		return err
	}
	if prev.IsAuthenticated() {
		s.logger.InfoContext(ctx, "logged out", "user_id", prev.Identity.ID)
	}
	return nil
}

// clearLocked supersedes in-flight work, clears the store and publishes
// the anonymous session. Callers hold mu.
func (s *SessionService) clearLocked(ctx context.Context) error {
	s.epoch++
	err := s.store.Clear(ctx)
	s.publish(domainauth.Anonymous())
	if err != nil {
		return fmt.Errorf("%w: clear: %w", domainauth.ErrStoreUnavailable, err)
	}
	return nil
}

// RefreshIdentity asks the verifier who the current token belongs to and
// replaces the identity with the answer. Any failure logs the session out
// before the error is returned. Concurrent calls share one round trip.
func (s *SessionService) RefreshIdentity(ctx context.Context) (domainauth.Identity, error) {
	cur := s.Current()
	if !cur.IsAuthenticated() {
		return domainauth.Identity{}, domainauth.ErrNotAuthenticated
	}

	v, err, _ := s.refreshes.Do(cur.Token, func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx), cur.Token)
	})
	if err != nil {
		return domainauth.Identity{}, err
	}
	id, _ := v.(domainauth.Identity)
	return id, nil
}

func (s *SessionService) refresh(ctx context.Context, token string) (domainauth.Identity, error) {
	start := time.Now()
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	id, werr := s.verifier.WhoAmI(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.commitRefresh(ctx, epoch, token, id, werr)
	s.emit(metrics.TransitionRefresh, string(id.Role), time.Since(start), err)
	if err != nil {
		s.logger.WarnContext(ctx, "identity refresh failed", "error", err)
		return domainauth.Identity{}, err
	}
	s.logger.DebugContext(ctx, "identity refreshed", "user_id", id.ID, "role", id.Role)
	return id, nil
}

func (s *SessionService) commitRefresh(ctx context.Context, epoch uint64, token string, id domainauth.Identity, werr error) (domainauth.Identity, error) {
	if s.epoch != epoch || s.Current().Token != token {
		return domainauth.Identity{}, domainauth.ErrSuperseded
	}

	failure := werr
	if failure == nil {
		if err := domainauth.ValidateIdentity(id); err != nil {
			failure = fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
		}
	}
	if failure != nil {
		out := domainauth.ErrSessionExpired
		if !errors.Is(failure, domainauth.ErrSessionExpired) {
			out = normalizeVerifierError(failure)
		}
		if clearErr := s.clearLocked(ctx); clearErr != nil {
			return domainauth.Identity{}, errors.Join(out, clearErr)
		}
		return domainauth.Identity{}, out
	}

	if err := s.persist(ctx, id, token); err != nil {
		s.epoch++
		s.publish(domainauth.Anonymous())
		return domainauth.Identity{}, err
	}
	s.publish(domainauth.Authenticated(id, token))
	return id, nil
}

// Rehydrate restores the persisted session once per process. Incomplete or
// undecodable slots are cleared and the session stays anonymous. No network
// call is made. Later calls return the current snapshot unchanged.
func (s *SessionService) Rehydrate(ctx context.Context) domainauth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rehydrated {
		return s.Current()
	}
	s.rehydrated = true

	p, err := s.store.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "session store unreadable; starting anonymous", "error", err)
		s.emit(metrics.TransitionRehydrate, "", 0, fmt.Errorf("%w: load: %w", domainauth.ErrStoreUnavailable, err))
		return s.Current()
	}
	if p.Empty() {
		s.emitResult(metrics.TransitionRehydrate, metrics.ResultNoop, "")
		return s.Current()
	}

	sess, err := domainauth.Restore(p)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding persisted session", "error", err)
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.logger.WarnContext(ctx, "failed to clear persisted session", "error", clearErr)
		}
		s.emit(metrics.TransitionRehydrate, "", 0, err)
		return s.Current()
	}

	s.publish(sess)
	s.emit(metrics.TransitionRehydrate, string(sess.Role()), 0, nil)
	s.logger.InfoContext(ctx, "session restored", "user_id", sess.Identity.ID, "role", sess.Identity.Role)
	return sess
}

// ExpireToken performs a forced logout when token is still the current
// one. It reports whether the session was logged out.
func (s *SessionService) ExpireToken(ctx context.Context, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Current()
	if token == "" || !cur.IsAuthenticated() || cur.Token != token {
		return false
	}
	if err := s.clearLocked(ctx); err != nil {
		s.logger.WarnContext(ctx, "forced logout could not clear session store", "error", err)
	}
	s.emit(metrics.TransitionExpire, string(cur.Role()), 0, nil)
	s.logger.InfoContext(ctx, "session expired by remote rejection", "user_id", cur.Identity.ID)
	return true
}

func (s *SessionService) emit(transition, role string, d time.Duration, err error) {
	metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{
		Transition: transition,
		Result:     metrics.ResultFor(err),
		Role:       role,
		Duration:   d,
		Err:        err,
	})
}

func (s *SessionService) emitResult(transition, result, role string) {
	metrics.EmitSessionTransition(s.metrics, metrics.SessionMetric{
		Transition: transition,
		Result:     result,
		Role:       role,
	})
}

// normalizeVerifierError collapses verifier failures to the two login
// outcomes callers distinguish.
func normalizeVerifierError(err error) error {
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials), errors.Is(err, domainauth.ErrVerifierUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", domainauth.ErrVerifierUnavailable, err)
	}
}
