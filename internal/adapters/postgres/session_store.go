// Package postgres stores the persisted session slots in a Postgres table,
// one row per client profile.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	apperrors "github.com/vijayaragavaan2065/faculty-pulse-view/internal/errors"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

// DefaultTable is the table created by the bundled migrations.
const DefaultTable = "client_sessions"

// DefaultProfile names the row used when no profile is configured.
const DefaultProfile = "default"

// Options configures SessionStore.
type Options struct {
	Table   string
	Profile string
}

// SessionStore implements ports.SessionStore over database/sql with the pgx driver.
type SessionStore struct {
	db      *sql.DB
	profile string

	selectSQL string
	upsertSQL string
	deleteSQL string
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore returns a store bound to one profile row.
func NewSessionStore(db *sql.DB, opts Options) *SessionStore {
	table := opts.Table
	if table == "" {
		table = DefaultTable
	}
	profile := opts.Profile
	if profile == "" {
		profile = DefaultProfile
	}
	ident := pgx.Identifier{table}.Sanitize()
	return &SessionStore{
		db:      db,
		profile: profile,
		selectSQL: `SELECT access_token, user_json FROM ` + ident + ` WHERE profile = $1`,
		upsertSQL: `INSERT INTO ` + ident + ` (profile, access_token, user_json, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile) DO UPDATE
SET access_token = EXCLUDED.access_token, user_json = EXCLUDED.user_json, updated_at = now()`,
		deleteSQL: `DELETE FROM ` + ident + ` WHERE profile = $1`,
	}
}

// Load returns the slots for the profile. A missing row is an empty session.
func (s *SessionStore) Load(ctx context.Context) (domainauth.PersistedSession, error) {
	var p domainauth.PersistedSession
	err := s.db.QueryRowContext(ctx, s.selectSQL, s.profile).Scan(&p.Token, &p.User)
	if errors.Is(err, sql.ErrNoRows) {
		return domainauth.PersistedSession{}, nil
	}
	if err != nil {
		return domainauth.PersistedSession{}, fmt.Errorf("load session %q: %w", s.profile, apperrors.MapDBError(err))
	}
	return p, nil
}

// Save upserts both slots in a single statement.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.PersistedSession) error {
	if sess.Token == "" || sess.User == "" {
		return apperrors.Validation("both session slots are required")
	}
	if _, err := s.db.ExecContext(ctx, s.upsertSQL, s.profile, sess.Token, sess.User); err != nil {
		return fmt.Errorf("save session %q: %w", s.profile, apperrors.MapDBError(err))
	}
	return nil
}

// Clear deletes the profile row. Deleting a missing row is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.deleteSQL, s.profile); err != nil {
		return fmt.Errorf("clear session %q: %w", s.profile, apperrors.MapDBError(err))
	}
	return nil
}
