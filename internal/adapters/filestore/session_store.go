// Package filestore keeps the persisted session slots as two files in a
// per-profile directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

// Slot file names. They match the keys used by the browser console.
const (
	TokenSlot = "access_token"
	UserSlot  = "user"
)

const (
	dirPerm  fs.FileMode = 0o700
	filePerm fs.FileMode = 0o600
)

// SessionStore implements ports.SessionStore on the local filesystem.
type SessionStore struct {
	dir string
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore returns a store rooted at root/profile. The directory is
// created on first save.
func NewSessionStore(root, profile string) (*SessionStore, error) {
	if root == "" {
		return nil, errors.New("filestore: root directory is required")
	}
	if profile == "" {
		profile = "default"
	}
	if profile != filepath.Base(profile) || profile == "." || profile == ".." {
		return nil, fmt.Errorf("filestore: invalid profile %q", profile)
	}
	return &SessionStore{dir: filepath.Join(root, profile)}, nil
}

// Dir returns the profile directory.
func (s *SessionStore) Dir() string { return s.dir }

// Load reads both slots. Missing files read as empty slots.
func (s *SessionStore) Load(ctx context.Context) (domainauth.PersistedSession, error) {
	if err := ctx.Err(); err != nil {
		return domainauth.PersistedSession{}, err
	}
	token, err := s.read(TokenSlot)
	if err != nil {
		return domainauth.PersistedSession{}, err
	}
	user, err := s.read(UserSlot)
	if err != nil {
		return domainauth.PersistedSession{}, err
	}
	return domainauth.PersistedSession{Token: token, User: user}, nil
}

// Save writes the user slot first and the token slot last, each by rename,
// so a crash between the two leaves a token-less pair that Rehydrate discards.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.PersistedSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess.Token == "" || sess.User == "" {
		return errors.New("filestore: both session slots are required")
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("filestore: create %s: %w", s.dir, err)
	}
	if err := os.Remove(filepath.Join(s.dir, TokenSlot)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: remove stale token: %w", err)
	}
	if err := s.write(UserSlot, sess.User); err != nil {
		return err
	}
	return s.write(TokenSlot, sess.Token)
}

// Clear removes both slot files. Missing files are ignored.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var errs []error
	for _, slot := range []string{TokenSlot, UserSlot} {
		if err := os.Remove(filepath.Join(s.dir, slot)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("filestore: remove %s: %w", slot, err))
		}
	}
	return errors.Join(errs...)
}

func (s *SessionStore) read(slot string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, slot))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("filestore: read %s: %w", slot, err)
	}
	return string(b), nil
}

func (s *SessionStore) write(slot, value string) error {
	tmp, err := os.CreateTemp(s.dir, "."+slot+"-*")
	if err != nil {
		return fmt.Errorf("filestore: temp %s: %w", slot, err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: write %s: %w", slot, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("filestore: chmod %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filestore: close %s: %w", slot, err)
	}
	if err := os.Rename(name, filepath.Join(s.dir, slot)); err != nil {
		cleanup()
		return fmt.Errorf("filestore: rename %s: %w", slot, err)
	}
	return nil
}
