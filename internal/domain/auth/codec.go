package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate //nolint:gochecknoglobals // validator caches struct metadata; build once
)

func identityValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Registration only fails on an empty tag name.
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return Role(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// ValidateIdentity checks that an identity has an id and a recognized role.
func ValidateIdentity(id Identity) error {
	if err := identityValidator().Struct(id); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid identity: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid identity: %w", err)
	}
	return nil
}

// EncodeIdentity serializes an identity for the user storage slot.
func EncodeIdentity(id Identity) (string, error) {
	b, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	return string(b), nil
}

// DecodeIdentity parses and validates the user storage slot.
// Any failure is reported as ErrMalformedPersistedSession.
func DecodeIdentity(raw string) (Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrMalformedPersistedSession, err)
	}
	if err := ValidateIdentity(id); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrMalformedPersistedSession, err)
	}
	return id, nil
}

// Persist converts an authenticated token and identity into storage slots.
func Persist(id Identity, token string) (PersistedSession, error) {
	user, err := EncodeIdentity(id)
	if err != nil {
		return PersistedSession{}, err
	}
	return PersistedSession{Token: token, User: user}, nil
}

// Restore turns persisted slots back into an authenticated session.
// Missing slots and undecodable identities both yield ErrMalformedPersistedSession.
func Restore(p PersistedSession) (Session, error) {
	if p.Token == "" || p.User == "" {
		return Anonymous(), fmt.Errorf("%w: missing slot", ErrMalformedPersistedSession)
	}
	id, err := DecodeIdentity(p.User)
	if err != nil {
		return Anonymous(), err
	}
	return Authenticated(id, p.Token), nil
}
