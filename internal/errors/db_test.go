package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"deadline exceeded", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", fmt.Errorf("query: %w", context.Canceled), ErrCodeCanceled},
		{"no rows", pgx.ErrNoRows, ErrCodeNotFound},
		{"connection failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, ErrCodeUnavailable},
		{"too many connections", &pgconn.PgError{Code: pgerrcode.TooManyConnections}, ErrCodeUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: pgerrcode.AdminShutdown}, ErrCodeUnavailable},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "profile"}, ErrCodeConflict},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation}, ErrCodeValidation},
		{"undefined table", &pgconn.PgError{Code: pgerrcode.UndefinedTable}, ErrCodeInternal},
		{"other", &pgconn.PgError{Code: pgerrcode.SyntaxError}, ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.err)
			if code := GetCode(got); code != tt.wantCode {
				t.Errorf("MapDBError(%v) code = %q, want %q", tt.err, code, tt.wantCode)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("mapped error should wrap the original")
			}
		})
	}
}

func TestMapDBError_UniqueField(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "profile"})
	if GetField(err) != "profile" {
		t.Errorf("field = %q", GetField(err))
	}
}

func TestMapDBError_Passthrough(t *testing.T) {
	plain := errors.New("not a db error")
	if got := MapDBError(plain); got != plain {
		t.Errorf("expected passthrough, got %v", got)
	}
}
