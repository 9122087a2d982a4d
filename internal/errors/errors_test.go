package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	plain := &AppError{Code: ErrCodeRevoked, Message: "session revoked"}
	assert.Equal(t, "session revoked", plain.Error())

	wrapped := &AppError{Code: ErrCodeInternal, Message: "boom", Cause: errors.New("root")}
	assert.Equal(t, "boom: root", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	root := errors.New("root cause")
	err := Wrap(root, ErrCodeNetwork, "request failed")

	assert.True(t, errors.Is(err, root))
}

func TestInvalidToken_CarriesProviderCode(t *testing.T) {
	err := InvalidToken("auth/id-token-expired", errors.New("exp claim in the past"))

	assert.True(t, IsInvalidToken(err))
	assert.Equal(t, "auth/id-token-expired", GetProviderCode(err))
	assert.Equal(t, ErrCodeInvalidToken, GetCode(err))
}

func TestGetProviderCode_NonAppError(t *testing.T) {
	assert.Empty(t, GetProviderCode(errors.New("plain")))
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid cookie", InvalidCookie(errors.New("bad sig")), IsInvalidCookie},
		{"revoked", Revoked("revoked upstream"), IsRevoked},
		{"principal not found", PrincipalNotFound("u1"), IsPrincipalNotFound},
		{"profile unavailable", ProfileUnavailable(errors.New("conn refused")), IsProfileUnavailable},
		{"not found", NotFound("missing"), IsNotFound},
		{"conflict", Conflict("duplicate"), IsConflict},
		{"validation", Validation("bad input"), IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(errors.New("unrelated")))
		})
	}
}

func TestCodePredicates_WrappedDeep(t *testing.T) {
	err := fmt.Errorf("outer: %w", PrincipalNotFound("u9"))
	assert.True(t, IsPrincipalNotFound(err))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestMapDBError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapDBError(nil))
	})

	t.Run("no rows", func(t *testing.T) {
		err := MapDBError(pgx.ErrNoRows)
		assert.True(t, IsNotFound(err))
	})

	t.Run("unique violation", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		err := MapDBError(pgErr)
		assert.True(t, IsConflict(err))
	})

	t.Run("deadline", func(t *testing.T) {
		err := MapDBError(context.DeadlineExceeded)
		assert.True(t, IsTimeout(err))
	})

	t.Run("other pg error", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgerrcode.ConnectionFailure}
		err := MapDBError(pgErr)
		require.Error(t, err)
		assert.Equal(t, ErrCodeInternal, GetCode(err))
	})

	t.Run("unrecognized passthrough", func(t *testing.T) {
		plain := errors.New("plain")
		assert.Equal(t, plain, MapDBError(plain))
	})
}
