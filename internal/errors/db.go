package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database errors from the profile store into AppError
// instances:
//   - pgx.ErrNoRows → NotFound
//   - unique constraint violations → Conflict (concurrent first-login upserts)
//   - context deadline/cancel → Timeout/Canceled
//   - anything else → Internal
//
// Unrecognized non-database errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "profile store timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "profile store request canceled", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "profile not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return &AppError{Code: ErrCodeConflict, Message: "profile already exists", Cause: pgErr}
		}
		return &AppError{Code: ErrCodeInternal, Message: "profile store error", Cause: pgErr}
	}

	return err
}
