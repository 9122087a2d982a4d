package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeInvalidToken indicates the presented identity token failed
	// provider verification (malformed, expired, wrong audience).
	ErrCodeInvalidToken ErrorCode = "invalid_token"
	// ErrCodeInvalidCookie indicates the session artifact failed verification.
	ErrCodeInvalidCookie ErrorCode = "invalid_cookie"
	// ErrCodeRevoked indicates the session or token was explicitly revoked upstream.
	ErrCodeRevoked ErrorCode = "revoked"
	// ErrCodePrincipalNotFound indicates the artifact verifies but the
	// underlying account no longer exists.
	ErrCodePrincipalNotFound ErrorCode = "principal_not_found"
	// ErrCodeProfileUnavailable indicates the soft profile-enrichment read
	// failed; never fatal on the check path.
	ErrCodeProfileUnavailable ErrorCode = "profile_unavailable"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeNetwork indicates a transport-level failure.
	ErrCodeNetwork ErrorCode = "network_error"
	// ErrCodeParse indicates a malformed response body.
	ErrCodeParse ErrorCode = "parse_error"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError is a structured application error with a code, message, and
// optional cause. It supports errors.Is / errors.As via Unwrap.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// ProviderCode carries the identity provider's own error code when one
	// exists (e.g. "auth/id-token-expired"); surfaced on the wire.
	ProviderCode string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// InvalidToken creates an identity-token verification error, preserving the
// provider's error code for the wire response.
func InvalidToken(providerCode string, cause error) *AppError {
	return &AppError{
		Code:         ErrCodeInvalidToken,
		Message:      "identity token verification failed",
		ProviderCode: providerCode,
		Cause:        cause,
	}
}

// InvalidCookie creates a session-artifact verification error.
func InvalidCookie(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidCookie,
		Message: "session cookie verification failed",
		Cause:   cause,
	}
}

// Revoked creates a revocation error.
func Revoked(message string) *AppError {
	return &AppError{Code: ErrCodeRevoked, Message: message}
}

// PrincipalNotFound creates an error for a valid-looking artifact whose
// account no longer exists.
func PrincipalNotFound(uid string) *AppError {
	return &AppError{
		Code:    ErrCodePrincipalNotFound,
		Message: fmt.Sprintf("principal %s no longer exists", uid),
	}
}

// ProfileUnavailable wraps a failed profile-store read.
func ProfileUnavailable(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeProfileUnavailable,
		Message: "profile store unavailable",
		Cause:   cause,
	}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsInvalidToken checks if an error is an InvalidToken error.
func IsInvalidToken(err error) bool { return isCode(err, ErrCodeInvalidToken) }

// IsInvalidCookie checks if an error is an InvalidCookie error.
func IsInvalidCookie(err error) bool { return isCode(err, ErrCodeInvalidCookie) }

// IsRevoked checks if an error is a Revoked error.
func IsRevoked(err error) bool { return isCode(err, ErrCodeRevoked) }

// IsPrincipalNotFound checks if an error is a PrincipalNotFound error.
func IsPrincipalNotFound(err error) bool { return isCode(err, ErrCodePrincipalNotFound) }

// IsProfileUnavailable checks if an error is a ProfileUnavailable error.
func IsProfileUnavailable(err error) bool { return isCode(err, ErrCodeProfileUnavailable) }

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsNetwork checks if an error is a transport-level failure.
func IsNetwork(err error) bool { return isCode(err, ErrCodeNetwork) }

// IsParse checks if an error is a malformed-response failure.
func IsParse(err error) bool { return isCode(err, ErrCodeParse) }

// IsCanceled checks if an error is a cancellation.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetProviderCode returns the identity provider's error code, if any.
func GetProviderCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ProviderCode
	}
	return ""
}
