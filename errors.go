package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCredentials marks a rejected email/password pair
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeValidation marks user-correctable input errors
	TextCodeValidation = "VALIDATION_ERROR"
	// TextCodeUnauthorized marks a missing, expired, or rejected token
	TextCodeUnauthorized = "UNAUTHORIZED"
	// TextCodeNetworkFailure marks a transport-level failure
	TextCodeNetworkFailure = "NETWORK_FAILURE"
	// TextCodeMalformedState marks corrupt persisted session state
	TextCodeMalformedState = "MALFORMED_PERSISTED_STATE"
	// TextCodeUnexpectedPayload marks an unrecognized identity response shape
	TextCodeUnexpectedPayload = "UNEXPECTED_PAYLOAD"
)

// ErrInvalidCredentials is returned when the backend rejects a login pair.
// It is user correctable and meant to be shown inline at the form boundary.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthorized is returned when the current credential is missing or
// rejected. The session manager handles it globally by purging the session.
var ErrUnauthorized = errors.New("session token missing or rejected", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrValidation is returned when the backend reports the input invalid,
// e.g. an email that is already registered.
var ErrValidation = errors.New("the input provided is invalid", errors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(errors.CodeBadRequest)

// ErrMalformedState is returned when the persisted profile cannot be decoded.
// Stores swallow it and report an empty session; it exists for logging.
var ErrMalformedState = errors.New("persisted session state is malformed", errors.CategoryBadInput).
	WithTextCode(TextCodeMalformedState).
	WithCode(errors.CodeBadRequest)

// ErrUnexpectedPayload is the single failure mode of the response decoder
// when no documented shape matches.
var ErrUnexpectedPayload = errors.New("unrecognized identity response shape", errors.CategoryBadInput).
	WithTextCode(TextCodeUnexpectedPayload).
	WithCode(errors.CodeBadRequest)

// NetworkError wraps a transport failure. The session is preserved on this
// class of error, unlike an authorization failure.
func NetworkError(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryOperation, "identity endpoint unreachable").
		WithTextCode(TextCodeNetworkFailure).
		WithCode(errors.CodeInternal)
}

// ValidationError wraps user-correctable input errors with field metadata
func ValidationError(err error, fields map[string]any) *errors.Error {
	rich := errors.Wrap(err, errors.CategoryValidation, "the input provided is invalid").
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest)
	if len(fields) > 0 {
		rich = rich.WithMetadata(fields)
	}
	return rich
}

// IsInvalidCredentialsError checks for rejected login pairs
func IsInvalidCredentialsError(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsUnauthorizedError checks for rejected or missing credentials
func IsUnauthorizedError(err error) bool {
	return hasTextCode(err, TextCodeUnauthorized)
}

// IsValidationError checks for user-correctable input errors
func IsValidationError(err error) bool {
	return hasTextCode(err, TextCodeValidation)
}

// IsNetworkError checks for transport-level failures
func IsNetworkError(err error) bool {
	return hasTextCode(err, TextCodeNetworkFailure)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}
