package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	// TextCodeMissingCreds marks a login attempt with empty fields.
	TextCodeMissingCreds = "AUTH_MISSING_CREDENTIALS"
	// TextCodeInvalidCreds covers both unknown email and wrong password.
	TextCodeInvalidCreds = "AUTH_INVALID_CREDENTIALS"
	// TextCodeInactive marks a deactivated stakeholder.
	TextCodeInactive = "AUTH_STAKEHOLDER_INACTIVE"
	// TextCodeInvalidToken is the caller-facing code for every token failure.
	TextCodeInvalidToken = "AUTH_INVALID_TOKEN"
	// TextCodeTokenExpired is logged server-side, never returned to callers.
	TextCodeTokenExpired = "AUTH_TOKEN_EXPIRED"
	// TextCodeTokenMalformed covers bad signatures and unparseable tokens.
	TextCodeTokenMalformed = "AUTH_TOKEN_MALFORMED"
	// TextCodeWrongTokenKind marks an access token used as refresh or vice versa.
	TextCodeWrongTokenKind = "AUTH_WRONG_TOKEN_KIND"
	// TextCodeNotFound marks a vanished stakeholder behind a valid token.
	TextCodeNotFound = "AUTH_STAKEHOLDER_NOT_FOUND"
	// TextCodeEmptyPassword rejects hashing an empty string.
	TextCodeEmptyPassword = "AUTH_EMPTY_PASSWORD"
)

// ErrMissingCredentials is returned when email or password is absent.
var ErrMissingCredentials = errors.New("email and password are required", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCreds).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is returned for unknown email and wrong password
// alike; callers must not be able to tell which one happened.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrStakeholderInactive is returned when credentials check out but the
// account has been deactivated. Distinguishable from ErrInvalidCredentials
// for operators; the message still avoids confirming account details.
var ErrStakeholderInactive = errors.New("account is inactive", errors.CategoryAuth).
	WithTextCode(TextCodeInactive).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is the single caller-facing token failure. The specific
// reason (expired, malformed, wrong kind) is logged but never surfaced, to
// avoid giving attackers an oracle.
var ErrInvalidToken = errors.New("invalid or expired token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is the internal reason for a time-expired token.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is the internal reason for an unparseable token or a
// signature that does not verify.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenKind is the internal reason when a token verifies but its
// kind does not match what the endpoint requires.
var ErrWrongTokenKind = errors.New("token kind mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenKind).
	WithCode(errors.CodeUnauthorized)

// ErrStakeholderNotFound is only reachable after token verification, so a
// 404 here does not leak account existence to unauthenticated callers.
var ErrStakeholderNotFound = errors.New("stakeholder not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrNoEmptyString rejects hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens, including legacy
// string-matched errors from jwt middleware.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsTransientError reports whether the failure came from the persistence
// backend rather than the credentials themselves; those map to 5xx and are
// safe to retry.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryInternal ||
			richErr.Category == errors.CategoryOperation
	}
	return false
}
