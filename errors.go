package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrEmailInUse is returned when signup hits an already verified address.
// Duplicate key violations from concurrent signups map here as well.
var ErrEmailInUse = errors.New("email already in use", errors.CategoryConflict).
	WithTextCode("EMAIL_IN_USE").
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials covers both unknown emails and password mismatches so
// callers cannot probe which addresses exist.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotVerified is returned by login when the account has not redeemed
// its verification token and AllowUnverifiedLogin is off.
var ErrAccountNotVerified = errors.New("account email is not verified", errors.CategoryAuth).
	WithTextCode("ACCOUNT_NOT_VERIFIED").
	WithCode(errors.CodeUnauthorized)

// ErrMissingToken is returned when the verification endpoint is called with no
// token at all.
var ErrMissingToken = errors.New("no token provided", errors.CategoryValidation).
	WithTextCode("MISSING_TOKEN").
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is the structured failure for tokens past their validity
// window. Kept distinct from ErrTokenMalformed even though the user facing
// message is the same for both.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers tampered, truncated, or otherwise undecodable
// tokens, including signature mismatches.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound is returned when a token carries an id that no longer
// resolves to an account, e.g. deleted between issuance and redemption.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode("ACCOUNT_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == ErrTokenExpired.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == ErrTokenMalformed.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
// Covers sqlite and postgres drivers, which is what the persistence layer
// validates against.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "constraint failed: accounts.email")
}
