package staff

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrMismatchedHashAndPassword is returned for any failed credential check.
// Unknown email and wrong password collapse into this one value so the
// login endpoint cannot be used to enumerate accounts.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrTokenMalformed covers every token decode failure: bad structure,
// signature mismatch, unexpected algorithm. Callers treat it as "no token".
var ErrTokenMalformed = errors.New("authentication token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrTokenExpired is only reachable when an operator opts into token
// expiration; the default deployment issues unbounded tokens.
var ErrTokenExpired = errors.New("authentication token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrForbidden rejects authenticated users acting outside their scope.
var ErrForbidden = errors.New("forbidden", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("FORBIDDEN")

// ErrEmailTaken maps the storage-level uniqueness constraint to a
// field-addressable validation failure.
var ErrEmailTaken = errors.New("email has already been taken", errors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN")

// ErrAvatarStorageUnavailable is returned by upload operations when no
// object storage is configured for this deployment.
var ErrAvatarStorageUnavailable = errors.New("avatar storage is not configured", errors.CategoryOperation).
	WithTextCode("AVATAR_STORAGE_UNAVAILABLE")

// IsTokenExpiredError will check for error message
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsTokenMalformedError will check for error message
func IsTokenMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == ErrTokenMalformed.TextCode {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
