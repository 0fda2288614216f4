package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict") // e.g., username already exists
	ErrInternalServer = errors.New("internal server error")
	ErrValidation     = errors.New("validation failed")
)

// AuthError is a 401-class failure from session verification. Code is the
// machine-readable value of the wire contract.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ForbiddenError is a 403-class failure from an authorization check.
type ForbiddenError struct {
	Code    string
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

var (
	// ErrNotLoggedIn: no refresh credential was ever presented.
	ErrNotLoggedIn = &AuthError{Code: "USER_NOT_LOGGED_IN", Message: "user is not logged in"}
	// ErrLoginEnded: a refresh credential was presented but rejected.
	ErrLoginEnded = &AuthError{Code: "USER_LOGIN_ENDED", Message: "login session has ended"}
	// ErrBadCredentials: login attempt with an unknown user or wrong password.
	ErrBadCredentials = &AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}

	ErrUnauthorized            = &ForbiddenError{Code: "UNAUTHORIZED", Message: "insufficient access for this action"}
	ErrUnauthorizedAccessLevel = &ForbiddenError{Code: "UNAUTHORIZED_ACCESS_LEVEL", Message: "cannot assign an access level above your own"}
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}
	var forbiddenErr *ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}

	// Check for pgx specific errors (example for unique constraint)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// ErrorCode returns the wire-contract code for err.
func ErrorCode(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	var forbiddenErr *ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return forbiddenErr.Code
	}
	switch HTTPStatusFromError(err) {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		if errors.Is(err, ErrValidation) {
			return "VALIDATION_ERROR"
		}
		return "BAD_REQUEST"
	case http.StatusConflict:
		return "CONFLICT"
	}
	return "INTERNAL"
}
