package services

import (
	"errors"
	"fmt"

	"excelbot-backend-go/internal/store"
)

// Stable machine-readable error codes surfaced in response bodies.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeAuthFailed    = "AUTHENTICATION_FAILED"
	CodeTokenExpired  = "TOKEN_EXPIRED"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeForbidden     = "FORBIDDEN"
	CodeCSRFInvalid   = "CSRF_INVALID"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeAccountLocked = "ACCOUNT_LOCKED"
	CodeRateLimited   = "RATE_LIMITED"
	CodeUsageLimit    = "USAGE_LIMIT_EXCEEDED"
	CodeInternal      = "INTERNAL_ERROR"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrValidation(msg string) error {
	return ServiceError{Status: 400, Code: CodeValidation, Message: msg}
}

func ErrAuthFailed(msg string) error {
	return ServiceError{Status: 401, Code: CodeAuthFailed, Message: msg}
}

func ErrInvalidToken(msg string) error {
	return ServiceError{Status: 401, Code: CodeInvalidToken, Message: msg}
}

func ErrTokenExpired(msg string) error {
	return ServiceError{Status: 401, Code: CodeTokenExpired, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: 403, Code: CodeForbidden, Message: msg}
}

func ErrCSRF(msg string) error {
	return ServiceError{Status: 403, Code: CodeCSRFInvalid, Message: msg}
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: 404, Code: CodeNotFound, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: 409, Code: CodeConflict, Message: msg}
}

func ErrAccountLocked(msg string) error {
	return ServiceError{Status: 423, Code: CodeAccountLocked, Message: msg}
}

func ErrUsageLimit(msg string) error {
	return ServiceError{Status: 429, Code: CodeUsageLimit, Message: msg}
}

func ErrInternal(msg string) error {
	return ServiceError{Status: 500, Code: CodeInternal, Message: msg}
}

// FromStore maps store sentinels onto the taxonomy; other errors pass through
// for the boundary's last-resort handler.
func FromStore(err error, notFoundMsg, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound(notFoundMsg)
	case errors.Is(err, store.ErrConflict):
		return ErrConflict(conflictMsg)
	default:
		return err
	}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
