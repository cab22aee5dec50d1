package service

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is the only token or credential failure callers outside
// this package need to branch on. The more specific kinds below are joined
// to it for logging.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrMalformedToken     = errors.New("malformed token")
	ErrSignatureInvalid   = errors.New("signature invalid")
	ErrExpired            = errors.New("token expired")
	ErrRevoked            = errors.New("token revoked")
	ErrSubjectNotFound    = errors.New("subject not found")
	ErrCredentialMismatch = errors.New("credential mismatch")
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidUsername = fmt.Errorf("username must be at least %d characters", MinUsernameLength)
	ErrInvalidPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrUserExists      = errors.New("user existed")
	ErrUserNotFound    = errors.New("user not existed")
	ErrRoleNotFound    = errors.New("role not found")
	ErrPermNotFound    = errors.New("permission not found")
)

func unauthenticated(kind error) error {
	return fmt.Errorf("%w: %w", ErrUnauthenticated, kind)
}
