package identitysdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethnicdev/gatehouse/pkg/httpx"
)

// Envelope codes.
const (
	CodeSuccess         = 1000
	CodeInvalidRequest  = 1001
	CodeUserExisted     = 1002
	CodeUsernameInvalid = 1003
	CodePasswordInvalid = 1004
	CodeUserNotExisted  = 1005
	CodeRoleNotExisted  = 1006
	CodePermNotExisted  = 1007
	CodeUnauthenticated = 1401
	CodeUnauthorized    = 1403
	CodeTooManyRequests = httpx.CodeTooManyRequests
	CodeUncategorized   = 9999
)

// APIError is both the server side error response and the error the client
// returns for non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// Is matches on the envelope code so callers can use errors.Is with the
// predefined values below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

var (
	ErrUncategorized = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeUncategorized,
		Message:    "Uncategorized error",
	}

	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidRequest,
		Message:    "Invalid request",
	}

	ErrUserExisted = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeUserExisted,
		Message:    "User existed",
	}

	ErrUsernameInvalid = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeUsernameInvalid,
		Message:    "Username must be at least 4 characters",
	}

	ErrPasswordInvalid = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodePasswordInvalid,
		Message:    "Password must be at least 8 characters",
	}

	ErrUserNotExisted = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       CodeUserNotExisted,
		Message:    "User not existed",
	}

	ErrRoleNotExisted = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       CodeRoleNotExisted,
		Message:    "Role not existed",
	}

	ErrPermissionNotExisted = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       CodePermNotExisted,
		Message:    "Permission not existed",
	}

	// ErrUnauthenticated covers every token and credential failure. The body
	// never says which check failed.
	ErrUnauthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeUnauthenticated,
		Message:    "Unauthenticated",
	}

	ErrUnauthorized = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       CodeUnauthorized,
		Message:    "You do not have permission",
	}
)
