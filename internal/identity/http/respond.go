package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

func writeResult[T any](w http.ResponseWriter, status int, result T) {
	httpx.WriteJSON(w, status, identitysdk.APIResponse[T]{
		Code:   identitysdk.CodeSuccess,
		Result: result,
	})
}

// writeError maps service errors onto envelope codes. Anything unexpected
// is logged and reported as uncategorized.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)
	if apiErr == identitysdk.ErrUncategorized {
		slogx.FromContext(ctx).Error("request failed", slog.Any("error", err))
	}
	apiErr.WriteError(w)
}

func toAPIError(err error) *identitysdk.APIError {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return identitysdk.ErrUnauthenticated
	case errors.Is(err, service.ErrForbidden):
		return identitysdk.ErrUnauthorized
	case errors.Is(err, service.ErrUserExists):
		return identitysdk.ErrUserExisted
	case errors.Is(err, service.ErrInvalidUsername):
		return identitysdk.ErrUsernameInvalid
	case errors.Is(err, service.ErrInvalidPassword):
		return identitysdk.ErrPasswordInvalid
	case errors.Is(err, service.ErrUserNotFound):
		return identitysdk.ErrUserNotExisted
	case errors.Is(err, service.ErrRoleNotFound):
		return identitysdk.ErrRoleNotExisted
	case errors.Is(err, service.ErrPermNotFound):
		return identitysdk.ErrPermissionNotExisted
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, httpx.ErrBadBody):
		return identitysdk.ErrInvalidRequest
	default:
		return identitysdk.ErrUncategorized
	}
}
