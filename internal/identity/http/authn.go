package http

import (
	"net/http"

	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
	"github.com/ethnicdev/gatehouse/pkg/slogx"
)

// authnMiddleware runs full verification, revocation included, and stores
// the claims on the request context.
func authnMiddleware(authority *service.TokenAuthority) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := httpx.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				identitysdk.ErrUnauthenticated.WriteError(w)
				return
			}

			claims, err := authority.Verify(ctx, token, false)
			if err != nil {
				slogx.FromContext(ctx).Info("bearer token rejected", "error", err)
				writeError(ctx, w, err)
				return
			}

			logger := slogx.FromContext(ctx).With("sub", claims.Subject)
			ctx = slogx.WithContext(httpx.WithClaims(ctx, claims), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principalFrom is only called behind authnMiddleware.
func principalFrom(r *http.Request) service.Principal {
	claims, _ := httpx.ClaimsFromContext(r.Context())
	return service.PrincipalFromClaims(claims)
}
