package http

import (
	"net/http"

	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
)

// AuthHandler serves the token lifecycle endpoints. All of them are public;
// the token in the body is the credential.
type AuthHandler struct {
	Authority *service.TokenAuthority
}

// HandleToken godoc
//
//	@Summary		Issue a token
//	@Description	Exchanges username and password for a signed bearer token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		identitysdk.AuthenticationRequest	true	"Credentials"
//	@Success		200		{object}	identitysdk.APIResponse[identitysdk.AuthenticationResponse]
//	@Failure		400		{object}	identitysdk.APIError
//	@Failure		401		{object}	identitysdk.APIError
//	@Router			/auth/token [post]
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identitysdk.AuthenticationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	issued, err := h.Authority.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeResult(w, http.StatusOK, identitysdk.AuthenticationResponse{
		Token:         issued.Token,
		Authenticated: true,
	})
}

// HandleIntrospect godoc
//
//	@Summary		Introspect a token
//	@Description	Reports whether the token passes signature, expiry and revocation checks. Never fails for a bad token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		identitysdk.TokenRequest	true	"Token"
//	@Success		200		{object}	identitysdk.APIResponse[identitysdk.IntrospectResponse]
//	@Failure		400		{object}	identitysdk.APIError
//	@Router			/auth/introspect [post]
func (h *AuthHandler) HandleIntrospect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identitysdk.TokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	res := h.Authority.Introspect(ctx, req.Token)
	writeResult(w, http.StatusOK, identitysdk.IntrospectResponse{Valid: res.Valid})
}

// HandleLogout godoc
//
//	@Summary		Revoke a token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		identitysdk.TokenRequest	true	"Token"
//	@Success		200		{object}	identitysdk.APIResponse[identitysdk.Empty]
//	@Failure		400		{object}	identitysdk.APIError
//	@Router			/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identitysdk.TokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.Authority.Logout(ctx, req.Token); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, identitysdk.Empty{})
}

// HandleRefresh godoc
//
//	@Summary		Refresh a token
//	@Description	Revokes the presented token and issues a new one with the caller's current roles.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		identitysdk.TokenRequest	true	"Token"
//	@Success		200		{object}	identitysdk.APIResponse[identitysdk.AuthenticationResponse]
//	@Failure		400		{object}	identitysdk.APIError
//	@Failure		401		{object}	identitysdk.APIError
//	@Router			/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identitysdk.TokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	issued, err := h.Authority.RefreshToken(ctx, req.Token)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeResult(w, http.StatusOK, identitysdk.AuthenticationResponse{
		Token:         issued.Token,
		Authenticated: true,
	})
}
