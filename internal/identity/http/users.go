package http

import (
	"net/http"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
)

type UsersHandler struct {
	UserService *service.UserService
}

// HandleRegister godoc
//
//	@Summary		Register a user
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		identitysdk.UserCreationRequest	true	"New user"
//	@Success		201		{object}	identitysdk.APIResponse[identitysdk.UserResponse]
//	@Description	Only username and password are accepted; any other field is a 1001.
//	@Failure		400		{object}	identitysdk.APIError	"1001, 1002, 1003 or 1004"
//	@Router			/users/registration [post]
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Profile data (names, date of birth, city) belongs to the profile
	// service and is refused here rather than silently dropped.
	var req identitysdk.UserCreationRequest
	if err := httpx.DecodeStrictJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	user, err := h.UserService.Register(ctx, req.Username, req.Password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusCreated, toUserResponse(user))
}

// HandleList godoc
//
//	@Summary	List users
//	@Tags		Users
//	@Produce	json
//	@Success	200	{object}	identitysdk.APIResponse[[]identitysdk.UserResponse]
//	@Failure	401	{object}	identitysdk.APIError
//	@Failure	403	{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/users [get]
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.UserService.List(ctx, principalFrom(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]identitysdk.UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	writeResult(w, http.StatusOK, out)
}

// HandleMyInfo godoc
//
//	@Summary	Current user
//	@Tags		Users
//	@Produce	json
//	@Success	200	{object}	identitysdk.APIResponse[identitysdk.UserResponse]
//	@Failure	401	{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/users/myInfo [get]
func (h *UsersHandler) HandleMyInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.UserService.MyInfo(ctx, principalFrom(r))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, toUserResponse(user))
}

// HandleGet godoc
//
//	@Summary	Get a user
//	@Tags		Users
//	@Produce	json
//	@Param		userId	path		string	true	"User id"
//	@Success	200		{object}	identitysdk.APIResponse[identitysdk.UserResponse]
//	@Failure	403		{object}	identitysdk.APIError
//	@Failure	404		{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/users/{userId} [get]
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.UserService.Get(ctx, principalFrom(r), r.PathValue("userId"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, toUserResponse(user))
}

// HandleUpdate godoc
//
//	@Summary		Update a user
//	@Description	Owners may change their password. Changing roles requires ADMIN.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			userId	path		string							true	"User id"
//	@Param			body	body		identitysdk.UserUpdateRequest	true	"Changes"
//	@Success		200		{object}	identitysdk.APIResponse[identitysdk.UserResponse]
//	@Failure		400		{object}	identitysdk.APIError
//	@Failure		403		{object}	identitysdk.APIError
//	@Failure		404		{object}	identitysdk.APIError
//	@Security		BearerAuth
//	@Router			/users/{userId} [put]
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identitysdk.UserUpdateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	user, err := h.UserService.Update(ctx, principalFrom(r), r.PathValue("userId"), service.UpdateUserInput{
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, toUserResponse(user))
}

// HandleDelete godoc
//
//	@Summary	Delete a user
//	@Tags		Users
//	@Produce	json
//	@Param		userId	path		string	true	"User id"
//	@Success	200		{object}	identitysdk.APIResponse[identitysdk.Empty]
//	@Failure	403		{object}	identitysdk.APIError
//	@Failure	404		{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/users/{userId} [delete]
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.UserService.Delete(ctx, principalFrom(r), r.PathValue("userId")); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, identitysdk.Empty{})
}

func toUserResponse(u domain.User) identitysdk.UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return identitysdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}
