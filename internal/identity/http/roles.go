package http

import (
	"net/http"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// HandleCreate godoc
//
//	@Summary		Create or replace a role
//	@Description	Unknown permission names are ignored. Requires ADMIN.
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			body	body		identitysdk.RoleRequest	true	"Role"
//	@Success		200		{object}	identitysdk.APIResponse[identitysdk.RoleResponse]
//	@Failure		400		{object}	identitysdk.APIError
//	@Failure		403		{object}	identitysdk.APIError
//	@Security		BearerAuth
//	@Router			/roles [post]
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identitysdk.RoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	role, err := h.RolesService.Create(ctx, principalFrom(r), domain.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, toRoleResponse(role))
}

// HandleList godoc
//
//	@Summary	List roles
//	@Tags		Roles
//	@Produce	json
//	@Success	200	{object}	identitysdk.APIResponse[[]identitysdk.RoleResponse]
//	@Failure	401	{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/roles [get]
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roles, err := h.RolesService.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]identitysdk.RoleResponse, len(roles))
	for i, role := range roles {
		out[i] = toRoleResponse(role)
	}
	writeResult(w, http.StatusOK, out)
}

// HandleDelete godoc
//
//	@Summary	Delete a role
//	@Tags		Roles
//	@Produce	json
//	@Param		role	path		string	true	"Role name"
//	@Success	200		{object}	identitysdk.APIResponse[identitysdk.Empty]
//	@Failure	403		{object}	identitysdk.APIError
//	@Failure	404		{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/roles/{role} [delete]
func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.RolesService.Delete(ctx, principalFrom(r), r.PathValue("role")); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, identitysdk.Empty{})
}

func toRoleResponse(role domain.Role) identitysdk.RoleResponse {
	perms := role.Permissions
	if perms == nil {
		perms = []string{}
	}
	return identitysdk.RoleResponse{
		Name:        role.Name,
		Description: role.Description,
		Permissions: perms,
	}
}
