package http

import (
	"net/http"

	"github.com/ethnicdev/gatehouse/internal/identity/domain"
	"github.com/ethnicdev/gatehouse/internal/identity/service"
	"github.com/ethnicdev/gatehouse/pkg/httpx"
	"github.com/ethnicdev/gatehouse/pkg/identitysdk"
)

type PermissionsHandler struct {
	PermissionsService *service.PermissionsService
}

// HandleCreate godoc
//
//	@Summary	Create or replace a permission
//	@Tags		Permissions
//	@Accept		json
//	@Produce	json
//	@Param		body	body		identitysdk.PermissionRequest	true	"Permission"
//	@Success	200		{object}	identitysdk.APIResponse[identitysdk.PermissionResponse]
//	@Failure	400		{object}	identitysdk.APIError
//	@Failure	403		{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/permissions [post]
func (h *PermissionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identitysdk.PermissionRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	perm, err := h.PermissionsService.Create(ctx, principalFrom(r), domain.Permission{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, identitysdk.PermissionResponse{Name: perm.Name, Description: perm.Description})
}

// HandleList godoc
//
//	@Summary	List permissions
//	@Tags		Permissions
//	@Produce	json
//	@Success	200	{object}	identitysdk.APIResponse[[]identitysdk.PermissionResponse]
//	@Security	BearerAuth
//	@Router		/permissions [get]
func (h *PermissionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	perms, err := h.PermissionsService.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]identitysdk.PermissionResponse, len(perms))
	for i, p := range perms {
		out[i] = identitysdk.PermissionResponse{Name: p.Name, Description: p.Description}
	}
	writeResult(w, http.StatusOK, out)
}

// HandleDelete godoc
//
//	@Summary	Delete a permission
//	@Tags		Permissions
//	@Param		permission	path		string	true	"Permission name"
//	@Success	200			{object}	identitysdk.APIResponse[identitysdk.Empty]
//	@Failure	404			{object}	identitysdk.APIError
//	@Security	BearerAuth
//	@Router		/permissions/{permission} [delete]
func (h *PermissionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.PermissionsService.Delete(ctx, principalFrom(r), r.PathValue("permission")); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeResult(w, http.StatusOK, identitysdk.Empty{})
}
