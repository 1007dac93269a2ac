package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pizzanova/backend/app/repositories"
	"github.com/pizzanova/backend/app/services"
	"github.com/pizzanova/backend/pkg/bind"
	"github.com/pizzanova/backend/pkg/response"
)

// AdminUserController is the back-office user-management surface.
type AdminUserController struct {
	admin *services.AdminService
}

func NewAdminUserController(admin *services.AdminService) *AdminUserController {
	return &AdminUserController{admin: admin}
}

// List supports ?role=&is_blocked=&search=&page=&limit=.
func (c *AdminUserController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repositories.UserFilter{
		Role:   q.Get("role"),
		Search: q.Get("search"),
	}
	switch q.Get("is_blocked") {
	case "true", "1":
		b := true
		filter.Blocked = &b
	case "false", "0":
		b := false
		filter.Blocked = &b
	}

	page, limit := pageLimit(r)
	users, pg, err := c.admin.ListUsers(r.Context(), filter, page, limit)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Paginated(w, users, pg)
}

func (c *AdminUserController) Get(w http.ResponseWriter, r *http.Request) {
	user, err := c.admin.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, user)
}

func (c *AdminUserController) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	var req services.UserUpdate
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.admin.UpdateUser(r.Context(), caller.ID.Hex(), chi.URLParam(r, "id"), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, user)
}

type blockRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

func (c *AdminUserController) Block(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	var req blockRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.admin.BlockUser(r.Context(), caller.ID.Hex(), chi.URLParam(r, "id"), req.Reason); err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"blocked": true})
}

func (c *AdminUserController) Unblock(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	if err := c.admin.UnblockUser(r.Context(), caller.ID.Hex(), chi.URLParam(r, "id")); err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"blocked": false})
}

func (c *AdminUserController) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	if err := c.admin.DeleteUser(r.Context(), caller.ID.Hex(), chi.URLParam(r, "id")); err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"deleted": true})
}

// Profile returns the caller's own account. Open to both roles.
func (c *AdminUserController) Profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	user, err := c.admin.GetUser(r.Context(), caller.ID.Hex())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, user)
}

// UpdateProfile edits the caller's own account, the only self-edit route.
func (c *AdminUserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := actor(r)
	if !ok {
		response.Unauthorized(w, "unauthenticated")
		return
	}

	var req services.ProfileUpdate
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.admin.UpdateProfile(r.Context(), caller.ID.Hex(), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	response.Success(w, user)
}
