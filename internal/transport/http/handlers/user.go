package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NeuroDev204/neuro-pet-backend/internal/core/domain"
	"github.com/NeuroDev204/neuro-pet-backend/internal/core/port"
	"github.com/NeuroDev204/neuro-pet-backend/internal/transport/http/middleware"
	"github.com/NeuroDev204/neuro-pet-backend/internal/usecase"
)

// UserHandler exposes profile and user administration endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfile applies a partial patch to the caller's own profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "invalid profile payload")
		return
	}

	patch := port.UserPatch{
		Fullname: req.Fullname,
		Phone:    req.Phone,
		Address:  req.Address.toDomain(),
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), actor.ID, patch)
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "profile updated", newUserView(user))
}

// UpdateAvatar replaces the caller's avatar with the uploaded image.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		RespondError(c, usecase.ErrFileRequired)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, err)
		return
	}
	defer file.Close()

	user, err := h.users.UpdateAvatar(c.Request.Context(), actor.ID, usecase.AvatarUpload{
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "avatar updated", newUserView(user))
}

// List returns a paginated user listing for administrators.
func (h *UserHandler) List(c *gin.Context) {
	filter := port.UserFilter{
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		SortDesc: c.Query("sortOrder") == "desc",
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	if active := c.Query("isActive"); active != "" {
		v := active == "true"
		filter.IsActive = &v
	}
	if verified := c.Query("isEmailVerified"); verified != "" {
		v := verified == "true"
		filter.IsEmailVerified = &v
	}

	users, meta, err := h.users.ListUsers(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, err)
		return
	}

	respondWithMeta(c, http.StatusOK, "users retrieved", newUserViews(users), meta)
}

// Get returns a single user by identifier. Admin only.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "user retrieved", newUserView(user))
}

// UpdateRole changes a user's role. Admin only.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "role is required")
		return
	}

	user, err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "role updated", newUserView(user))
}

// Delete removes a user account. Admin only; self-deletion is refused.
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, usecase.ErrInvalidAccessToken)
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}

	respond(c, http.StatusOK, "user deleted", nil)
}
