package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jrmendez/caja-api/internal/middleware"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// @Summary List Users
// @Description Get a paginated list of users. Admin only.
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param role query string false "Filter by role"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["role"] = c.Query("role")
	query.Filters["status"] = c.Query("status")

	users, total, err := h.userService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get User
// @Description Get a user by ID. Admin or the user themselves.
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /users/{user_id} [get]
func (h *UserHandler) Show(c *gin.Context) {
	id := parseIDParam(c, "user_id")
	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// @Summary Create User
// @Description Create a new user account. Admin only.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User"
// @Success 201 {object} models.UserResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := BindNestedOrFlat(c, "user", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, password and full name are required"})
		return
	}

	user := &models.User{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
	}

	if err := h.userService.Create(c.Request.Context(), user, req.Password, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse()})
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
}

// @Summary Update User
// @Description Update user fields. Admin or the user themselves; role changes are admin only.
// @Tags Users
// @Accept json
// @Produce json
// @Param user_id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields"
// @Success 200 {object} models.UserResponse
// @Security BearerAuth
// @Router /users/{user_id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id := parseIDParam(c, "user_id")

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		if !middleware.IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can change roles"})
			return
		}
		user.Role = *req.Role
	}

	if err := h.userService.Update(c.Request.Context(), user, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

// @Summary Delete User
// @Description Soft delete a user. Admin only.
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/{user_id} [delete]
func (h *UserHandler) Destroy(c *gin.Context) {
	id := parseIDParam(c, "user_id")
	if err := h.userService.Delete(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deactivated"})
}

// @Summary Restore User
// @Description Restore a soft-deleted user. Admin only.
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/{user_id}/restore [post]
func (h *UserHandler) Restore(c *gin.Context) {
	id := parseIDParam(c, "user_id")
	if err := h.userService.Restore(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User restored"})
}

// @Summary Toggle User Status
// @Description Switch a user between active and inactive. Admin only.
// @Tags Users
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Security BearerAuth
// @Router /users/{user_id}/toggle_status [post]
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	id := parseIDParam(c, "user_id")
	user, err := h.userService.ToggleStatus(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// @Summary Change Password
// @Description Change the current user's password
// @Tags Users
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/me/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current and new passwords are required"})
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// @Summary Reset Password
// @Description Reset another user's password. Admin only.
// @Tags Users
// @Accept json
// @Produce json
// @Param user_id path int true "User ID"
// @Param request body ResetPasswordRequest true "New password"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /users/{user_id}/reset_password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	id := parseIDParam(c, "user_id")

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A new password is required"})
		return
	}

	if err := h.userService.ForceChangePassword(c.Request.Context(), id, req.NewPassword, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset"})
}
