// Package users exposes the user directory and role administration
// endpoints.
package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vaultdrop-backend/internal/middleware"
	usersvc "vaultdrop-backend/internal/service/user"
	"vaultdrop-backend/pkg/response"
)

// Handler handles HTTP requests for user administration
type Handler struct {
	userService *usersvc.Service
}

// NewHandler creates a new users handler
func NewHandler(userService *usersvc.Service) *Handler {
	return &Handler{userService: userService}
}

// UpdateRoleRequest represents a role change
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN USER GUEST"`
}

// List returns every user except the caller
// GET /api/users/
func (h *Handler) List(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	users, err := h.userService.List(c.Request.Context(), principal.UserID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// UpdateRole changes another user's role. Admin-only, enforced by routing
// middleware; self-modification is rejected in the service.
// PATCH /api/users/:id/role
func (h *Handler) UpdateRole(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid user id")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), principal.UserID, targetID, req.Role)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
