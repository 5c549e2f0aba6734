package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/afisha-api/internal/response"
	"github.com/gravadigital/afisha-api/internal/services"
)

// UserHandler serves the administrative user endpoints.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler instance
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	user, err := h.users.Create(req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetAll handles GET /admin/users
func (h *UserHandler) GetAll(c *gin.Context) {
	from, size := paginationParams(c)

	users, err := h.users.GetAll(from, size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// Delete handles DELETE /admin/users/:userId
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Param("userId")); err != nil {
		response.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
