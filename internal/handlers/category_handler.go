package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/afisha-api/internal/response"
	"github.com/gravadigital/afisha-api/internal/services"
)

// CategoryHandler serves the category endpoints.
type CategoryHandler struct {
	categories *services.CategoryService
}

// NewCategoryHandler creates a new category handler instance
func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// Create handles POST /admin/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req services.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	cat, err := h.categories.Create(req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cat)
}

// Update handles PATCH /admin/categories/:categoryId
func (h *CategoryHandler) Update(c *gin.Context) {
	var req services.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	cat, err := h.categories.Update(c.Param("categoryId"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, cat)
}

// GetAll handles GET /categories
func (h *CategoryHandler) GetAll(c *gin.Context) {
	from, size := paginationParams(c)

	categories, err := h.categories.GetAll(from, size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// Get handles GET /categories/:categoryId
func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.categories.Get(c.Param("categoryId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /admin/categories/:categoryId
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(c.Param("categoryId")); err != nil {
		response.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
