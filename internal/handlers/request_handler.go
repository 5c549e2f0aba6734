package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/afisha-api/internal/response"
	"github.com/gravadigital/afisha-api/internal/services"
)

// RequestHandler serves the participation request endpoints.
type RequestHandler struct {
	requests *services.RequestService
}

// NewRequestHandler creates a new request handler instance
func NewRequestHandler(requests *services.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// Create handles POST /users/:userId/requests?eventId=...
func (h *RequestHandler) Create(c *gin.Context) {
	eventID := c.Query("eventId")
	if eventID == "" {
		response.BadRequestError(c, "eventId query parameter is required")
		return
	}

	created, err := h.requests.Create(c.Param("userId"), eventID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Cancel handles PATCH /users/:userId/requests/:requestId/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	canceled, err := h.requests.Cancel(c.Param("userId"), c.Param("requestId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, canceled)
}

// GetByRequester handles GET /users/:userId/requests
func (h *RequestHandler) GetByRequester(c *gin.Context) {
	requests, err := h.requests.GetByRequester(c.Param("userId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// GetForEvent handles GET /users/:userId/events/:eventId/requests
func (h *RequestHandler) GetForEvent(c *gin.Context) {
	requests, err := h.requests.GetForEvent(c.Param("userId"), c.Param("eventId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// UpdateStatuses handles PATCH /users/:userId/events/:eventId/requests
func (h *RequestHandler) UpdateStatuses(c *gin.Context) {
	var req services.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	result, err := h.requests.UpdateStatuses(c.Param("userId"), c.Param("eventId"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
