package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/afisha-api/internal/response"
	"github.com/gravadigital/afisha-api/internal/services"
)

// EventHandler serves the event endpoints of all three surfaces.
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler creates a new event handler instance
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// Create handles POST /users/:userId/events
func (h *EventHandler) Create(c *gin.Context) {
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	created, err := h.events.Create(c.Param("userId"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetUserEvents handles GET /users/:userId/events
func (h *EventHandler) GetUserEvents(c *gin.Context) {
	from, size := paginationParams(c)

	events, err := h.events.GetByInitiator(c.Request.Context(), c.Param("userId"), from, size)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetUserEvent handles GET /users/:userId/events/:eventId
func (h *EventHandler) GetUserEvent(c *gin.Context) {
	out, err := h.events.GetUserEvent(c.Request.Context(), c.Param("userId"), c.Param("eventId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// UpdateByInitiator handles PATCH /users/:userId/events/:eventId
func (h *EventHandler) UpdateByInitiator(c *gin.Context) {
	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	updated, err := h.events.UpdateByInitiator(c.Param("userId"), c.Param("eventId"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// UpdateByAdmin handles PATCH /admin/events/:eventId
func (h *EventHandler) UpdateByAdmin(c *gin.Context) {
	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "invalid request payload: "+err.Error())
		return
	}

	updated, err := h.events.UpdateByAdmin(c.Param("eventId"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// FindAdmin handles GET /admin/events
func (h *EventHandler) FindAdmin(c *gin.Context) {
	from, size := paginationParams(c)

	rangeStart, err := queryTime(c, "rangeStart")
	if err != nil {
		response.FromError(c, err)
		return
	}
	rangeEnd, err := queryTime(c, "rangeEnd")
	if err != nil {
		response.FromError(c, err)
		return
	}

	req := services.AdminSearchRequest{
		Users:      queryList(c, "users"),
		States:     queryList(c, "states"),
		Categories: queryList(c, "categories"),
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		From:       from,
		Size:       size,
	}

	events, err := h.events.FindAdmin(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// FindPublic handles GET /events
func (h *EventHandler) FindPublic(c *gin.Context) {
	from, size := paginationParams(c)

	rangeStart, err := queryTime(c, "rangeStart")
	if err != nil {
		response.FromError(c, err)
		return
	}
	rangeEnd, err := queryTime(c, "rangeEnd")
	if err != nil {
		response.FromError(c, err)
		return
	}
	paid, err := queryBool(c, "paid")
	if err != nil {
		response.FromError(c, err)
		return
	}
	onlyAvailable, err := queryBool(c, "onlyAvailable")
	if err != nil {
		response.FromError(c, err)
		return
	}

	req := services.PublicSearchRequest{
		Text:       c.Query("text"),
		Categories: queryList(c, "categories"),
		Paid:       paid,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Sort:       c.Query("sort"),
		From:       from,
		Size:       size,
		URI:        c.Request.URL.Path,
		ClientIP:   c.ClientIP(),
	}
	if onlyAvailable != nil {
		req.OnlyAvailable = *onlyAvailable
	}

	events, err := h.events.FindPublic(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetPublished handles GET /events/:eventId
func (h *EventHandler) GetPublished(c *gin.Context) {
	out, err := h.events.GetPublished(c.Request.Context(), c.Param("eventId"), c.Request.URL.Path, c.ClientIP())
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}
