package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/afisha-api/internal/response"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
)

// DiagnosticsHandler serves the administrative database diagnostics.
type DiagnosticsHandler struct {
	diag *postgres.Diagnostics
}

// NewDiagnosticsHandler creates a new diagnostics handler instance
func NewDiagnosticsHandler(diag *postgres.Diagnostics) *DiagnosticsHandler {
	return &DiagnosticsHandler{diag: diag}
}

// Collect handles GET /admin/diagnostics
func (h *DiagnosticsHandler) Collect(c *gin.Context) {
	report, err := h.diag.Collect(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, "failed to collect diagnostics")
		return
	}

	c.JSON(http.StatusOK, report)
}
