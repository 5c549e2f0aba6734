// Package handlers contains the gin HTTP handlers for the public,
// private and administrative API surfaces.
package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/wire"
)

// paginationParams reads the from/size query parameters with the
// platform defaults.
func paginationParams(c *gin.Context) (int, int) {
	from, err := strconv.Atoi(c.DefaultQuery("from", "0"))
	if err != nil || from < 0 {
		from = 0
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size <= 0 {
		size = 10
	}
	return from, size
}

// queryTime parses an optional timestamp query parameter.
func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(wire.DateTimeLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.Validation("invalid %s: expected %q or RFC 3339", name, wire.DateTimeLayout)
	}
	return &t, nil
}

// queryList splits a repeatable or comma-separated query parameter.
func queryList(c *gin.Context, name string) []string {
	var values []string
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation("invalid %s: expected a boolean", name)
	}
	return &value, nil
}
