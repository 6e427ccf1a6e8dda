package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetLimitParam reads a "limit" query parameter, falling back to def and
// capping at max.
func GetLimitParam(c echo.Context, def, max int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
