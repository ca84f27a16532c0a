package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// GetLimit reads the "limit" query parameter, falling back to DefaultLimit
// and capping at MaxLimit.
func GetLimit(c echo.Context) int {
	return ClampLimit(parseInt(c.QueryParam("limit")))
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
