package middleware

import (
	"github.com/labstack/echo/v4"

	"souqbalady/pkg/errors"
	"souqbalady/pkg/response"
)

// MarketRoleOnly rejects sessions whose profile carries no marketplace role.
// It must run after Authenticate.
func MarketRoleOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := SessionFrom(c)
		if session == nil {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if !session.Role().Valid() {
			return response.Error(c, errors.Forbidden("A farmer, trader or factory profile is required", nil))
		}

		return next(c)
	}
}
