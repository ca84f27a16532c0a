package handler

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/middleware"
	"souqbalady/internal/domain/entity"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/response"
)

// bindAndValidate binds the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}

func currentSession(c echo.Context) (*entity.Session, error) {
	session := middleware.SessionFrom(c)
	if session == nil {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return session, nil
}

func listingKind(c echo.Context) (entity.ListingKind, error) {
	kind, ok := entity.ParseListingKind(c.Param("kind"))
	if !ok {
		return "", errors.NotFound("Listing kind", nil)
	}
	return kind, nil
}

func fail(c echo.Context, err error) error {
	return response.Error(c, err)
}
