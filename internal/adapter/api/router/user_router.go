package router

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/handler"
	"souqbalady/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware) {
	profile := e.Group("/v1/profile")
	profile.Use(authMiddleware.Authenticate)

	profile.GET("", userHandler.GetProfile)
	profile.PATCH("", userHandler.UpdateProfile)
	profile.POST("/documents/:type", userHandler.UploadDocument)

	users := e.Group("/v1/users")
	users.Use(authMiddleware.Authenticate)

	users.GET("/:id", userHandler.GetPublicProfile)
}
