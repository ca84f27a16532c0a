package router

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/handler"
	"souqbalady/internal/adapter/api/middleware"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware, authLimit echo.MiddlewareFunc) {
	// Public routes, throttled per IP
	public := e.Group("/v1/auth", authLimit)
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/password-reset", authHandler.PasswordReset)

	// Protected routes
	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate)

	protected.POST("/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
}
