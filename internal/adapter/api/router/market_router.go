package router

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/handler"
	"souqbalady/internal/adapter/api/middleware"
)

func SetupMarketRouter(e *echo.Echo, marketHandler *handler.MarketHandler, authMiddleware *middleware.AuthMiddleware) {
	market := e.Group("/v1/market")
	market.Use(authMiddleware.Authenticate)

	market.GET("/prices", marketHandler.Prices)
	market.GET("/catalog", marketHandler.Catalog)

	e.GET("/v1/dashboard", marketHandler.Dashboard, authMiddleware.Authenticate, middleware.MarketRoleOnly)
}
