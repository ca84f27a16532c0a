package router

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/handler"
	"souqbalady/internal/adapter/api/middleware"
)

type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Listing   *handler.ListingHandler
	Market    *handler.MarketHandler
	Chat      *handler.ChatHandler
	WebSocket *handler.WebSocketHandler
}

// Setup mounts every route. authLimit throttles the public auth endpoints.
func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, authLimit echo.MiddlewareFunc) {
	SetupHealthRouter(e, h.Health)
	SetupAuthRouter(e, h.Auth, authMiddleware, authLimit)
	SetupUserRouter(e, h.User, authMiddleware)
	SetupListingRouter(e, h.Listing, authMiddleware)
	SetupMarketRouter(e, h.Market, authMiddleware)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
}
