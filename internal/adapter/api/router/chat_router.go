package router

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/handler"
	"souqbalady/internal/adapter/api/middleware"
)

// SetupChatRouter sets up conversation routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", chatHandler.StartConversation)
	conversations.GET("", chatHandler.ListConversations)
	conversations.PUT("/:id/read", chatHandler.MarkAsRead)

	conversations.GET("/:id/messages", chatHandler.ListMessages)
	conversations.POST("/:id/messages", chatHandler.SendMessage)
}
