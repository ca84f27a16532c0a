package handler

import (
	"context"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/middleware"
	ws "souqbalady/internal/infrastructure/websocket"
	"souqbalady/pkg/logger"
)

type WebSocketHandler struct {
	ctx       context.Context
	wsManager *ws.Manager
	sessions  middleware.SessionResolver
	upgrader  gorillaws.Upgrader
}

// NewWebSocketHandler serves connections until ctx is cancelled. An empty
// or "*" entry in allowedOrigins accepts any origin.
func NewWebSocketHandler(ctx context.Context, wsManager *ws.Manager, sessions middleware.SessionResolver, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:       ctx,
		wsManager: wsManager,
		sessions:  sessions,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]bool{}
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// HandleWebSocket authenticates with ?token= or a Bearer header, then upgrades.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		bearer, err := middleware.BearerToken(c)
		if err != nil {
			return fail(c, err)
		}
		token = bearer
	}

	session, err := h.sessions.ResolveSession(c.Request().Context(), token)
	if err != nil {
		return fail(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		logger.Warn("WebSocket upgrade failed for %s: %v", session.UID, err)
		return nil
	}

	client := ws.NewClient(session, conn)
	if !h.wsManager.Register(client) {
		logger.Warn("WebSocket manager stopped, dropping connection from %s", session.UID)
		conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump(h.ctx, h.wsManager)

	return nil
}
