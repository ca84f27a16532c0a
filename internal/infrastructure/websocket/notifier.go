package websocket

import (
	"context"

	"souqbalady/internal/domain/service"
)

// Notify pushes n to every live connection of userID. Offline users are skipped.
func (m *Manager) Notify(ctx context.Context, userID string, n service.Notification) error {
	msgType := MessageTypeNotification
	if n.Type == service.NotificationNewMessage {
		msgType = MessageTypeMessage
	}
	return m.SendJSON(userID, newWSMessage(msgType, n))
}

var _ service.Notifier = (*Manager)(nil)
