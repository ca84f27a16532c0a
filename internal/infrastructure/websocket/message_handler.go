package websocket

import (
	"context"
	"encoding/json"
	"time"

	"souqbalady/internal/domain/entity"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/logger"
)

const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeSendMessage  = "send_message"
	MessageTypeMessageSent  = "message_sent"
	MessageTypeMessage      = "message"
	MessageTypeMarkRead     = "mark_read"
	MessageTypeReadReceipt  = "read_receipt"
	MessageTypeNotification = "notification"
	MessageTypeError        = "error"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type SendMessageData struct {
	TempID         string `json:"temp_id,omitempty"`
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type MarkReadData struct {
	ConversationID string `json:"conversation_id"`
}

type MessageSentData struct {
	TempID  string          `json:"temp_id,omitempty"`
	Message *entity.Message `json:"message"`
}

type ReadReceiptData struct {
	ConversationID string `json:"conversation_id"`
	Marked         int    `json:"marked"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InboundHandler executes the actions clients request over the socket.
type InboundHandler interface {
	SendMessage(ctx context.Context, session *entity.Session, conversationID, content string) (*entity.Message, error)
	MarkConversationRead(ctx context.Context, session *entity.Session, conversationID string) (int, error)
}

func newWSMessage(msgType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HandleClientMessage dispatches one frame received from client.
func (m *Manager) HandleClientMessage(ctx context.Context, client *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.sendErrorToClient(client, errors.Validation("Invalid message format"))
		return
	}

	switch msg.Type {
	case MessageTypePing:
		m.sendToClient(client, newWSMessage(MessageTypePong, map[string]string{"status": "alive"}))

	case MessageTypeSendMessage:
		m.handleSendMessage(ctx, client, msg.Data)

	case MessageTypeMarkRead:
		m.handleMarkRead(ctx, client, msg.Data)

	default:
		logger.Debug("WebSocket: unknown message type '%s' from %s", msg.Type, client.UserID())
		m.sendErrorToClient(client, errors.Validation("Unknown message type"))
	}
}

func (m *Manager) handleSendMessage(ctx context.Context, client *Client, raw json.RawMessage) {
	var data SendMessageData
	if err := json.Unmarshal(raw, &data); err != nil {
		m.sendErrorToClient(client, errors.Validation("Invalid send_message data"))
		return
	}
	if m.handler == nil {
		m.sendErrorToClient(client, errors.Internal("Messaging is not available", nil))
		return
	}

	message, err := m.handler.SendMessage(ctx, client.Session, data.ConversationID, data.Content)
	if err != nil {
		m.sendErrorToClient(client, err)
		return
	}

	m.sendToClient(client, newWSMessage(MessageTypeMessageSent, MessageSentData{
		TempID:  data.TempID,
		Message: message,
	}))
}

func (m *Manager) handleMarkRead(ctx context.Context, client *Client, raw json.RawMessage) {
	var data MarkReadData
	if err := json.Unmarshal(raw, &data); err != nil || data.ConversationID == "" {
		m.sendErrorToClient(client, errors.Validation("conversation_id is required"))
		return
	}
	if m.handler == nil {
		m.sendErrorToClient(client, errors.Internal("Messaging is not available", nil))
		return
	}

	marked, err := m.handler.MarkConversationRead(ctx, client.Session, data.ConversationID)
	if err != nil {
		m.sendErrorToClient(client, err)
		return
	}

	m.sendToClient(client, newWSMessage(MessageTypeReadReceipt, ReadReceiptData{
		ConversationID: data.ConversationID,
		Marked:         marked,
	}))
}

func (m *Manager) sendErrorToClient(client *Client, err error) {
	data := ErrorData{Code: errors.CodeInternal, Message: "An unexpected error occurred"}
	if appErr, ok := errors.As(err); ok {
		data = ErrorData{Code: appErr.Code, Message: appErr.Message}
	} else {
		logger.Error("WebSocket: %s: %v", client.UserID(), err)
	}
	m.sendToClient(client, newWSMessage(MessageTypeError, data))
}
