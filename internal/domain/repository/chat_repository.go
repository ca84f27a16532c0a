package repository

import (
	"context"

	"souqbalady/internal/domain/entity"
)

type ConversationRepository interface {
	// Create stores the conversation under its ID and returns a Conflict
	// error when that ID is already taken.
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error)

	// AppendMessage stores the message and the conversation summary together.
	AppendMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error)
	// MarkRead flags messages not sent by readerID as read and returns how many changed.
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
}
