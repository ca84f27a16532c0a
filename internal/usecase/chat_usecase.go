package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/internal/domain/service"
	"souqbalady/internal/infrastructure/ratelimit"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/logger"
)

const (
	maxMessageLength  = 2000
	conversationLimit = 50
	messageLimit      = 200
	previewLength     = 80
)

type MessagingUseCase struct {
	conversationRepo repository.ConversationRepository
	profileRepo      repository.ProfileRepository
	notifier         service.Notifier
	limiter          RateLimiter
	now              func() time.Time
}

func NewMessagingUseCase(
	conversationRepo repository.ConversationRepository,
	profileRepo repository.ProfileRepository,
	notifier service.Notifier,
	limiter RateLimiter,
) *MessagingUseCase {
	return &MessagingUseCase{
		conversationRepo: conversationRepo,
		profileRepo:      profileRepo,
		notifier:         notifier,
		limiter:          limiter,
		now:              time.Now,
	}
}

type StartConversationInput struct {
	RecipientID    string
	ListingID      string
	ListingKind    string
	InitialMessage string
}

// StartConversation returns the conversation between the caller and the
// recipient about the listing, creating it when none exists.
func (uc *MessagingUseCase) StartConversation(ctx context.Context, session *entity.Session, input StartConversationInput) (*entity.Conversation, error) {
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil, errors.Validation("recipient_id is required")
	}
	if strings.Contains(recipientID, "/") {
		return nil, errors.Validation("recipient_id is not valid")
	}
	if recipientID == session.UID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	var kind entity.ListingKind
	if input.ListingID != "" {
		k, ok := entity.ParseListingKind(input.ListingKind)
		if !ok {
			return nil, errors.Validation("listing_kind must be sell_order or buy_request")
		}
		if strings.Contains(input.ListingID, "/") {
			return nil, errors.Validation("listing_id is not valid")
		}
		kind = k
	}

	key := entity.ConversationKey(session.UID, recipientID, kind, input.ListingID)
	existing, err := uc.conversationRepo.GetByID(ctx, key)
	switch {
	case err == nil:
		return uc.reuse(ctx, session, existing, input.InitialMessage)
	case !errors.Is(err, errors.CodeNotFound):
		return nil, err
	}

	if ok, wait := uc.allow(session, ratelimit.ActionStartConversation); !ok {
		return nil, errors.TooManyRequests(fmt.Sprintf("Too many new conversations, retry in %s", wait.Round(time.Second)))
	}

	recipient, err := uc.profileRepo.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	conversation := &entity.Conversation{
		ID:           key,
		Participants: []string{session.UID, recipientID},
		ParticipantNames: map[string]string{
			session.UID: session.DisplayName(),
			recipientID: recipient.DisplayName(),
		},
		ListingID:       input.ListingID,
		ListingKind:     kind,
		LastMessageTime: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = uc.conversationRepo.Create(ctx, conversation)
	switch {
	case errors.Is(err, errors.CodeConflict):
		// Created concurrently by the other party or another request.
		existing, err := uc.conversationRepo.GetByID(ctx, key)
		if err != nil {
			return nil, err
		}
		return uc.reuse(ctx, session, existing, input.InitialMessage)
	case err != nil:
		return nil, err
	}

	if err := uc.sendInitial(ctx, session, conversation, input.InitialMessage); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (uc *MessagingUseCase) reuse(ctx context.Context, session *entity.Session, conversation *entity.Conversation, content string) (*entity.Conversation, error) {
	if err := uc.sendInitial(ctx, session, conversation, content); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (uc *MessagingUseCase) sendInitial(ctx context.Context, session *entity.Session, conversation *entity.Conversation, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	message, err := uc.SendMessage(ctx, session, conversation.ID, content)
	if err != nil {
		return err
	}
	conversation.LastMessage = message.Content
	conversation.LastMessageTime = message.Timestamp
	conversation.LastSenderID = message.SenderID
	return nil
}

// SendMessage appends a message and updates the conversation summary in
// one write, then pushes it to the other participant.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, session *entity.Session, conversationID, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, errors.Validation(fmt.Sprintf("content must be at most %d characters", maxMessageLength))
	}

	conversation, err := uc.participantConversation(ctx, session, conversationID)
	if err != nil {
		return nil, err
	}

	if ok, wait := uc.allow(session, ratelimit.ActionSendMessage); !ok {
		return nil, errors.TooManyRequests(fmt.Sprintf("Too many messages, retry in %s", wait.Round(time.Second)))
	}

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       session.UID,
		Content:        content,
		Timestamp:      uc.now().UTC(),
	}
	if err := uc.conversationRepo.AppendMessage(ctx, message); err != nil {
		return nil, err
	}

	recipient := conversation.OtherParticipant(session.UID)
	if uc.notifier != nil && recipient != "" {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
		defer cancel()

		err := uc.notifier.Notify(nctx, recipient, service.Notification{
			Type:  service.NotificationNewMessage,
			Title: session.DisplayName(),
			Body:  preview(content),
			Data: map[string]interface{}{
				"conversation_id": conversationID,
				"message":         message,
			},
		})
		if err != nil {
			logger.Warn("Failed to notify %s of message %s: %v", recipient, message.ID, err)
		}
	}

	return message, nil
}

func (uc *MessagingUseCase) ListConversations(ctx context.Context, session *entity.Session) ([]*entity.Conversation, error) {
	return uc.conversationRepo.ListByUserID(ctx, session.UID, conversationLimit)
}

// ListMessages returns the latest messages of a conversation, oldest first.
func (uc *MessagingUseCase) ListMessages(ctx context.Context, session *entity.Session, conversationID string) ([]*entity.Message, error) {
	if _, err := uc.participantConversation(ctx, session, conversationID); err != nil {
		return nil, err
	}
	return uc.conversationRepo.ListMessages(ctx, conversationID, messageLimit)
}

// MarkConversationRead flags the other participant's messages as read.
func (uc *MessagingUseCase) MarkConversationRead(ctx context.Context, session *entity.Session, conversationID string) (int, error) {
	if _, err := uc.participantConversation(ctx, session, conversationID); err != nil {
		return 0, err
	}
	return uc.conversationRepo.MarkRead(ctx, conversationID, session.UID)
}

func (uc *MessagingUseCase) participantConversation(ctx context.Context, session *entity.Session, conversationID string) (*entity.Conversation, error) {
	if conversationID == "" {
		return nil, errors.Validation("conversation_id is required")
	}

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(session.UID) {
		return nil, errors.Forbidden("You are not a participant of this conversation", nil)
	}
	return conversation, nil
}

func (uc *MessagingUseCase) allow(session *entity.Session, action string) (bool, time.Duration) {
	if uc.limiter == nil {
		return true, 0
	}
	return uc.limiter.Allow(session.UID, action)
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	return string([]rune(content)[:previewLength]) + "…"
}
