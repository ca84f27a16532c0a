package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/pkg/errors"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		return errors.Internal("Conversation id is required", nil)
	}

	docRef := r.client.Collection(conversationsCollection).Doc(conversation.ID)
	if _, err := docRef.Create(ctx, conversation); err != nil {
		return storeError("Conversation", err)
	}
	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("Conversation", err)
	}

	return decodeConversation(doc)
}

func (r *firestoreConversationRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error) {
	query := r.client.Collection(conversationsCollection).
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageTime", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	conversations := []*entity.Conversation{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("Conversations", err)
		}

		conversation, err := decodeConversation(doc)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	return conversations, nil
}

func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, message *entity.Message) error {
	convRef := r.client.Collection(conversationsCollection).Doc(message.ConversationID)
	msgRef := r.client.Collection(messagesCollection).NewDoc()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(convRef); err != nil {
			return err
		}

		if err := tx.Create(msgRef, message); err != nil {
			return err
		}

		return tx.Update(convRef, []firestore.Update{
			{Path: "lastMessage", Value: message.Content},
			{Path: "lastMessageTime", Value: message.Timestamp},
			{Path: "lastSenderId", Value: message.SenderID},
			{Path: "updatedAt", Value: message.Timestamp},
		})
	})
	if err != nil {
		return storeError("Conversation", err)
	}

	message.ID = msgRef.ID
	return nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	query := r.client.Collection(messagesCollection).
		Where("conversationId", "==", conversationID).
		OrderBy("timestamp", firestore.Asc)
	if limit > 0 {
		query = query.LimitToLast(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, storeError("Messages", err)
	}

	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	query := r.client.Collection(messagesCollection).
		Where("conversationId", "==", conversationID).
		Where("read", "==", false)

	var marked int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		marked = 0

		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}

		for _, doc := range docs {
			senderID, err := doc.DataAt("senderId")
			if err != nil {
				return err
			}
			if senderID == readerID {
				continue
			}
			if err := tx.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}}); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, storeError("Messages", err)
	}

	return marked, nil
}

func decodeConversation(doc *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID
	if conversation.ParticipantNames == nil {
		conversation.ParticipantNames = map[string]string{}
	}
	return &conversation, nil
}
