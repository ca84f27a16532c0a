package entity

import "time"

type Message struct {
	ID             string    `json:"id" firestore:"-"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	Content        string    `json:"content" firestore:"content"`
	Timestamp      time.Time `json:"timestamp" firestore:"timestamp"`
	Read           bool      `json:"read" firestore:"read"`
}
