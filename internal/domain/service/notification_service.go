package service

import "context"

type NotificationType string

const (
	NotificationNewMessage    NotificationType = "new_message"
	NotificationNewOffer      NotificationType = "new_offer"
	NotificationOfferAccepted NotificationType = "offer_accepted"
	NotificationOfferRejected NotificationType = "offer_rejected"
)

type Notification struct {
	Type  NotificationType       `json:"type"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// Notifier delivers a notification to one user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID string, n Notification) error
}
