package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"souqbalady/internal/domain/service"
)

// TopicPrefix is prepended to a user id to form the FCM topic a client
// subscribes its devices to.
const TopicPrefix = "user_"

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type fcmNotifier struct {
	client messagingClient
}

func NewFCMNotifier(client *messaging.Client) service.Notifier {
	return &fcmNotifier{client: client}
}

func (n *fcmNotifier) Notify(ctx context.Context, userID string, notification service.Notification) error {
	_, err := n.client.Send(ctx, buildMessage(userID, notification))
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func buildMessage(userID string, notification service.Notification) *messaging.Message {
	data := make(map[string]string, len(notification.Data)+1)
	for k, v := range notification.Data {
		data[k] = fmt.Sprint(v)
	}
	data["type"] = string(notification.Type)

	return &messaging.Message{
		Topic: TopicPrefix + userID,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: data,
	}
}
