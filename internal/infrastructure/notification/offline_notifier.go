package notification

import (
	"context"

	"souqbalady/internal/domain/service"
)

// Presence reports whether a user currently holds a live connection.
type Presence interface {
	IsOnline(userID string) bool
}

type offlineNotifier struct {
	presence Presence
	next     service.Notifier
}

// NewOfflineNotifier forwards a notification to next only while the user is
// offline. Online users already receive it over their live connection.
func NewOfflineNotifier(presence Presence, next service.Notifier) service.Notifier {
	return &offlineNotifier{presence: presence, next: next}
}

func (n *offlineNotifier) Notify(ctx context.Context, userID string, notification service.Notification) error {
	if n.presence.IsOnline(userID) {
		return nil
	}
	return n.next.Notify(ctx, userID, notification)
}
