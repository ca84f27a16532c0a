package notification

import (
	"context"
	"errors"

	"souqbalady/internal/domain/service"
)

type multiNotifier struct {
	notifiers []service.Notifier
}

// NewMultiNotifier fans a notification out to every notifier and joins their errors.
func NewMultiNotifier(notifiers ...service.Notifier) service.Notifier {
	return &multiNotifier{notifiers: notifiers}
}

func (m *multiNotifier) Notify(ctx context.Context, userID string, n service.Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, userID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
