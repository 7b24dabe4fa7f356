package notification

import "errors"

// Notification domain errors
var (
	ErrNoNotificationIDs = errors.New("notification_ids must not be empty")
)
