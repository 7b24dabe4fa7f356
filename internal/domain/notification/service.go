package notification

import (
	"context"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
)

// Dispatcher creates notifications for workflow events
type Dispatcher interface {
	Notify(ctx context.Context, recipientIDs []string, requestID, message string) error
	// NotifyRole resolves the role's members at call time
	NotifyRole(ctx context.Context, role user.Role, requestID, message string) error
}

// Service defines the notification service interface
type Service interface {
	Dispatcher

	GetNotifications(ctx context.Context, userID string, req ListNotificationsRequest) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error

	// SSE subscription
	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())
}
