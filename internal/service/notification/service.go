package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/notification"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/sse"
	"github.com/google/uuid"
)

const eventNotification = "notification"

type service struct {
	repo     notification.Repository
	userRepo user.UserRepository
	hub      *sse.Hub
}

// NewNotificationService creates the dispatcher and inbox service.
// Notifications are stored in one batch per call, then pushed to open SSE streams.
func NewNotificationService(repo notification.Repository, userRepo user.UserRepository, hub *sse.Hub) notification.Service {
	return &service{
		repo:     repo,
		userRepo: userRepo,
		hub:      hub,
	}
}

// Notify creates one unread notification per distinct recipient
func (s *service) Notify(ctx context.Context, recipientIDs []string, requestID, message string) error {
	seen := make(map[string]struct{}, len(recipientIDs))
	now := time.Now()

	notifications := make([]*notification.Notification, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		notifications = append(notifications, &notification.Notification{
			ID:          uuid.Must(uuid.NewV7()).String(),
			RecipientID: id,
			RequestID:   requestID,
			Message:     message,
			IsRead:      false,
			CreatedAt:   now,
		})
	}
	if len(notifications) == 0 {
		return nil
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to store notifications: %w", err)
	}

	for _, n := range notifications {
		s.hub.Publish(n.RecipientID, sse.Event{
			Event: eventNotification,
			Data:  notification.ToResponse(n),
		})
	}

	slog.Debug("Notifications dispatched", "request_id", requestID, "count", len(notifications))
	return nil
}

// NotifyRole notifies every user holding role at the time of the call
func (s *service) NotifyRole(ctx context.Context, role user.Role, requestID, message string) error {
	ids, err := s.userRepo.ListIDsByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to resolve %s recipients: %w", role, err)
	}
	if len(ids) == 0 {
		slog.Warn("No recipients for role notification", "role", role, "request_id", requestID)
		return nil
	}
	return s.Notify(ctx, ids, requestID, message)
}

// GetNotifications retrieves notifications for a user
func (s *service) GetNotifications(ctx context.Context, userID string, req notification.ListNotificationsRequest) (*notification.NotificationListResponse, error) {
	req.Normalize()

	notifications, total, err := s.repo.GetByUserID(ctx, userID, req.Page, req.PageSize, req.UnreadOnly)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = notification.ToResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}, nil
}

// GetUnreadCount returns the count of unread notifications
func (s *service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkAsRead marks specific notifications as read
func (s *service) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, req.NotificationIDs, userID)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *service) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// Subscribe creates an SSE subscription for a user
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)
	slog.Debug("SSE stream opened", "user_id", userID, "streams", s.hub.SubscriberCount(userID))

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.NotificationResponse)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}
