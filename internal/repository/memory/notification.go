package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/notification"
	"github.com/google/uuid"
)

type notificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) notification.Repository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.Must(uuid.NewV7()).String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		stored := *n
		r.store.notifications[n.ID] = &stored
		id := n.ID
		recordUndo(ctx, func() { delete(r.store.notifications, id) })
	}
	return nil
}

// byUser returns copies of userID's notifications, newest first. Caller holds the lock.
func (r *notificationRepository) byUser(userID string, unreadOnly bool) []*notification.Notification {
	out := []*notification.Notification{}
	for _, n := range r.store.notifications {
		if n.RecipientID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *notificationRepository) GetByUserID(_ context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := r.byUser(userID, unreadOnly)
	total := len(all)

	start := (page - 1) * pageSize
	if start < 0 || start >= total {
		return []*notification.Notification{}, total, nil
	}
	end := min(start+pageSize, total)
	return all[start:end], total, nil
}

func (r *notificationRepository) GetUnreadCount(_ context.Context, userID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.byUser(userID, true)), nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	for _, id := range ids {
		n, ok := r.store.notifications[id]
		if !ok || n.RecipientID != userID || n.IsRead {
			continue
		}
		markRead(ctx, n, &now)
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	for _, n := range r.store.notifications {
		if n.RecipientID == userID && !n.IsRead {
			markRead(ctx, n, &now)
		}
	}
	return nil
}

// markRead flags n as read. Caller holds the write lock.
func markRead(ctx context.Context, n *notification.Notification, at *time.Time) {
	n.IsRead = true
	n.ReadAt = at
	recordUndo(ctx, func() {
		n.IsRead = false
		n.ReadAt = nil
	})
}
