package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/google/uuid"
)

type approvalHistoryRepository struct {
	store *Store
}

func NewApprovalHistoryRepository(store *Store) approval.Repository {
	return &approvalHistoryRepository{store: store}
}

func (r *approvalHistoryRepository) Append(ctx context.Context, entry approval.Entry) (approval.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.Must(uuid.NewV7()).String()
	}
	entry.CreatedAt = time.Now()
	entry.ApproverName = nil

	r.store.history = append(r.store.history, entry)
	recordUndo(ctx, func() {
		r.store.history = slices.DeleteFunc(r.store.history, func(e approval.Entry) bool { return e.ID == entry.ID })
	})
	return entry, nil
}

func (r *approvalHistoryRepository) ListByRequest(_ context.Context, requestID string) ([]approval.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := []approval.Entry{}
	for _, e := range r.store.history {
		if e.RequestID != requestID {
			continue
		}
		if u, ok := r.store.users[e.ApproverID]; ok {
			name := u.Name
			e.ApproverName = &name
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}
