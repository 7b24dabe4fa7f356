package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
	"github.com/google/uuid"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) user.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if u.Email == newUser.Email {
			return user.User{}, user.ErrUserEmailExists
		}
	}

	if newUser.ID == "" {
		newUser.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now()
	newUser.CreatedAt = now
	newUser.UpdatedAt = now
	r.store.users[newUser.ID] = newUser
	recordUndo(ctx, func() { delete(r.store.users, newUser.ID) })
	return newUser, nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *userRepository) ListIDsByRole(ctx context.Context, role user.Role) ([]string, error) {
	users, err := r.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *userRepository) ListByRole(_ context.Context, role user.Role) ([]user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := []user.User{}
	for _, u := range r.store.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}
