package user

import (
	"context"
)

type UserRepository interface {
	Create(ctx context.Context, newUser User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// ListIDsByRole is evaluated at call time so users added later become recipients of later broadcasts
	ListIDsByRole(ctx context.Context, role Role) ([]string, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
}
