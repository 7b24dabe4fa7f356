package absence

import (
	"context"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
)

type WorkflowService interface {
	Create(ctx context.Context, actor user.Actor, req CreateAbsenceRequest) (CreateAbsenceResponse, error)
	Decide(ctx context.Context, actor user.Actor, req DecideRequest) error
	Archive(ctx context.Context, actor user.Actor, requestID string) error
}

type VisibilityService interface {
	List(ctx context.Context, actor user.Actor, filter CalendarFilter) ([]AbsenceRequest, error)
	MyRequests(ctx context.Context, actor user.Actor) ([]AbsenceRequest, error)
	Get(ctx context.Context, actor user.Actor, requestID string) (AbsenceRequest, error)
	Pending(ctx context.Context, actor user.Actor, stage Stage) ([]AbsenceRequest, error)
	Approved(ctx context.Context, actor user.Actor, filter ApprovedFilter) ([]AbsenceRequest, error)
	Employees(ctx context.Context, actor user.Actor) ([]user.User, error)
}
