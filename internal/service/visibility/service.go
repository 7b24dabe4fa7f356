package visibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/user"
)

type VisibilityServiceImpl struct {
	requestRepo absence.RequestRepository
	userRepo    user.UserRepository
}

func NewVisibilityService(requestRepo absence.RequestRepository, userRepo user.UserRepository) absence.VisibilityService {
	return &VisibilityServiceImpl{
		requestRepo: requestRepo,
		userRepo:    userRepo,
	}
}

// scope narrows q to what actor may read. ok is false when nothing can match.
func scope(actor user.Actor, q *absence.ListQuery) (ok bool) {
	switch {
	case actor.CanViewAll():
	case actor.Role == user.RoleSupervisor:
		q.SupervisorID = &actor.ID
	default:
		if q.EmployeeID != nil && *q.EmployeeID != actor.ID {
			return false
		}
		q.EmployeeID = &actor.ID
	}
	q.ExcludeArchived = true
	return true
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(absence.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// List implements absence.VisibilityService.
func (s *VisibilityServiceImpl) List(ctx context.Context, actor user.Actor, filter absence.CalendarFilter) ([]absence.AbsenceRequest, error) {
	if !actor.Authenticated() {
		return nil, absence.ErrNoActor
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", absence.ErrValidation, err)
	}

	q := absence.ListQuery{
		From:    parseDate(filter.StartDate),
		To:      parseDate(filter.EndDate),
		OrderBy: absence.OrderByStartDate,
		Desc:    strings.EqualFold(filter.SortOrder, "desc"),
	}
	if filter.EmployeeID != "" {
		q.EmployeeID = &filter.EmployeeID
	}
	if filter.Status != "" && filter.Status != "all" {
		status := absence.Status(filter.Status)
		q.Status = &status
	}

	if !scope(actor, &q) {
		return []absence.AbsenceRequest{}, nil
	}

	return s.requestRepo.List(ctx, q)
}

// MyRequests implements absence.VisibilityService.
func (s *VisibilityServiceImpl) MyRequests(ctx context.Context, actor user.Actor) ([]absence.AbsenceRequest, error) {
	if !actor.Authenticated() {
		return nil, absence.ErrNoActor
	}

	return s.requestRepo.List(ctx, absence.ListQuery{
		EmployeeID:      &actor.ID,
		ExcludeArchived: true,
		OrderBy:         absence.OrderByCreatedAt,
		Desc:            true,
	})
}

// Get implements absence.VisibilityService.
// Requests outside the actor's scope are reported as not found.
func (s *VisibilityServiceImpl) Get(ctx context.Context, actor user.Actor, requestID string) (absence.AbsenceRequest, error) {
	if !actor.Authenticated() {
		return absence.AbsenceRequest{}, absence.ErrNoActor
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return absence.AbsenceRequest{}, err
	}
	if request.Status == absence.StatusArchived {
		return absence.AbsenceRequest{}, absence.ErrRequestNotFound
	}

	switch {
	case actor.CanViewAll(), request.EmployeeID == actor.ID:
		return request, nil
	case actor.Role == user.RoleSupervisor:
		employee, err := s.userRepo.GetByID(ctx, request.EmployeeID)
		if err != nil {
			return absence.AbsenceRequest{}, fmt.Errorf("failed to load request owner: %w", err)
		}
		if employee.HasSupervisor() && *employee.SupervisorID == actor.ID {
			return request, nil
		}
	}

	return absence.AbsenceRequest{}, absence.ErrRequestNotFound
}

// Pending implements absence.VisibilityService.
func (s *VisibilityServiceImpl) Pending(ctx context.Context, actor user.Actor, stage absence.Stage) ([]absence.AbsenceRequest, error) {
	if !actor.Authenticated() {
		return nil, absence.ErrNoActor
	}
	if !absence.RoleMayDecide(actor.Role, stage) {
		return nil, absence.ErrRoleNotPermitted
	}

	status := absence.StatusPending
	q := absence.ListQuery{
		Status:  &status,
		Stage:   &stage,
		OrderBy: absence.OrderByCreatedAt,
	}
	if stage == absence.StageSupervisor {
		q.SupervisorID = &actor.ID
	}

	return s.requestRepo.List(ctx, q)
}

// Approved implements absence.VisibilityService.
func (s *VisibilityServiceImpl) Approved(ctx context.Context, actor user.Actor, filter absence.ApprovedFilter) ([]absence.AbsenceRequest, error) {
	if !actor.Authenticated() {
		return nil, absence.ErrNoActor
	}
	if actor.Role != user.RolePayroll {
		return nil, absence.ErrViewNotPermitted
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", absence.ErrValidation, err)
	}

	status := absence.StatusApproved
	q := absence.ListQuery{
		Status:  &status,
		OrderBy: absence.OrderByStartDate,
		Desc:    true,
	}
	if filter.Month != nil && filter.Year != nil {
		first := time.Date(*filter.Year, time.Month(*filter.Month), 1, 0, 0, 0, 0, time.UTC)
		q.EndpointIn = &absence.DateRange{
			From: first,
			To:   first.AddDate(0, 1, -1),
		}
	}

	return s.requestRepo.List(ctx, q)
}

// Employees implements absence.VisibilityService.
func (s *VisibilityServiceImpl) Employees(ctx context.Context, actor user.Actor) ([]user.User, error) {
	if !actor.Authenticated() {
		return nil, absence.ErrNoActor
	}
	if actor.Role == user.RoleEmployee {
		return nil, absence.ErrViewNotPermitted
	}

	return s.userRepo.ListByRole(ctx, user.RoleEmployee)
}
