package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/google/uuid"
)

type absenceRequestRepository struct {
	store *Store
}

func NewAbsenceRequestRepository(store *Store) absence.RequestRepository {
	return &absenceRequestRepository{store: store}
}

func (r *absenceRequestRepository) Create(ctx context.Context, request absence.AbsenceRequest) (absence.AbsenceRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if request.ID == "" {
		request.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now
	request.EmployeeName, request.EmployeeEmail, request.EmployeeDepartment = nil, nil, nil

	r.store.requests[request.ID] = request
	recordUndo(ctx, func() { delete(r.store.requests, request.ID) })
	return request, nil
}

// withEmployee fills the join fields. Caller holds the lock.
func (r *absenceRequestRepository) withEmployee(req absence.AbsenceRequest) absence.AbsenceRequest {
	if u, ok := r.store.users[req.EmployeeID]; ok {
		name, email := u.Name, u.Email
		req.EmployeeName = &name
		req.EmployeeEmail = &email
		req.EmployeeDepartment = u.Department
	}
	return req
}

func (r *absenceRequestRepository) GetByID(_ context.Context, id string) (absence.AbsenceRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, ok := r.store.requests[id]
	if !ok {
		return absence.AbsenceRequest{}, absence.ErrRequestNotFound
	}
	return r.withEmployee(req), nil
}

func (r *absenceRequestRepository) matches(req absence.AbsenceRequest, q absence.ListQuery) bool {
	if q.EmployeeID != nil && req.EmployeeID != *q.EmployeeID {
		return false
	}
	if q.SupervisorID != nil || q.NoSupervisor {
		employee, ok := r.store.users[req.EmployeeID]
		if !ok {
			return false
		}
		if q.SupervisorID != nil && (employee.SupervisorID == nil || *employee.SupervisorID != *q.SupervisorID) {
			return false
		}
		if q.NoSupervisor && employee.SupervisorID != nil {
			return false
		}
	}
	if q.Status != nil && req.Status != *q.Status {
		return false
	}
	if q.Stage != nil && req.Stage != *q.Stage {
		return false
	}
	if q.ExcludeArchived && req.Status == absence.StatusArchived {
		return false
	}
	if !req.Overlaps(q.From, q.To) {
		return false
	}
	if q.EndpointIn != nil {
		in := func(d time.Time) bool {
			return !d.Before(q.EndpointIn.From) && !d.After(q.EndpointIn.To)
		}
		if !in(req.StartDate) && !in(req.EndDate) {
			return false
		}
	}
	return true
}

func (r *absenceRequestRepository) List(_ context.Context, q absence.ListQuery) ([]absence.AbsenceRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	requests := []absence.AbsenceRequest{}
	for _, req := range r.store.requests {
		if r.matches(req, q) {
			requests = append(requests, r.withEmployee(req))
		}
	}

	key := func(req absence.AbsenceRequest) time.Time {
		if q.OrderBy == absence.OrderByCreatedAt {
			return req.CreatedAt
		}
		return req.StartDate
	}
	sort.Slice(requests, func(i, j int) bool {
		a, b := requests[i], requests[j]
		ka, kb := key(a), key(b)
		if !ka.Equal(kb) {
			if q.Desc {
				return ka.After(kb)
			}
			return ka.Before(kb)
		}
		if q.Desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	return requests, nil
}

func (r *absenceRequestRepository) UpdateStageConditional(ctx context.Context, id string, from, to absence.State) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	req, ok := r.store.requests[id]
	if !ok || req.State() != from {
		return absence.ErrStageMismatch
	}

	prev := req
	req.Status = to.Status
	req.Stage = to.Stage
	req.UpdatedAt = time.Now()
	r.store.requests[id] = req
	recordUndo(ctx, func() { r.store.requests[id] = prev })
	return nil
}

func (r *absenceRequestRepository) Archive(ctx context.Context, id, ownerID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	req, ok := r.store.requests[id]
	if !ok || req.EmployeeID != ownerID || req.Status == absence.StatusArchived {
		return absence.ErrAlreadyArchived
	}

	prev := req
	req.Status = absence.StatusArchived
	req.UpdatedAt = time.Now()
	r.store.requests[id] = req
	recordUndo(ctx, func() { r.store.requests[id] = prev })
	return nil
}
