package absence

import (
	"context"
	"time"
)

type OrderBy string

const (
	OrderByStartDate OrderBy = "start_date"
	OrderByCreatedAt OrderBy = "created_at"
)

// DateRange is an inclusive pair of dates
type DateRange struct {
	From time.Time
	To   time.Time
}

// ListQuery is the store-level selection; visibility rules are applied by the caller
type ListQuery struct {
	EmployeeID      *string
	SupervisorID    *string // employee's supervisor_id must equal this
	NoSupervisor    bool    // employee has no supervisor_id
	Status          *Status
	Stage           *Stage
	ExcludeArchived bool

	// [start_date, end_date] must intersect [From, To]; nil bounds are open
	From *time.Time
	To   *time.Time

	// start_date or end_date must fall inside the range
	EndpointIn *DateRange

	OrderBy OrderBy
	Desc    bool
}

// RequestRepository - interface for absence_requests table
type RequestRepository interface {
	Create(ctx context.Context, request AbsenceRequest) (AbsenceRequest, error)
	GetByID(ctx context.Context, id string) (AbsenceRequest, error)
	List(ctx context.Context, q ListQuery) ([]AbsenceRequest, error)
	// UpdateStageConditional moves the request from -> to only if it is still at from.
	// Returns ErrStageMismatch when no row matched.
	UpdateStageConditional(ctx context.Context, id string, from, to State) error
	// Archive sets ARCHIVED only if ownerID owns the request and it is not yet archived.
	// Returns ErrAlreadyArchived when no row matched.
	Archive(ctx context.Context, id, ownerID string) error
}

// TxManager runs fn inside a store transaction carried by the returned context
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
