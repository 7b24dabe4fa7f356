package absence

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
	StatusArchived  Status = "ARCHIVED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCancelled, StatusArchived:
		return true
	}
	return false
}

type Stage string

const (
	StageSupervisor Stage = "SUPERVISOR"
	StageManager    Stage = "MANAGER"
	StageHR         Stage = "HR"
	StagePayroll    Stage = "PAYROLL"
	StageCompleted  Stage = "COMPLETED"
)

// Valid reports whether s is a known stage
func (s Stage) Valid() bool {
	switch s {
	case StageSupervisor, StageManager, StageHR, StagePayroll, StageCompleted:
		return true
	}
	return false
}

// Decidable reports whether a request at this stage is waiting on a human decision
func (s Stage) Decidable() bool {
	_, ok := StageRoles[s]
	return ok
}

type Action string

const (
	ActionApproved Action = "APPROVED"
	ActionDeclined Action = "DECLINED"
)

// Valid reports whether a is a known decision
func (a Action) Valid() bool {
	return a == ActionApproved || a == ActionDeclined
}

// State is the workflow position of a request
type State struct {
	Status Status
	Stage  Stage
}

// InitialState is where every new request starts
var InitialState = State{Status: StatusPending, Stage: StageSupervisor}

// AbsenceRequest entity
type AbsenceRequest struct {
	ID         string
	EmployeeID string

	RequestType string
	StartDate   time.Time
	EndDate     time.Time
	TotalDays   float64 // fractional for partial-day types
	Reason      string

	// Type-specific payload, stored as given
	HoursPerDay    *float64
	PaidDays       *float64
	UnpaidDays     *float64
	UnpaidComments *string
	ShiftChange    *string
	ShiftDetails   *string

	Status Status
	Stage  Stage

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	EmployeeName       *string
	EmployeeEmail      *string
	EmployeeDepartment *string
}

// State returns the request's current workflow position
func (r AbsenceRequest) State() State {
	return State{Status: r.Status, Stage: r.Stage}
}

// Overlaps reports whether [StartDate, EndDate] intersects [from, to] inclusively.
// A nil bound is open.
func (r AbsenceRequest) Overlaps(from, to *time.Time) bool {
	if from != nil && r.EndDate.Before(*from) {
		return false
	}
	if to != nil && r.StartDate.After(*to) {
		return false
	}
	return true
}

const DateLayout = "2006-01-02"
