package absence

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/pkg/validator"
	"github.com/google/uuid"
)

type CreateAbsenceRequest struct {
	RequestType    string   `json:"request_type"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	TotalDays      float64  `json:"total_days"`
	Reason         string   `json:"reason"`
	HoursPerDay    *float64 `json:"hours_per_day,omitempty"`
	PaidDays       *float64 `json:"paid_days,omitempty"`
	UnpaidDays     *float64 `json:"unpaid_days,omitempty"`
	UnpaidComments *string  `json:"unpaid_comments,omitempty"`
	ShiftChange    *string  `json:"shift_change,omitempty"`
	ShiftDetails   *string  `json:"shift_details,omitempty"`
}

func (r *CreateAbsenceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RequestType) {
		errs = append(errs, validator.ValidationError{
			Field:   "request_type",
			Message: "request_type is required",
		})
	}

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required in YYYY-MM-DD format",
		})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date is required in YYYY-MM-DD format",
		})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if r.TotalDays <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "total_days",
			Message: "total_days must be greater than zero",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	for field, v := range map[string]*float64{
		"hours_per_day": r.HoursPerDay,
		"paid_days":     r.PaidDays,
		"unpaid_days":   r.UnpaidDays,
	} {
		if v != nil && *v < 0 {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must not be negative",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToEntity builds a new request owned by employeeID. Validate must have passed.
func (r *CreateAbsenceRequest) ToEntity(employeeID string) AbsenceRequest {
	start, _ := time.Parse(DateLayout, r.StartDate)
	end, _ := time.Parse(DateLayout, r.EndDate)

	hours := 8.0
	if r.HoursPerDay != nil {
		hours = *r.HoursPerDay
	}
	paid, unpaid := 0.0, 0.0
	if r.PaidDays != nil {
		paid = *r.PaidDays
	}
	if r.UnpaidDays != nil {
		unpaid = *r.UnpaidDays
	}

	return AbsenceRequest{
		EmployeeID:     employeeID,
		RequestType:    strings.TrimSpace(r.RequestType),
		StartDate:      start,
		EndDate:        end,
		TotalDays:      r.TotalDays,
		Reason:         r.Reason,
		HoursPerDay:    &hours,
		PaidDays:       &paid,
		UnpaidDays:     &unpaid,
		UnpaidComments: r.UnpaidComments,
		ShiftChange:    r.ShiftChange,
		ShiftDetails:   r.ShiftDetails,
		Status:         InitialState.Status,
		Stage:          InitialState.Stage,
	}
}

type CreateAbsenceResponse struct {
	RequestID string `json:"request_id"`
	Orphaned  bool   `json:"orphaned"`
}

type DecideRequest struct {
	RequestID string  `json:"request_id"`
	Action    Action  `json:"action"`
	Stage     Stage   `json:"stage"`
	Comments  *string `json:"comments,omitempty"`
}

func (r *DecideRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RequestID) {
		errs = append(errs, validator.ValidationError{
			Field:   "request_id",
			Message: "request_id is required",
		})
	}
	if !r.Action.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be APPROVED or DECLINED",
		})
	}
	if !r.Stage.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "stage",
			Message: "stage must be one of SUPERVISOR, MANAGER, HR",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// CalendarFilter holds the optional query parameters of the calendar listing
type CalendarFilter struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	EmployeeID string `json:"employeeId"`
	Status     string `json:"status"`
	SortOrder  string `json:"sort"`
}

func (f *CalendarFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.StartDate != "" {
		if _, ok := validator.IsValidDate(f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "startDate",
				Message: "startDate must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != "" {
		if _, ok := validator.IsValidDate(f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "endDate",
				Message: "endDate must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EmployeeID != "" {
		if _, err := uuid.Parse(f.EmployeeID); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "employeeId",
				Message: "employeeId must be a valid id",
			})
		}
	}
	if f.Status != "" && f.Status != "all" && !Status(f.Status).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be a known status or 'all'",
		})
	}
	if f.SortOrder != "" && !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "sort",
			Message: "sort must be asc or desc",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ApprovedFilter narrows the payroll listing to requests touching one month
type ApprovedFilter struct {
	Month *int // 1-12
	Year  *int
}

func (f *ApprovedFilter) Validate() error {
	var errs validator.ValidationErrors

	if (f.Month == nil) != (f.Year == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month and year must be given together",
		})
	}
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if f.Year != nil && *f.Year < 1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be a positive integer",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AbsenceRequestResponse struct {
	ID                 string   `json:"id"`
	EmployeeID         string   `json:"employee_id"`
	EmployeeName       *string  `json:"employee_name,omitempty"`
	EmployeeEmail      *string  `json:"employee_email,omitempty"`
	EmployeeDepartment *string  `json:"employee_department,omitempty"`
	RequestType        string   `json:"request_type"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	TotalDays          float64  `json:"total_days"`
	Reason             string   `json:"reason"`
	HoursPerDay        *float64 `json:"hours_per_day,omitempty"`
	PaidDays           *float64 `json:"paid_days,omitempty"`
	UnpaidDays         *float64 `json:"unpaid_days,omitempty"`
	UnpaidComments     *string  `json:"unpaid_comments,omitempty"`
	ShiftChange        *string  `json:"shift_change,omitempty"`
	ShiftDetails       *string  `json:"shift_details,omitempty"`
	Status             Status   `json:"status"`
	Stage              Stage    `json:"current_approval_stage"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func ToResponse(r AbsenceRequest) AbsenceRequestResponse {
	return AbsenceRequestResponse{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		EmployeeName:       r.EmployeeName,
		EmployeeEmail:      r.EmployeeEmail,
		EmployeeDepartment: r.EmployeeDepartment,
		RequestType:        r.RequestType,
		StartDate:          r.StartDate.Format(DateLayout),
		EndDate:            r.EndDate.Format(DateLayout),
		TotalDays:          r.TotalDays,
		Reason:             r.Reason,
		HoursPerDay:        r.HoursPerDay,
		PaidDays:           r.PaidDays,
		UnpaidDays:         r.UnpaidDays,
		UnpaidComments:     r.UnpaidComments,
		ShiftChange:        r.ShiftChange,
		ShiftDetails:       r.ShiftDetails,
		Status:             r.Status,
		Stage:              r.Stage,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
}

func ToResponses(requests []AbsenceRequest) []AbsenceRequestResponse {
	out := make([]AbsenceRequestResponse, len(requests))
	for i, r := range requests {
		out[i] = ToResponse(r)
	}
	return out
}

type ListAbsenceResponse struct {
	Requests []AbsenceRequestResponse `json:"requests"`
}
