package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type absenceRequestRepositoryImpl struct {
	db *database.DB
}

func NewAbsenceRequestRepository(db *database.DB) absence.RequestRepository {
	return &absenceRequestRepositoryImpl{db: db}
}

const absenceSelect = `
	SELECT
		ar.id, ar.employee_id, ar.request_type, ar.start_date, ar.end_date,
		ar.total_days::float8, ar.reason,
		ar.hours_per_day::float8, ar.paid_days::float8, ar.unpaid_days::float8,
		ar.unpaid_comments, ar.shift_change, ar.shift_details,
		ar.status, ar.current_approval_stage, ar.created_at, ar.updated_at,
		u.name, u.email, u.department
	FROM absence_requests ar
	INNER JOIN users u ON ar.employee_id = u.id
`

func scanAbsenceRequest(row pgx.Row) (absence.AbsenceRequest, error) {
	var req absence.AbsenceRequest
	var employeeName, employeeEmail string

	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.RequestType, &req.StartDate, &req.EndDate,
		&req.TotalDays, &req.Reason,
		&req.HoursPerDay, &req.PaidDays, &req.UnpaidDays,
		&req.UnpaidComments, &req.ShiftChange, &req.ShiftDetails,
		&req.Status, &req.Stage, &req.CreatedAt, &req.UpdatedAt,
		&employeeName, &employeeEmail, &req.EmployeeDepartment,
	)
	if err != nil {
		return absence.AbsenceRequest{}, err
	}

	req.EmployeeName = &employeeName
	req.EmployeeEmail = &employeeEmail
	return req, nil
}

// Create implements absence.RequestRepository.
func (r *absenceRequestRepositoryImpl) Create(ctx context.Context, request absence.AbsenceRequest) (absence.AbsenceRequest, error) {
	q := GetQuerier(ctx, r.db)

	if request.ID == "" {
		request.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO absence_requests (
			id, employee_id, request_type, start_date, end_date, total_days, reason,
			hours_per_day, paid_days, unpaid_days, unpaid_comments, shift_change, shift_details,
			status, current_approval_stage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		request.ID,
		request.EmployeeID,
		request.RequestType,
		request.StartDate,
		request.EndDate,
		request.TotalDays,
		request.Reason,
		request.HoursPerDay,
		request.PaidDays,
		request.UnpaidDays,
		request.UnpaidComments,
		request.ShiftChange,
		request.ShiftDetails,
		request.Status,
		request.Stage,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return absence.AbsenceRequest{}, fmt.Errorf("failed to create absence request: %w", err)
	}

	return request, nil
}

// GetByID implements absence.RequestRepository.
func (r *absenceRequestRepositoryImpl) GetByID(ctx context.Context, id string) (absence.AbsenceRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return absence.AbsenceRequest{}, absence.ErrRequestNotFound
	}

	q := GetQuerier(ctx, r.db)

	req, err := scanAbsenceRequest(q.QueryRow(ctx, absenceSelect+` WHERE ar.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return absence.AbsenceRequest{}, absence.ErrRequestNotFound
		}
		return absence.AbsenceRequest{}, fmt.Errorf("failed to get absence request %s: %w", id, err)
	}
	return req, nil
}

// List implements absence.RequestRepository.
func (r *absenceRequestRepositoryImpl) List(ctx context.Context, filter absence.ListQuery) ([]absence.AbsenceRequest, error) {
	q := GetQuerier(ctx, r.db)

	args := []interface{}{}
	argIdx := 1
	whereClauses := []string{}

	addClause := func(format string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(format, argIdx))
		args = append(args, value)
		argIdx++
	}

	if filter.EmployeeID != nil {
		addClause("ar.employee_id = $%d", *filter.EmployeeID)
	}
	if filter.SupervisorID != nil {
		addClause("u.supervisor_id = $%d", *filter.SupervisorID)
	}
	if filter.NoSupervisor {
		whereClauses = append(whereClauses, "u.supervisor_id IS NULL")
	}
	if filter.Status != nil {
		addClause("ar.status = $%d", *filter.Status)
	}
	if filter.Stage != nil {
		addClause("ar.current_approval_stage = $%d", *filter.Stage)
	}
	if filter.ExcludeArchived {
		whereClauses = append(whereClauses, fmt.Sprintf("ar.status <> '%s'", absence.StatusArchived))
	}

	// Inclusive interval intersection
	if filter.From != nil {
		addClause("ar.end_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		addClause("ar.start_date <= $%d", *filter.To)
	}

	if filter.EndpointIn != nil {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"((ar.start_date BETWEEN $%d AND $%d) OR (ar.end_date BETWEEN $%d AND $%d))",
			argIdx, argIdx+1, argIdx, argIdx+1,
		))
		args = append(args, filter.EndpointIn.From, filter.EndpointIn.To)
		argIdx += 2
	}

	query := absenceSelect
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	orderBy := "ar.start_date"
	if filter.OrderBy == absence.OrderByCreatedAt {
		orderBy = "ar.created_at"
	}
	direction := " ASC"
	if filter.Desc {
		direction = " DESC"
	}
	query += " ORDER BY " + orderBy + direction + ", ar.id" + direction

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query absence requests: %w", err)
	}
	defer rows.Close()

	requests := []absence.AbsenceRequest{}
	for rows.Next() {
		req, err := scanAbsenceRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan absence request: %w", err)
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return requests, nil
}

// UpdateStageConditional implements absence.RequestRepository.
// The WHERE clause re-asserts the expected state so concurrent deciders cannot both win.
func (r *absenceRequestRepositoryImpl) UpdateStageConditional(ctx context.Context, id string, from, to absence.State) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE absence_requests
		SET status = $1, current_approval_stage = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4 AND current_approval_stage = $5
	`

	tag, err := q.Exec(ctx, query, to.Status, to.Stage, id, from.Status, from.Stage)
	if err != nil {
		return fmt.Errorf("failed to update stage for absence request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return absence.ErrStageMismatch
	}
	return nil
}

// Archive implements absence.RequestRepository.
func (r *absenceRequestRepositoryImpl) Archive(ctx context.Context, id, ownerID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE absence_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND employee_id = $3 AND status <> $1
	`

	tag, err := q.Exec(ctx, query, absence.StatusArchived, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to archive absence request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return absence.ErrAlreadyArchived
	}
	return nil
}
