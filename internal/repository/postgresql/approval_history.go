package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/absence-workflow/internal/pkg/database"
	"github.com/google/uuid"
)

type approvalHistoryRepositoryImpl struct {
	db *database.DB
}

func NewApprovalHistoryRepository(db *database.DB) approval.Repository {
	return &approvalHistoryRepositoryImpl{db: db}
}

// Append implements approval.Repository.
func (r *approvalHistoryRepositoryImpl) Append(ctx context.Context, entry approval.Entry) (approval.Entry, error) {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := `
		INSERT INTO approval_history (id, request_id, approver_id, stage, action, comments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.ApproverID,
		entry.Stage,
		entry.Action,
		entry.Comments,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return approval.Entry{}, fmt.Errorf("failed to append approval history: %w", err)
	}

	return entry, nil
}

// ListByRequest implements approval.Repository.
func (r *approvalHistoryRepositoryImpl) ListByRequest(ctx context.Context, requestID string) ([]approval.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ah.id, ah.request_id, ah.approver_id, ah.stage, ah.action, ah.comments, ah.created_at, u.name
		FROM approval_history ah
		LEFT JOIN users u ON ah.approver_id = u.id
		WHERE ah.request_id = $1
		ORDER BY ah.created_at ASC, ah.id ASC
	`

	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approval history: %w", err)
	}
	defer rows.Close()

	entries := []approval.Entry{}
	for rows.Next() {
		var e approval.Entry
		if err := rows.Scan(
			&e.ID, &e.RequestID, &e.ApproverID, &e.Stage, &e.Action, &e.Comments, &e.CreatedAt, &e.ApproverName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}
