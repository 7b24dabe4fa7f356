package ledger

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
	"github.com/cmlabs-hris/absence-workflow/internal/domain/approval"
)

type service struct {
	repo approval.Repository
}

func NewLedgerService(repo approval.Repository) approval.Ledger {
	return &service{repo: repo}
}

// Append records one decision. Called inside the transaction that moved the request.
func (s *service) Append(ctx context.Context, entry approval.Entry) (approval.Entry, error) {
	if entry.RequestID == "" || entry.ApproverID == "" {
		return approval.Entry{}, fmt.Errorf("%w: ledger entry needs request and approver", absence.ErrValidation)
	}
	if !entry.Stage.Decidable() {
		return approval.Entry{}, absence.ErrStageNotDecidable
	}
	if !entry.Action.Valid() {
		return approval.Entry{}, absence.ErrInvalidAction
	}

	saved, err := s.repo.Append(ctx, entry)
	if err != nil {
		return approval.Entry{}, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return saved, nil
}

// History returns every decision on requestID, oldest first
func (s *service) History(ctx context.Context, requestID string) ([]approval.Entry, error) {
	entries, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return entries, nil
}
