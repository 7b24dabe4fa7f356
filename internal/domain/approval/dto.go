package approval

import (
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
)

type EntryResponse struct {
	ID           string         `json:"id"`
	RequestID    string         `json:"request_id"`
	ApproverID   string         `json:"approver_id"`
	ApproverName *string        `json:"approver_name,omitempty"`
	Stage        absence.Stage  `json:"stage"`
	Action       absence.Action `json:"action"`
	Comments     *string        `json:"comments,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

type HistoryResponse struct {
	RequestID string          `json:"request_id"`
	Entries   []EntryResponse `json:"entries"`
}

func ToHistoryResponse(requestID string, entries []Entry) HistoryResponse {
	out := HistoryResponse{RequestID: requestID, Entries: make([]EntryResponse, len(entries))}
	for i, e := range entries {
		out.Entries[i] = EntryResponse{
			ID:           e.ID,
			RequestID:    e.RequestID,
			ApproverID:   e.ApproverID,
			ApproverName: e.ApproverName,
			Stage:        e.Stage,
			Action:       e.Action,
			Comments:     e.Comments,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339Nano),
		}
	}
	return out
}
