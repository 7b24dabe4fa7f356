package notification

import (
	"time"
)

// Notification is an in-app message tied to one absence request
type Notification struct {
	ID          string
	RecipientID string
	RequestID   string
	Message     string
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Messages sent by the workflow
const (
	MsgRequestSubmitted = "New absence request from %s requires your approval"
	MsgRequestDeclined  = "Your absence request has been declined by %s"
	MsgRequestApproved  = "Your absence request has been fully approved!"
	MsgPayrollPending   = "New approved absence request requires payroll processing"
	MsgStagePending     = "New absence request requires your approval"
)
