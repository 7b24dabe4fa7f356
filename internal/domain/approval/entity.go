package approval

import (
	"time"

	"github.com/cmlabs-hris/absence-workflow/internal/domain/absence"
)

// Entry is one immutable decision recorded against an absence request
type Entry struct {
	ID         string
	RequestID  string
	ApproverID string
	Stage      absence.Stage
	Action     absence.Action
	Comments   *string
	CreatedAt  time.Time

	// Populated on read
	ApproverName *string
}
