package approval

import "context"

// Ledger records approval decisions and replays them in order
type Ledger interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	History(ctx context.Context, requestID string) ([]Entry, error)
}
