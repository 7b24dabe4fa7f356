package approval

import "context"

// Repository is append-only
type Repository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)
	ListByRequest(ctx context.Context, requestID string) ([]Entry, error)
}
