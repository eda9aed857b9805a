package audit

import "context"

// Store is the append-only persistence contract for audit events. There is
// deliberately no update or delete operation.
type Store interface {
	Append(ctx context.Context, event Event) error
	// Query returns events newest-first, bounded by the filter's effective limit.
	Query(ctx context.Context, filter Filter) ([]Event, error)
}
