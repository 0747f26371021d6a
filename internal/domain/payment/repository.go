package payment

import (
	"context"
	"time"
)

// Repository supplies the pending payment batch. Allocation outcomes are never written back.
type Repository interface {
	ListPending(ctx context.Context, appliedOnOrBefore time.Time) ([]*Request, error)
}
