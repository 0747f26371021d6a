package card

import (
	"context"
)

// Repository defines the operations for persisting and retrieving card master data.
type Repository interface {
	ListAll(ctx context.Context) ([]*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	UpdateAvailableBalance(ctx context.Context, id string, balance int64) error
}
