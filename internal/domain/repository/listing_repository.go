package repository

import (
	"context"
	"time"

	"souqbalady/internal/domain/entity"
)

type ListingFilter struct {
	OwnerID     string
	OwnerRole   entity.Role
	Category    entity.ProductCategory
	Status      entity.ListingStatus
	CreatedFrom time.Time
	CreatedTo   time.Time
	Limit       int
}

// ListingMutation edits a listing in place. It may be called more than once
// for a single Update and must depend only on the listing it receives.
type ListingMutation func(listing *entity.Listing) error

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, kind entity.ListingKind, id string) (*entity.Listing, error)
	// List returns listings newest first.
	List(ctx context.Context, kind entity.ListingKind, filter ListingFilter) ([]*entity.Listing, error)
	// Update applies fn atomically and returns the stored result.
	Update(ctx context.Context, kind entity.ListingKind, id string, fn ListingMutation) (*entity.Listing, error)
}
