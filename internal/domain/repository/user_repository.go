package repository

import (
	"context"

	"souqbalady/internal/domain/entity"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	GetByID(ctx context.Context, uid string) (*entity.Profile, error)
	// Merge writes only the given Firestore fields.
	Merge(ctx context.Context, uid string, fields map[string]interface{}) error
}
