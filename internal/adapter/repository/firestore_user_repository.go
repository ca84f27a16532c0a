package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/pkg/errors"
)

type firestoreProfileRepository struct {
	client *firestore.Client
}

func NewFirestoreProfileRepository(client *firestore.Client) repository.ProfileRepository {
	return &firestoreProfileRepository{
		client: client,
	}
}

func (r *firestoreProfileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	_, err := r.client.Collection("users").Doc(profile.UID).Set(ctx, profile)
	return storeError("Profile", err)
}

func (r *firestoreProfileRepository) GetByID(ctx context.Context, uid string) (*entity.Profile, error) {
	doc, err := r.client.Collection("users").Doc(uid).Get(ctx)
	if err != nil {
		return nil, storeError("Profile", err)
	}

	var profile entity.Profile
	if err := doc.DataTo(&profile); err != nil {
		return nil, errors.Internal("Failed to parse profile data", err)
	}
	profile.UID = doc.Ref.ID

	return &profile, nil
}

func (r *firestoreProfileRepository) Merge(ctx context.Context, uid string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updatedAt"] = time.Now().UTC()

	_, err := r.client.Collection("users").Doc(uid).Set(ctx, fields, firestore.MergeAll)
	return storeError("Profile", err)
}
