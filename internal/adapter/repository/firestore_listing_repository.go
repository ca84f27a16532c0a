package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/pkg/errors"
)

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.Offers == nil {
		listing.Offers = []entity.Offer{}
	}

	docRef := r.client.Collection(listing.Kind.Collection()).NewDoc()
	if _, err := docRef.Create(ctx, listing); err != nil {
		return storeError("Listing", err)
	}

	listing.ID = docRef.ID
	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, kind entity.ListingKind, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection(kind.Collection()).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("Listing", err)
	}

	return decodeListing(kind, doc)
}

func (r *firestoreListingRepository) List(ctx context.Context, kind entity.ListingKind, filter repository.ListingFilter) ([]*entity.Listing, error) {
	query := r.client.Collection(kind.Collection()).Query

	if filter.OwnerID != "" {
		query = query.Where("userId", "==", filter.OwnerID)
	}
	if filter.OwnerRole != "" {
		query = query.Where("userType", "==", string(filter.OwnerRole))
	}
	if filter.Category != "" {
		query = query.Where("productType", "==", string(filter.Category))
	}
	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	if !filter.CreatedFrom.IsZero() {
		query = query.Where("createdAt", ">=", filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		query = query.Where("createdAt", "<", filter.CreatedTo)
	}

	query = query.OrderBy("createdAt", firestore.Desc)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	listings := []*entity.Listing{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("Listings", err)
		}

		listing, err := decodeListing(kind, doc)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, kind entity.ListingKind, id string, fn repository.ListingMutation) (*entity.Listing, error) {
	docRef := r.client.Collection(kind.Collection()).Doc(id)

	var updated *entity.Listing
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		listing, err := decodeListing(kind, doc)
		if err != nil {
			return err
		}

		if err := fn(listing); err != nil {
			return err
		}

		updated = listing
		return tx.Set(docRef, listing)
	})
	if err != nil {
		return nil, storeError("Listing", err)
	}

	return updated, nil
}

func decodeListing(kind entity.ListingKind, doc *firestore.DocumentSnapshot) (*entity.Listing, error) {
	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}

	listing.ID = doc.Ref.ID
	listing.Kind = kind
	if listing.Offers == nil {
		listing.Offers = []entity.Offer{}
	}
	return &listing, nil
}
