package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/internal/domain/service"
	"souqbalady/internal/infrastructure/ratelimit"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/logger"
)

const sideEffectTimeout = 5 * time.Second

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	notifier    service.Notifier
	events      service.EventPublisher
	limiter     RateLimiter
	now         func() time.Time
}

func NewListingUseCase(
	listingRepo repository.ListingRepository,
	notifier service.Notifier,
	events service.EventPublisher,
	limiter RateLimiter,
) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		notifier:    notifier,
		events:      events,
		limiter:     limiter,
		now:         time.Now,
	}
}

type CreateListingInput struct {
	ProductType      string
	ProductName      string
	Quantity         float64
	Unit             string
	PricePerUnit     float64
	DeliveryLocation string
	DeliveryDate     string
	Country          string
	Governorate      string
	Region           string
}

type SubmitOfferInput struct {
	Quantity         float64
	PricePerUnit     float64
	DeliveryDate     string
	DeliveryLocation string
	Message          string
}

type ListingQuery struct {
	Mine     bool
	Role     string
	Category string
	Status   string
	Limit    int
}

func (uc *ListingUseCase) CreateListing(ctx context.Context, session *entity.Session, kind entity.ListingKind, input CreateListingInput) (*entity.Listing, error) {
	if !session.Role().CanCreate(kind) {
		return nil, errors.Forbidden(fmt.Sprintf("A %s account cannot create a %s", session.Role(), kind), nil)
	}

	now := uc.now().UTC()
	listing, err := buildListing(session, kind, input, now)
	if err != nil {
		return nil, err
	}

	if err := uc.allow(session, ratelimit.ActionCreateListing); err != nil {
		return nil, err
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	logger.Info("Listing %s/%s created by %s", kind, listing.ID, session.UID)
	uc.publish(ctx, service.MarketEvent{
		Type:      service.EventListingCreated,
		ListingID: listing.ID,
		ActorID:   session.UID,
		Data: map[string]string{
			"kind":         string(kind),
			"product_type": string(listing.ProductType),
			"product_name": listing.ProductName,
		},
	})

	return listing, nil
}

func buildListing(session *entity.Session, kind entity.ListingKind, input CreateListingInput, now time.Time) (*entity.Listing, error) {
	category, ok := entity.ParseProductCategory(input.ProductType)
	if !ok {
		return nil, errors.Validation("product_type must be vegetables or fruits")
	}

	productName := strings.TrimSpace(input.ProductName)
	location := strings.TrimSpace(input.DeliveryLocation)
	if productName == "" || location == "" {
		return nil, errors.Validation("product_name and delivery_location are required")
	}
	if input.Quantity <= 0 {
		return nil, errors.Validation("quantity must be greater than 0")
	}
	if input.PricePerUnit <= 0 {
		return nil, errors.Validation("price_per_unit must be greater than 0")
	}

	unit := entity.Unit(strings.ToLower(strings.TrimSpace(input.Unit)))
	if !unit.Valid() {
		return nil, errors.Validation("unit must be kg or ton")
	}

	delivery, ok := entity.ParseDeliveryDate(input.DeliveryDate)
	if !ok {
		return nil, errors.Validation("delivery_date must be a date formatted as YYYY-MM-DD")
	}
	if delivery.Before(entity.DayStart(now)) {
		return nil, errors.Validation("delivery_date cannot be in the past")
	}

	return &entity.Listing{
		Kind:             kind,
		UserID:           session.UID,
		UserName:         session.DisplayName(),
		UserType:         session.Role(),
		ProductType:      category,
		ProductName:      productName,
		Quantity:         input.Quantity,
		Unit:             unit,
		PricePerUnit:     input.PricePerUnit,
		DeliveryLocation: location,
		DeliveryDate:     input.DeliveryDate,
		Country:          strings.TrimSpace(input.Country),
		Governorate:      strings.TrimSpace(input.Governorate),
		Region:           strings.TrimSpace(input.Region),
		Status:           entity.ListingStatusActive,
		Offers:           []entity.Offer{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// GetListing returns a listing. Callers other than the owner only see
// their own offers.
func (uc *ListingUseCase) GetListing(ctx context.Context, session *entity.Session, kind entity.ListingKind, id string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return visibleTo(session, listing), nil
}

func (uc *ListingUseCase) ListListings(ctx context.Context, session *entity.Session, kind entity.ListingKind, query ListingQuery) ([]*entity.Listing, error) {
	filter := repository.ListingFilter{Limit: query.Limit}

	if query.Mine {
		filter.OwnerID = session.UID
	}
	if query.Role != "" {
		role := entity.Role(strings.ToLower(query.Role))
		if !role.Valid() {
			return nil, errors.Validation("role must be one of: farmer trader factory")
		}
		filter.OwnerRole = role
	}
	if query.Category != "" {
		category, ok := entity.ParseProductCategory(query.Category)
		if !ok {
			return nil, errors.Validation("category must be vegetables or fruits")
		}
		filter.Category = category
	}
	switch {
	case query.Status != "":
		status := entity.ListingStatus(strings.ToLower(query.Status))
		if !status.Valid() {
			return nil, errors.Validation("status must be one of: active in_progress completed cancelled")
		}
		filter.Status = status
	case !query.Mine:
		filter.Status = entity.ListingStatusActive
	}

	listings, err := uc.listingRepo.List(ctx, kind, filter)
	if err != nil {
		return nil, err
	}

	for i, l := range listings {
		listings[i] = visibleTo(session, l)
	}
	return listings, nil
}

// SubmitOffer appends a pending offer to an active listing of the
// counterpart role.
func (uc *ListingUseCase) SubmitOffer(ctx context.Context, session *entity.Session, kind entity.ListingKind, listingID string, input SubmitOfferInput) (*entity.Offer, error) {
	if !session.Role().CanOfferOn(kind) {
		return nil, errors.Forbidden(fmt.Sprintf("A %s account cannot make offers on a %s", session.Role(), kind), nil)
	}

	location := strings.TrimSpace(input.DeliveryLocation)
	if input.Quantity <= 0 || input.PricePerUnit <= 0 {
		return nil, errors.Validation("quantity and price_per_unit must be greater than 0")
	}
	if location == "" {
		return nil, errors.Validation("delivery_location is required")
	}
	if _, ok := entity.ParseDeliveryDate(input.DeliveryDate); !ok {
		return nil, errors.Validation("delivery_date must be a date formatted as YYYY-MM-DD")
	}

	if err := uc.allow(session, ratelimit.ActionSubmitOffer); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	offer := entity.Offer{
		ID:               uuid.New().String(),
		OfferedBy:        session.UID,
		OffererName:      session.DisplayName(),
		OffererType:      session.Role(),
		Quantity:         input.Quantity,
		PricePerUnit:     input.PricePerUnit,
		DeliveryDate:     input.DeliveryDate,
		DeliveryLocation: location,
		Message:          strings.TrimSpace(input.Message),
		Status:           entity.OfferStatusPending,
		CreatedAt:        now,
	}

	listing, err := uc.listingRepo.Update(ctx, kind, listingID, func(l *entity.Listing) error {
		if l.IsOwnedBy(session.UID) {
			return errors.Forbidden("You cannot make an offer on your own listing", nil)
		}
		if l.Status != entity.ListingStatusActive {
			return errors.Conflict("Listing is no longer accepting offers")
		}
		l.Offers = append(l.Offers, offer)
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Offer %s submitted on %s/%s by %s", offer.ID, kind, listingID, session.UID)
	uc.notify(ctx, listing.UserID, service.Notification{
		Type:  service.NotificationNewOffer,
		Title: "New offer",
		Body:  fmt.Sprintf("%s offered %g %s of %s at %g", offer.OffererName, offer.Quantity, listing.Unit, listing.ProductName, offer.PricePerUnit),
		Data: map[string]interface{}{
			"listing_id":   listingID,
			"listing_kind": string(kind),
			"offer_id":     offer.ID,
		},
	})
	uc.publish(ctx, service.MarketEvent{
		Type:      service.EventOfferSubmitted,
		ListingID: listingID,
		ActorID:   session.UID,
		Data:      map[string]string{"kind": string(kind), "offer_id": offer.ID},
	})

	return &offer, nil
}

// ParseOfferDecision accepts accept/accepted and reject/rejected.
func ParseOfferDecision(s string) (entity.OfferStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept", "accepted":
		return entity.OfferStatusAccepted, true
	case "reject", "rejected":
		return entity.OfferStatusRejected, true
	}
	return "", false
}

// RespondToOffer accepts or rejects a pending offer. Accepting moves the
// listing to in_progress in the same write, and at most one offer of a
// listing is ever accepted.
func (uc *ListingUseCase) RespondToOffer(ctx context.Context, session *entity.Session, kind entity.ListingKind, listingID, offerID string, decision entity.OfferStatus) (*entity.Listing, error) {
	if decision != entity.OfferStatusAccepted && decision != entity.OfferStatusRejected {
		return nil, errors.Validation("decision must be accepted or rejected")
	}

	now := uc.now().UTC()
	var offerer string
	listing, err := uc.listingRepo.Update(ctx, kind, listingID, func(l *entity.Listing) error {
		if !l.IsOwnedBy(session.UID) {
			return errors.Forbidden("Only the listing owner can respond to offers", nil)
		}

		idx, ok := l.FindOffer(offerID)
		if !ok {
			return errors.NotFound("Offer", nil)
		}
		offer := &l.Offers[idx]
		if offer.Status != entity.OfferStatusPending {
			return errors.Conflict(fmt.Sprintf("Offer has already been %s", offer.Status))
		}

		if decision == entity.OfferStatusAccepted {
			if l.Status != entity.ListingStatusActive {
				return errors.Conflict("Listing is no longer active")
			}
			if l.AcceptedOffer() != nil {
				return errors.Conflict("Another offer has already been accepted")
			}
			l.Status = entity.ListingStatusInProgress
		}

		offer.Status = decision
		offer.RespondedAt = &now
		offerer = offer.OfferedBy
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Offer %s on %s/%s %s by %s", offerID, kind, listingID, decision, session.UID)

	n := service.Notification{
		Type:  service.NotificationOfferRejected,
		Title: "Offer rejected",
		Body:  fmt.Sprintf("Your offer on %s was rejected", listing.ProductName),
		Data: map[string]interface{}{
			"listing_id":   listingID,
			"listing_kind": string(kind),
			"offer_id":     offerID,
		},
	}
	if decision == entity.OfferStatusAccepted {
		n.Type = service.NotificationOfferAccepted
		n.Title = "Offer accepted"
		n.Body = fmt.Sprintf("Your offer on %s was accepted", listing.ProductName)
	}
	uc.notify(ctx, offerer, n)
	uc.publish(ctx, service.MarketEvent{
		Type:      service.EventOfferResponded,
		ListingID: listingID,
		ActorID:   session.UID,
		Data: map[string]string{
			"kind":     string(kind),
			"offer_id": offerID,
			"decision": string(decision),
		},
	})

	return listing, nil
}

// UpdateListingStatus lets the owner close an active listing.
func (uc *ListingUseCase) UpdateListingStatus(ctx context.Context, session *entity.Session, kind entity.ListingKind, listingID string, status entity.ListingStatus) (*entity.Listing, error) {
	if status != entity.ListingStatusCompleted && status != entity.ListingStatusCancelled {
		return nil, errors.Validation("status must be completed or cancelled")
	}

	now := uc.now().UTC()
	var previous entity.ListingStatus
	listing, err := uc.listingRepo.Update(ctx, kind, listingID, func(l *entity.Listing) error {
		if !l.IsOwnedBy(session.UID) {
			return errors.Forbidden("Only the listing owner can change its status", nil)
		}
		if !l.Status.CanTransitionTo(status) {
			return errors.Conflict(fmt.Sprintf("Cannot change a %s listing to %s", l.Status, status))
		}
		previous = l.Status
		l.Status = status
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, service.MarketEvent{
		Type:      service.EventListingStatusChanged,
		ListingID: listingID,
		ActorID:   session.UID,
		Data: map[string]string{
			"kind": string(kind),
			"from": string(previous),
			"to":   string(status),
		},
	})

	return listing, nil
}

func (uc *ListingUseCase) allow(session *entity.Session, action string) error {
	if uc.limiter == nil {
		return nil
	}
	if ok, wait := uc.limiter.Allow(session.UID, action); !ok {
		return errors.TooManyRequests(fmt.Sprintf("Too many requests, retry in %s", wait.Round(time.Second)))
	}
	return nil
}

func (uc *ListingUseCase) notify(ctx context.Context, userID string, n service.Notification) {
	if uc.notifier == nil || userID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := uc.notifier.Notify(ctx, userID, n); err != nil {
		logger.Warn("Failed to notify %s of %s: %v", userID, n.Type, err)
	}
}

func (uc *ListingUseCase) publish(ctx context.Context, event service.MarketEvent) {
	if uc.events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = uc.now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := uc.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish %s: %v", event.Type, err)
	}
}

// visibleTo hides other bidders' offers from non-owners.
func visibleTo(session *entity.Session, listing *entity.Listing) *entity.Listing {
	if listing.IsOwnedBy(session.UID) {
		return listing
	}

	own := []entity.Offer{}
	for _, o := range listing.Offers {
		if o.OfferedBy == session.UID {
			own = append(own, o)
		}
	}
	copied := *listing
	copied.Offers = own
	return &copied
}
