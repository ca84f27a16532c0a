package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/service"
	"souqbalady/pkg/errors"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type listingFixture struct {
	uc       *ListingUseCase
	repo     *memListingRepo
	notifier *recordingNotifier
	events   *recordingPublisher
}

func newListingFixture() *listingFixture {
	f := &listingFixture{
		repo:     newMemListingRepo(),
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
	}
	f.uc = NewListingUseCase(f.repo, f.notifier, f.events, nil)
	f.uc.now = fixedClock(testNow)
	return f
}

func tomatoes() CreateListingInput {
	return CreateListingInput{
		ProductType:      "vegetable",
		ProductName:      "Tomato",
		Quantity:         100,
		Unit:             "kg",
		PricePerUnit:     10,
		DeliveryLocation: "Giza",
		DeliveryDate:     "2025-03-10",
	}
}

func offer50at9() SubmitOfferInput {
	return SubmitOfferInput{
		Quantity:         50,
		PricePerUnit:     9,
		DeliveryDate:     "2025-03-12",
		DeliveryLocation: "Cairo",
		Message:          "Can pick up early",
	}
}

func TestCreateListing(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)

	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, entity.ListingStatusActive, listing.Status)
	assert.Equal(t, []entity.Offer{}, listing.Offers)
	assert.Equal(t, entity.CategoryVegetables, listing.ProductType)
	assert.Equal(t, "Farmer f1", listing.UserName)
	assert.Equal(t, testNow, listing.CreatedAt)
	assert.Equal(t, []service.EventType{service.EventListingCreated}, f.events.types())

	stored, err := f.repo.GetByID(ctx, entity.ListingKindSellOrder, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomato", stored.ProductName)
}

func TestCreateListingRejectsWrongRole(t *testing.T) {
	f := newListingFixture()

	_, err := f.uc.CreateListing(context.Background(), traderSession("t1"), entity.ListingKindSellOrder, tomatoes())
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.uc.CreateListing(context.Background(), farmerSession("f1"), entity.ListingKindBuyRequest, tomatoes())
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	listing, err := f.uc.CreateListing(context.Background(), factorySession("x1"), entity.ListingKindBuyRequest, tomatoes())
	require.NoError(t, err)
	assert.Equal(t, entity.RoleFactory, listing.UserType)
}

func TestCreateListingValidation(t *testing.T) {
	cases := map[string]func(*CreateListingInput){
		"missing product":  func(in *CreateListingInput) { in.ProductName = "  " },
		"zero quantity":    func(in *CreateListingInput) { in.Quantity = 0 },
		"negative price":   func(in *CreateListingInput) { in.PricePerUnit = -1 },
		"bad category":     func(in *CreateListingInput) { in.ProductType = "grains" },
		"bad unit":         func(in *CreateListingInput) { in.Unit = "box" },
		"malformed date":   func(in *CreateListingInput) { in.DeliveryDate = "10/03/2025" },
		"past date":        func(in *CreateListingInput) { in.DeliveryDate = "2025-02-28" },
		"missing location": func(in *CreateListingInput) { in.DeliveryLocation = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newListingFixture()
			in := tomatoes()
			mutate(&in)

			_, err := f.uc.CreateListing(context.Background(), farmerSession("f1"), entity.ListingKindSellOrder, in)
			assert.True(t, errors.Is(err, errors.CodeValidation), err)
		})
	}
}

func TestCreateListingAcceptsToday(t *testing.T) {
	f := newListingFixture()
	in := tomatoes()
	in.DeliveryDate = "2025-03-01"

	_, err := f.uc.CreateListing(context.Background(), farmerSession("f1"), entity.ListingKindSellOrder, in)
	assert.NoError(t, err)
}

func TestCreateListingRateLimited(t *testing.T) {
	f := newListingFixture()
	f.uc.limiter = denyLimiter{}

	_, err := f.uc.CreateListing(context.Background(), farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestSubmitOfferAndAccept(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)

	offer, err := f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, listing.ID, offer50at9())
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStatusPending, offer.Status)
	assert.Equal(t, "Shop t1", offer.OffererName)
	assert.Equal(t, entity.RoleTrader, offer.OffererType)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "f1", f.notifier.sent[0].userID)
	assert.Equal(t, service.NotificationNewOffer, f.notifier.sent[0].n.Type)

	updated, err := f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, offer.ID, entity.OfferStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusInProgress, updated.Status)
	require.Len(t, updated.Offers, 1)
	assert.Equal(t, entity.OfferStatusAccepted, updated.Offers[0].Status)
	assert.NotNil(t, updated.Offers[0].RespondedAt)

	assert.Equal(t, "t1", f.notifier.sent[1].userID)
	assert.Equal(t, service.NotificationOfferAccepted, f.notifier.sent[1].n.Type)
	assert.Equal(t, []service.EventType{
		service.EventListingCreated,
		service.EventOfferSubmitted,
		service.EventOfferResponded,
	}, f.events.types())
}

func TestSubmitOfferRules(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)

	_, err = f.uc.SubmitOffer(ctx, farmerSession("f2"), entity.ListingKindSellOrder, listing.ID, offer50at9())
	assert.True(t, errors.Is(err, errors.CodeForbidden), "farmers cannot offer on sell orders")

	buy, err := f.uc.CreateListing(ctx, traderSession("t1"), entity.ListingKindBuyRequest, tomatoes())
	require.NoError(t, err)
	_, err = f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindBuyRequest, buy.ID, offer50at9())
	assert.True(t, errors.Is(err, errors.CodeForbidden), "traders cannot offer on buy requests")

	_, err = f.uc.SubmitOffer(ctx, farmerSession("f1"), entity.ListingKindBuyRequest, buy.ID, offer50at9())
	assert.NoError(t, err, "farmers offer on buy requests")

	_, err = f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, "missing", offer50at9())
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	bad := offer50at9()
	bad.DeliveryLocation = ""
	_, err = f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, listing.ID, bad)
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestSubmitOfferOnOwnListing(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	f.repo.put(&entity.Listing{
		ID:     "own",
		Kind:   entity.ListingKindSellOrder,
		UserID: "t1",
		Status: entity.ListingStatusActive,
	})

	_, err := f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, "own", offer50at9())
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestSubmitOfferRequiresActiveListing(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)
	_, err = f.uc.UpdateListingStatus(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, entity.ListingStatusCancelled)
	require.NoError(t, err)

	_, err = f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, listing.ID, offer50at9())
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestRespondToOfferRules(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)
	first, err := f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, listing.ID, offer50at9())
	require.NoError(t, err)
	second, err := f.uc.SubmitOffer(ctx, factorySession("x1"), entity.ListingKindSellOrder, listing.ID, offer50at9())
	require.NoError(t, err)

	_, err = f.uc.RespondToOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, listing.ID, first.ID, entity.OfferStatusAccepted)
	assert.True(t, errors.Is(err, errors.CodeForbidden), "non-owner")

	_, err = f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, "nope", entity.OfferStatusAccepted)
	assert.True(t, errors.Is(err, errors.CodeNotFound), "missing offer")

	rejected, err := f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, first.ID, entity.OfferStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusActive, rejected.Status)

	_, err = f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, first.ID, entity.OfferStatusAccepted)
	assert.True(t, errors.Is(err, errors.CodeConflict), "terminal offer")

	_, err = f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, second.ID, entity.OfferStatusAccepted)
	require.NoError(t, err)

	third, err := f.uc.SubmitOffer(ctx, traderSession("t2"), entity.ListingKindSellOrder, listing.ID, offer50at9())
	assert.Nil(t, third)
	assert.True(t, errors.Is(err, errors.CodeConflict), "listing in progress")

	_, err = f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, second.ID, "maybe")
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestRespondToOfferSecondAcceptConflicts(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	f.repo.put(&entity.Listing{
		ID:     "l1",
		Kind:   entity.ListingKindSellOrder,
		UserID: "f1",
		Status: entity.ListingStatusActive,
		Offers: []entity.Offer{
			{ID: "a", OfferedBy: "t1", Status: entity.OfferStatusAccepted},
			{ID: "b", OfferedBy: "t2", Status: entity.OfferStatusPending},
		},
	})

	_, err := f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, "l1", "b", entity.OfferStatusAccepted)
	assert.True(t, errors.Is(err, errors.CodeConflict))

	listing, err := f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, "l1", "b", entity.OfferStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, entity.OfferStatusRejected, listing.Offers[1].Status)
}

func TestConcurrentSubmitsKeepEveryOffer(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)

	const bidders = 20
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.SubmitOffer(ctx, traderSession(fmt.Sprintf("t%d", i)), entity.ListingKindSellOrder, listing.ID, offer50at9())
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := f.repo.GetByID(ctx, entity.ListingKindSellOrder, listing.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Offers, bidders)
}

func TestConcurrentAcceptsAcceptAtMostOne(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)

	var offerIDs []string
	for i := 0; i < 10; i++ {
		o, err := f.uc.SubmitOffer(ctx, traderSession(fmt.Sprintf("t%d", i)), entity.ListingKindSellOrder, listing.ID, offer50at9())
		require.NoError(t, err)
		offerIDs = append(offerIDs, o.ID)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, id := range offerIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.uc.RespondToOffer(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, id, entity.OfferStatusAccepted)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, errors.CodeConflict), err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	stored, err := f.repo.GetByID(ctx, entity.ListingKindSellOrder, listing.ID)
	require.NoError(t, err)
	accepted := 0
	for _, o := range stored.Offers {
		if o.Status == entity.OfferStatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, entity.ListingStatusInProgress, stored.Status)
}

func TestUpdateListingStatus(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)

	_, err = f.uc.UpdateListingStatus(ctx, farmerSession("f2"), entity.ListingKindSellOrder, listing.ID, entity.ListingStatusCompleted)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.uc.UpdateListingStatus(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, entity.ListingStatusActive)
	assert.True(t, errors.Is(err, errors.CodeValidation))

	done, err := f.uc.UpdateListingStatus(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, entity.ListingStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusCompleted, done.Status)

	_, err = f.uc.UpdateListingStatus(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID, entity.ListingStatusCancelled)
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestListAndGetHideOtherBids(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)
	for _, uid := range []string{"t1", "t2"} {
		_, err := f.uc.SubmitOffer(ctx, traderSession(uid), entity.ListingKindSellOrder, listing.ID, offer50at9())
		require.NoError(t, err)
	}

	owner, err := f.uc.GetListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, listing.ID)
	require.NoError(t, err)
	assert.Len(t, owner.Offers, 2)

	bidder, err := f.uc.GetListing(ctx, traderSession("t1"), entity.ListingKindSellOrder, listing.ID)
	require.NoError(t, err)
	require.Len(t, bidder.Offers, 1)
	assert.Equal(t, "t1", bidder.Offers[0].OfferedBy)

	feed, err := f.uc.ListListings(ctx, traderSession("t3"), entity.ListingKindSellOrder, ListingQuery{Category: "vegetables"})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Empty(t, feed[0].Offers)

	mine, err := f.uc.ListListings(ctx, farmerSession("f1"), entity.ListingKindSellOrder, ListingQuery{Mine: true})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.uc.ListListings(ctx, farmerSession("f1"), entity.ListingKindSellOrder, ListingQuery{Status: "sold"})
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestGetListingIsRepeatable(t *testing.T) {
	f := newListingFixture()
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)
	for _, uid := range []string{"t1", "t2"} {
		_, err := f.uc.SubmitOffer(ctx, traderSession(uid), entity.ListingKindSellOrder, listing.ID, offer50at9())
		require.NoError(t, err)
	}

	for _, session := range []*entity.Session{farmerSession("f1"), traderSession("t1"), traderSession("t3")} {
		first, err := f.uc.GetListing(ctx, session, entity.ListingKindSellOrder, listing.ID)
		require.NoError(t, err)
		second, err := f.uc.GetListing(ctx, session, entity.ListingKindSellOrder, listing.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second, "reads by %s", session.UID)
	}

	stored, err := f.repo.GetByID(ctx, entity.ListingKindSellOrder, listing.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Offers, 2, "filtered reads leave the stored offers intact")
}

func TestSideEffectFailuresDoNotFailRequest(t *testing.T) {
	f := newListingFixture()
	f.notifier.err = assert.AnError
	f.events.err = assert.AnError
	ctx := context.Background()

	listing, err := f.uc.CreateListing(ctx, farmerSession("f1"), entity.ListingKindSellOrder, tomatoes())
	require.NoError(t, err)

	_, err = f.uc.SubmitOffer(ctx, traderSession("t1"), entity.ListingKindSellOrder, listing.ID, offer50at9())
	assert.NoError(t, err)
}

func TestParseOfferDecision(t *testing.T) {
	d, ok := ParseOfferDecision("accept")
	assert.True(t, ok)
	assert.Equal(t, entity.OfferStatusAccepted, d)

	d, ok = ParseOfferDecision("Rejected")
	assert.True(t, ok)
	assert.Equal(t, entity.OfferStatusRejected, d)

	_, ok = ParseOfferDecision("pending")
	assert.False(t, ok)
}
