package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/pkg/errors"
)

const dashboardRecent = 5

type MarketUseCase struct {
	listingRepo repository.ListingRepository
	catalog     entity.Catalog
	now         func() time.Time
}

func NewMarketUseCase(listingRepo repository.ListingRepository) *MarketUseCase {
	return &MarketUseCase{
		listingRepo: listingRepo,
		catalog:     entity.DefaultCatalog(),
		now:         time.Now,
	}
}

// ComputeAveragePrices averages the unit price of the active sell orders of
// category created during day (YYYY-MM-DD, UTC). An empty day means today.
// A failed store read is returned as an error, never as an empty board.
func (uc *MarketUseCase) ComputeAveragePrices(ctx context.Context, category, day string) (*entity.PriceBoard, error) {
	cat, ok := entity.ParseProductCategory(category)
	if !ok {
		return nil, errors.Validation("category must be vegetables or fruits")
	}

	dayStart := entity.DayStart(uc.now())
	if day != "" {
		parsed, ok := entity.ParseDeliveryDate(day)
		if !ok {
			return nil, errors.Validation("day must be a date formatted as YYYY-MM-DD")
		}
		dayStart = parsed
	}

	listings, err := uc.listingRepo.List(ctx, entity.ListingKindSellOrder, repository.ListingFilter{
		Category:    cat,
		Status:      entity.ListingStatusActive,
		CreatedFrom: dayStart,
		CreatedTo:   dayStart.Add(24 * time.Hour),
	})
	if err != nil {
		return nil, err
	}

	return &entity.PriceBoard{
		Category: cat,
		Day:      dayStart.Format(entity.DeliveryDateLayout),
		Prices:   AveragePrices(listings),
	}, nil
}

// AveragePrices groups listings by product name. Each group carries the mean
// unit price rounded half-up to a whole unit and the unit of the first
// listing seen. Groups are ordered by count, then by product name.
func AveragePrices(listings []*entity.Listing) []entity.PriceSummary {
	type group struct {
		sum   float64
		count int
		unit  entity.Unit
	}

	groups := map[string]*group{}
	var names []string
	for _, l := range listings {
		g, ok := groups[l.ProductName]
		if !ok {
			g = &group{unit: l.Unit}
			groups[l.ProductName] = g
			names = append(names, l.ProductName)
		}
		g.sum += l.PricePerUnit
		g.count++
	}

	prices := make([]entity.PriceSummary, 0, len(names))
	for _, name := range names {
		g := groups[name]
		prices = append(prices, entity.PriceSummary{
			ProductName:  name,
			AveragePrice: math.Floor(g.sum/float64(g.count) + 0.5),
			Count:        g.count,
			Unit:         g.unit,
		})
	}

	sort.SliceStable(prices, func(i, j int) bool {
		if prices[i].Count != prices[j].Count {
			return prices[i].Count > prices[j].Count
		}
		return prices[i].ProductName < prices[j].ProductName
	})
	return prices
}

// Dashboard summarises the caller's own listings and the newest active
// listings they can make offers on.
func (uc *MarketUseCase) Dashboard(ctx context.Context, session *entity.Session) (*entity.Dashboard, error) {
	role := session.Role()
	if !role.Valid() {
		return nil, errors.Forbidden("Profile has no marketplace role", nil)
	}
	ownKind := role.ListingKind()

	own, err := uc.listingRepo.List(ctx, ownKind, repository.ListingFilter{OwnerID: session.UID})
	if err != nil {
		return nil, err
	}

	feed, err := uc.listingRepo.List(ctx, ownKind.Counterpart(), repository.ListingFilter{
		Status: entity.ListingStatusActive,
		Limit:  dashboardRecent,
	})
	if err != nil {
		return nil, err
	}

	counts := map[entity.ListingStatus]int{
		entity.ListingStatusActive:     0,
		entity.ListingStatusInProgress: 0,
		entity.ListingStatusCompleted:  0,
		entity.ListingStatusCancelled:  0,
	}
	for _, l := range own {
		counts[l.Status]++
	}

	recent := own
	if len(recent) > dashboardRecent {
		recent = recent[:dashboardRecent]
	}
	for i, l := range feed {
		feed[i] = visibleTo(session, l)
	}

	return &entity.Dashboard{
		Role:          role,
		DisplayName:   session.DisplayName(),
		ListingKind:   ownKind,
		StatusCounts:  counts,
		TotalListings: len(own),
		RecentOwn:     recent,
		MarketFeed:    feed,
		GeneratedAt:   uc.now().UTC(),
	}, nil
}

func (uc *MarketUseCase) Catalog() entity.Catalog {
	return uc.catalog
}
