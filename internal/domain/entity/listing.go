package entity

import (
	"strings"
	"time"
)

type ListingKind string

const (
	ListingKindSellOrder  ListingKind = "sell_order"
	ListingKindBuyRequest ListingKind = "buy_request"
)

// ParseListingKind accepts both the enum value and the URL segment form.
func ParseListingKind(s string) (ListingKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sell_order", "sell-order", "sell-orders", "sellorders":
		return ListingKindSellOrder, true
	case "buy_request", "buy-request", "buy-requests", "buyrequests":
		return ListingKindBuyRequest, true
	}
	return "", false
}

// Collection returns the Firestore collection holding listings of this kind.
func (k ListingKind) Collection() string {
	if k == ListingKindBuyRequest {
		return "buyRequests"
	}
	return "sellOrders"
}

func (k ListingKind) Counterpart() ListingKind {
	if k == ListingKindSellOrder {
		return ListingKindBuyRequest
	}
	return ListingKindSellOrder
}

func (k ListingKind) Valid() bool {
	return k == ListingKindSellOrder || k == ListingKindBuyRequest
}

type Role string

const (
	RoleFarmer  Role = "farmer"
	RoleTrader  Role = "trader"
	RoleFactory Role = "factory"
)

func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleTrader || r == RoleFactory
}

// ListingKind is the kind of listing this role publishes.
func (r Role) ListingKind() ListingKind {
	if r == RoleFarmer {
		return ListingKindSellOrder
	}
	return ListingKindBuyRequest
}

func (r Role) CanCreate(kind ListingKind) bool {
	return r.Valid() && r.ListingKind() == kind
}

// CanOfferOn reports whether the role trades against listings of kind.
func (r Role) CanOfferOn(kind ListingKind) bool {
	return r.Valid() && r.ListingKind() == kind.Counterpart()
}

type ProductCategory string

const (
	CategoryVegetables ProductCategory = "vegetables"
	CategoryFruits     ProductCategory = "fruits"
)

func ParseProductCategory(s string) (ProductCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vegetable", "vegetables":
		return CategoryVegetables, true
	case "fruit", "fruits":
		return CategoryFruits, true
	}
	return "", false
}

type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitTon      Unit = "ton"
)

func (u Unit) Valid() bool {
	return u == UnitKilogram || u == UnitTon
}

type ListingStatus string

const (
	ListingStatusActive     ListingStatus = "active"
	ListingStatusInProgress ListingStatus = "in_progress"
	ListingStatusCompleted  ListingStatus = "completed"
	ListingStatusCancelled  ListingStatus = "cancelled"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusActive, ListingStatusInProgress, ListingStatusCompleted, ListingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo allows only moves out of active. Nothing reopens.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	if s != ListingStatusActive {
		return false
	}
	switch next {
	case ListingStatusInProgress, ListingStatusCompleted, ListingStatusCancelled:
		return true
	}
	return false
}

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
)

type OfferDecision string

const (
	DecisionAccept OfferDecision = "accept"
	DecisionReject OfferDecision = "reject"
)

// DeliveryDateLayout is the calendar date format used for delivery dates.
const DeliveryDateLayout = "2006-01-02"

type Offer struct {
	ID               string      `json:"id" firestore:"id"`
	OfferedBy        string      `json:"offered_by" firestore:"offeredBy"`
	OffererName      string      `json:"offerer_name" firestore:"offererName"`
	OffererType      Role        `json:"offerer_type" firestore:"offererType"`
	Quantity         float64     `json:"quantity" firestore:"quantity"`
	PricePerUnit     float64     `json:"price_per_unit" firestore:"pricePerUnit"`
	DeliveryDate     string      `json:"delivery_date" firestore:"deliveryDate"`
	DeliveryLocation string      `json:"delivery_location" firestore:"deliveryLocation"`
	Message          string      `json:"message,omitempty" firestore:"message,omitempty"`
	Status           OfferStatus `json:"status" firestore:"status"`
	CreatedAt        time.Time   `json:"created_at" firestore:"createdAt"`
	RespondedAt      *time.Time  `json:"responded_at,omitempty" firestore:"respondedAt,omitempty"`
}

type Listing struct {
	ID               string          `json:"id" firestore:"-"`
	Kind             ListingKind     `json:"kind" firestore:"kind"`
	UserID           string          `json:"user_id" firestore:"userId"`
	UserName         string          `json:"user_name" firestore:"userName"`
	UserType         Role            `json:"user_type" firestore:"userType"`
	ProductType      ProductCategory `json:"product_type" firestore:"productType"`
	ProductName      string          `json:"product_name" firestore:"productName"`
	Quantity         float64         `json:"quantity" firestore:"quantity"`
	Unit             Unit            `json:"unit" firestore:"unit"`
	PricePerUnit     float64         `json:"price_per_unit" firestore:"pricePerUnit"`
	DeliveryLocation string          `json:"delivery_location" firestore:"deliveryLocation"`
	DeliveryDate     string          `json:"delivery_date" firestore:"deliveryDate"`
	Country          string          `json:"country,omitempty" firestore:"country,omitempty"`
	Governorate      string          `json:"governorate,omitempty" firestore:"governorate,omitempty"`
	Region           string          `json:"region,omitempty" firestore:"region,omitempty"`
	Status           ListingStatus   `json:"status" firestore:"status"`
	Offers           []Offer         `json:"offers" firestore:"offers"`
	CreatedAt        time.Time       `json:"created_at" firestore:"createdAt"`
	UpdatedAt        time.Time       `json:"updated_at" firestore:"updatedAt"`
}

func (l *Listing) FindOffer(offerID string) (int, bool) {
	for i := range l.Offers {
		if l.Offers[i].ID == offerID {
			return i, true
		}
	}
	return -1, false
}

// AcceptedOffer returns the accepted offer, if any.
func (l *Listing) AcceptedOffer() *Offer {
	for i := range l.Offers {
		if l.Offers[i].Status == OfferStatusAccepted {
			return &l.Offers[i]
		}
	}
	return nil
}

func (l *Listing) IsOwnedBy(uid string) bool {
	return l.UserID == uid
}

// ParseDeliveryDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDeliveryDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DeliveryDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
