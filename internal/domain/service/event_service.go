package service

import (
	"context"
	"time"
)

type EventType string

const (
	EventListingCreated       EventType = "listing.created"
	EventListingStatusChanged EventType = "listing.status_changed"
	EventOfferSubmitted       EventType = "offer.submitted"
	EventOfferResponded       EventType = "offer.responded"
	EventMessageSent          EventType = "message.sent"
)

// MarketEvent is a domain event emitted after a successful write.
type MarketEvent struct {
	Type       EventType         `json:"type"`
	ListingID  string            `json:"listing_id,omitempty"`
	ActorID    string            `json:"actor_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event MarketEvent) error
	Close() error
}
