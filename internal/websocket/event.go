package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/renmeer/cartsync/internal/domain"
)

// EventType represents what happened to a collection
type EventType string

const (
	EventTypeChanged EventType = "changed"
	EventTypeCleared EventType = "cleared"
)

// EntityType identifies which collection an event is about
type EntityType string

const (
	EntityTypeCart     EntityType = "cart"
	EntityTypeWishlist EntityType = "wishlist"
)

// EntityForKind maps a collection kind to its wire entity.
func EntityForKind(kind domain.Kind) EntityType {
	if kind == domain.KindCart {
		return EntityTypeCart
	}
	return EntityTypeWishlist
}

// Kind maps a wire entity back to its collection kind.
func (e EntityType) Kind() domain.Kind {
	if e == EntityTypeCart {
		return domain.KindCart
	}
	return domain.KindWishlist
}

// Event represents a change-feed message sent to clients
// Format: { type, entity, count, timestamp }
type Event struct {
	Type      string     `json:"type"`      // Combined type e.g. "cart.changed"
	Entity    EntityType `json:"entity"`    // Collection the event is about
	Count     int        `json:"count"`     // Entry count after the change
	Timestamp time.Time  `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and count
func NewEvent(eventType EventType, entityType EntityType, count int) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CartChanged creates a cart.changed event
func CartChanged(count int) Event {
	return NewEvent(EventTypeChanged, EntityTypeCart, count)
}

// CartCleared creates a cart.cleared event
func CartCleared() Event {
	return NewEvent(EventTypeCleared, EntityTypeCart, 0)
}

// WishlistChanged creates a wishlist.changed event
func WishlistChanged(count int) Event {
	return NewEvent(EventTypeChanged, EntityTypeWishlist, count)
}

// WishlistCleared creates a wishlist.cleared event
func WishlistCleared() Event {
	return NewEvent(EventTypeCleared, EntityTypeWishlist, 0)
}

// CollectionChanged creates the changed event for an arbitrary kind
func CollectionChanged(kind domain.Kind, count int) Event {
	return NewEvent(EventTypeChanged, EntityForKind(kind), count)
}
