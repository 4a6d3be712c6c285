package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/renmeer/cartsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventTypeChanged, EntityTypeCart, 3)

	assert.Equal(t, "cart.changed", event.Type)
	assert.Equal(t, EntityTypeCart, event.Entity)
	assert.Equal(t, 3, event.Count)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Second)
}

func TestEvent_ToJSON(t *testing.T) {
	event := WishlistChanged(2)

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "wishlist.changed", decoded["type"])
	assert.Equal(t, "wishlist", decoded["entity"])
	assert.Equal(t, float64(2), decoded["count"])
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{"cart changed", CartChanged(1), "cart.changed"},
		{"cart cleared", CartCleared(), "cart.cleared"},
		{"wishlist changed", WishlistChanged(1), "wishlist.changed"},
		{"wishlist cleared", WishlistCleared(), "wishlist.cleared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.Type)
		})
	}
}

func TestEntityKindMapping(t *testing.T) {
	assert.Equal(t, EntityTypeCart, EntityForKind(domain.KindCart))
	assert.Equal(t, EntityTypeWishlist, EntityForKind(domain.KindWishlist))
	assert.Equal(t, domain.KindCart, EntityTypeCart.Kind())
	assert.Equal(t, domain.KindWishlist, EntityTypeWishlist.Kind())
}

func TestCollectionChanged(t *testing.T) {
	event := CollectionChanged(domain.KindCart, 5)
	assert.Equal(t, "cart.changed", event.Type)
	assert.Equal(t, 5, event.Count)
}
