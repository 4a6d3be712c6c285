package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", "acct-1")
	hub.Register(client)

	// Publish event via EventPublisher interface
	var publisher EventPublisher = hub
	publisher.Publish("acct-1", CartChanged(1))

	// Allow async broadcast to complete
	time.Sleep(10 * time.Millisecond)

	messages := client.GetMessages()
	assert.Len(t, messages, 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	// Should not panic
	assert.NotPanics(t, func() {
		publisher.Publish("acct-1", WishlistChanged(1))
	})
}

func TestNoOpPublisher_Implements_EventPublisher(t *testing.T) {
	var _ EventPublisher = (*NoOpPublisher)(nil)
}
