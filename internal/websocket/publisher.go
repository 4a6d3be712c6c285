package websocket

// EventPublisher defines the interface for publishing change-feed events
type EventPublisher interface {
	// Publish sends an event to all clients connected for the account
	Publish(account string, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the account
func (h *Hub) Publish(account string, event Event) {
	h.Broadcast(account, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when the
// change feed is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(account string, event Event) {}
