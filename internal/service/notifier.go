package service

import "github.com/renmeer/cartsync/internal/domain"

// Notifier receives the user-facing outcomes of sync operations. Failures are
// transient notifications (toasts), never blocking errors: the optimistic
// state has already been shown and, where needed, rolled back by the time a
// notification fires.
type Notifier interface {
	// SyncFailed reports a failed remote mutation after its optimistic
	// change was rolled back. op is one of add, remove, quantity, clear,
	// move_to_cart.
	SyncFailed(kind domain.Kind, op string, itemID string, err error)

	// RefreshFailed reports a failed non-auth fetch; the last-known-good
	// collection is still in place.
	RefreshFailed(kind domain.Kind, err error)

	// CollectionChanged reports that server-confirmed state replaced the
	// in-memory collection.
	CollectionChanged(kind domain.Kind, summary domain.Summary)
}

// NoOpNotifier is a notifier that does nothing (for testing or headless use)
type NoOpNotifier struct{}

// SyncFailed does nothing
func (n *NoOpNotifier) SyncFailed(kind domain.Kind, op string, itemID string, err error) {}

// RefreshFailed does nothing
func (n *NoOpNotifier) RefreshFailed(kind domain.Kind, err error) {}

// CollectionChanged does nothing
func (n *NoOpNotifier) CollectionChanged(kind domain.Kind, summary domain.Summary) {}
