package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/renmeer/cartsync/internal/domain"
	"github.com/renmeer/cartsync/internal/session"
	"github.com/rs/zerolog/log"
)

// Manager owns the single shared in-memory collection for one Kind and is the
// only mutation entry point. Every mutation applies optimistically first,
// then consults the session gate: guest sessions persist to the snapshot
// store, authenticated sessions mirror the mutation to the server and fold
// the authoritative response back in. A failed remote call applies the
// mutation's undo record -- the same compensation for cart and wishlist.
//
// The optimistic portion of each mutation runs under the manager lock, so
// concurrent readers never observe a half-applied splice.
type Manager struct {
	kind     domain.Kind
	session  *session.Session
	store    domain.SnapshotStore
	remote   domain.Remote
	notifier Notifier
	shipping domain.ShippingPolicy

	mu      sync.Mutex
	items   []domain.Item
	pending map[string]domain.ItemState
}

// NewManager creates a Manager with the default shipping policy and no
// notifications.
func NewManager(kind domain.Kind, sess *session.Session, store domain.SnapshotStore, remote domain.Remote) *Manager {
	return NewManagerWithConfig(kind, sess, store, remote, &NoOpNotifier{}, domain.DefaultShippingPolicy())
}

// NewManagerWithConfig creates a Manager with a custom notifier and shipping
// policy.
func NewManagerWithConfig(kind domain.Kind, sess *session.Session, store domain.SnapshotStore, remote domain.Remote, notifier Notifier, shipping domain.ShippingPolicy) *Manager {
	return &Manager{
		kind:     kind,
		session:  sess,
		store:    store,
		remote:   remote,
		notifier: notifier,
		shipping: shipping,
		items:    []domain.Item{},
		pending:  make(map[string]domain.ItemState),
	}
}

// Kind returns the collection kind this manager owns.
func (m *Manager) Kind() domain.Kind {
	return m.kind
}

// Items returns a snapshot of the current collection.
func (m *Manager) Items() []domain.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneItems(m.items)
}

// Count returns the number of entries. Always derived from the item list.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Summary recomputes the derived summary for the current collection.
func (m *Manager) Summary() domain.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Summarize(m.items, m.shipping)
}

// State returns the client-visible sync state for an identity.
func (m *Manager) State(id string) domain.ItemState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.pending[id]; ok {
		return st
	}
	if domain.Contains(m.items, id) {
		return domain.StatePresent
	}
	return domain.StateAbsent
}

// Bootstrap loads the initial collection: the server copy for authenticated
// sessions, the guest snapshot otherwise.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if m.session.Authenticated() {
		return m.Refresh(ctx)
	}
	m.mu.Lock()
	m.items = m.store.Read(m.kind)
	m.mu.Unlock()
	return nil
}

// Add appends item to the collection. Adding an identity that is already
// present is a successful no-op. Cart lines default to quantity 1.
func (m *Manager) Add(ctx context.Context, item domain.Item) error {
	if m.kind == domain.KindCart && item.Quantity == 0 {
		item.Quantity = 1
	}
	if err := item.Validate(m.kind); err != nil {
		return err
	}

	m.mu.Lock()
	if _, busy := m.pending[item.ID]; busy {
		m.mu.Unlock()
		return domain.ErrSyncInFlight
	}
	next, undo, added := domain.Add(m.items, item)
	if !added {
		m.mu.Unlock()
		return nil
	}
	m.items = next

	// Session gate, evaluated at mutation time.
	if !m.session.Authenticated() {
		m.store.Write(m.kind, m.items)
		m.mu.Unlock()
		return nil
	}
	m.pending[item.ID] = domain.StatePendingAdd
	m.mu.Unlock()

	res, err := m.remote.AddItem(ctx, m.kind, item)
	return m.settle(res, err, "add", item.ID, undo)
}

// Remove drops the entry with the given identity. Removing an absent
// identity is a successful no-op.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrItemIDRequired
	}

	m.mu.Lock()
	if _, busy := m.pending[id]; busy {
		m.mu.Unlock()
		return domain.ErrSyncInFlight
	}
	next, undo, removed := domain.Remove(m.items, id)
	if !removed {
		m.mu.Unlock()
		return nil
	}
	m.items = next

	if !m.session.Authenticated() {
		m.store.Write(m.kind, m.items)
		m.mu.Unlock()
		return nil
	}
	m.pending[id] = domain.StatePendingRemove
	m.mu.Unlock()

	res, err := m.remote.RemoveItem(ctx, m.kind, id)
	return m.settle(res, err, "remove", id, undo)
}

// Toggle removes item if present, adds it otherwise. Toggling an absent
// identity without a full payload is a successful no-op.
func (m *Manager) Toggle(ctx context.Context, item domain.Item) error {
	if item.ID == "" {
		return domain.ErrItemIDRequired
	}

	m.mu.Lock()
	present := domain.Contains(m.items, item.ID)
	m.mu.Unlock()

	if present {
		return m.Remove(ctx, item.ID)
	}
	if item.Name == "" {
		// Identity-only toggle of an absent item carries no payload to add.
		return nil
	}
	return m.Add(ctx, item)
}

// SetQuantity changes the quantity of an existing cart line. Out-of-range
// quantities are rejected and the line keeps its previous value.
func (m *Manager) SetQuantity(ctx context.Context, id string, qty int) error {
	if m.kind != domain.KindCart {
		return domain.ErrNotCart
	}

	m.mu.Lock()
	if _, busy := m.pending[id]; busy {
		m.mu.Unlock()
		return domain.ErrSyncInFlight
	}
	next, undo, err := domain.SetQuantity(m.items, id, qty)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.items = next

	if !m.session.Authenticated() {
		m.store.Write(m.kind, m.items)
		m.mu.Unlock()
		return nil
	}
	m.pending[id] = domain.StatePendingAdd
	m.mu.Unlock()

	res, rerr := m.remote.UpdateQuantity(ctx, m.kind, id, qty)
	return m.settle(res, rerr, "quantity", id, undo)
}

// Clear empties the collection. For guests the snapshot is destroyed; for
// authenticated sessions the server-side clear is mirrored and rolled back on
// failure.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	prev := m.items
	m.items = []domain.Item{}

	if !m.session.Authenticated() {
		m.store.Clear(m.kind)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	res, err := m.remote.Clear(ctx, m.kind)
	undo := func([]domain.Item) []domain.Item { return prev }
	return m.settle(res, err, "clear", "", undo)
}

// Refresh replaces the collection with the server copy. An authorization
// failure silently degrades to the guest snapshot; any other failure keeps
// the last-known-good collection and is surfaced for a retry affordance.
func (m *Manager) Refresh(ctx context.Context) error {
	res, err := m.remote.FetchCollection(ctx, m.kind)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			log.Debug().Str("kind", string(m.kind)).Msg("Session rejected, falling back to guest snapshot")
			m.mu.Lock()
			m.items = m.store.Read(m.kind)
			m.mu.Unlock()
			return nil
		}
		m.notifier.RefreshFailed(m.kind, err)
		return fmt.Errorf("refresh %s: %w", m.kind, err)
	}

	m.mu.Lock()
	m.reconcileLocked(res)
	summary := domain.Summarize(m.items, m.shipping)
	m.mu.Unlock()

	m.notifier.CollectionChanged(m.kind, summary)
	return nil
}

// Login merges the guest snapshot into the freshly fetched account
// collection: guest items absent from the account copy are pushed to the
// server, and the snapshot is destroyed only once every push succeeded.
// Items that failed to push stay in the snapshot for the next attempt.
func (m *Manager) Login(ctx context.Context) error {
	guest := m.store.Read(m.kind)

	res, err := m.remote.FetchCollection(ctx, m.kind)
	if err != nil {
		return fmt.Errorf("fetch %s on login: %w", m.kind, err)
	}
	account := []domain.Item{}
	if res.HasItems {
		account = domain.CloneItems(res.Items)
	}

	var unmerged []domain.Item
	var errs []error
	for _, it := range guest {
		if domain.Contains(account, it.ID) {
			continue
		}
		if m.kind == domain.KindCart {
			if it.Quantity < domain.MinQuantity {
				it.Quantity = domain.MinQuantity
			}
			if it.Quantity > domain.MaxQuantity {
				it.Quantity = domain.MaxQuantity
			}
		}
		pushed, perr := m.remote.AddItem(ctx, m.kind, it)
		if perr != nil {
			unmerged = append(unmerged, it)
			errs = append(errs, perr)
			continue
		}
		if pushed.HasItems {
			account = domain.CloneItems(pushed.Items)
		} else if !domain.Contains(account, it.ID) {
			account = append(account, it)
		}
	}

	m.mu.Lock()
	m.items = account
	m.pending = make(map[string]domain.ItemState)
	summary := domain.Summarize(m.items, m.shipping)
	m.mu.Unlock()

	if len(unmerged) > 0 {
		m.store.Write(m.kind, unmerged)
		log.Warn().Str("kind", string(m.kind)).Int("unmerged", len(unmerged)).Msg("Guest items left unmerged after login")
		return fmt.Errorf("merge guest %s: %w", m.kind, errors.Join(errs...))
	}
	m.store.Clear(m.kind)
	log.Info().Str("kind", string(m.kind)).Int("count", summary.Count).Msg("Guest collection merged into account")

	m.notifier.CollectionChanged(m.kind, summary)
	return nil
}

// Logout reverts the manager to the guest snapshot. The account copy stays on
// the server.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.items = m.store.Read(m.kind)
	m.pending = make(map[string]domain.ItemState)
	m.mu.Unlock()
}

// MoveToCart moves a wishlist entry into the cart. Both sides mutate
// optimistically; a failed remote move rolls both back.
func (m *Manager) MoveToCart(ctx context.Context, cart *Manager, id string) error {
	if m.kind != domain.KindWishlist {
		return domain.ErrNotWishlist
	}
	if cart == nil || cart.kind != domain.KindCart {
		return domain.ErrNotCart
	}

	m.mu.Lock()
	if _, busy := m.pending[id]; busy {
		m.mu.Unlock()
		return domain.ErrSyncInFlight
	}
	idx := domain.IndexOf(m.items, id)
	if idx < 0 {
		m.mu.Unlock()
		return domain.ErrItemNotFound
	}
	moved := m.items[idx]
	next, undoWishlist, _ := domain.Remove(m.items, id)
	m.items = next
	authed := m.session.Authenticated()
	if authed {
		m.pending[id] = domain.StatePendingRemove
	} else {
		m.store.Write(m.kind, m.items)
	}
	m.mu.Unlock()

	line := moved
	line.Quantity = domain.MinQuantity

	cart.mu.Lock()
	cartNext, undoCart, cartAdded := domain.Add(cart.items, line)
	cart.items = cartNext
	if !authed {
		cart.store.Write(cart.kind, cart.items)
	}
	cart.mu.Unlock()

	if !authed {
		return nil
	}

	res, err := m.remote.MoveToCart(ctx, id)

	m.mu.Lock()
	delete(m.pending, id)
	if err != nil {
		m.items = undoWishlist(m.items)
		m.mu.Unlock()
		if cartAdded {
			cart.mu.Lock()
			cart.items = undoCart(cart.items)
			cart.mu.Unlock()
		}
		m.notifier.SyncFailed(m.kind, "move_to_cart", id, err)
		return fmt.Errorf("move %s to cart: %w", id, err)
	}
	m.reconcileLocked(res)
	summary := domain.Summarize(m.items, m.shipping)
	m.mu.Unlock()
	m.notifier.CollectionChanged(m.kind, summary)

	// The cart side takes server truth; a failed refresh keeps the
	// optimistic line and surfaces through the refresh notifier.
	if rerr := cart.Refresh(ctx); rerr != nil {
		log.Warn().Err(rerr).Msg("Cart refresh after move failed")
	}
	return nil
}

// settle finishes an authenticated mutation: it clears the in-flight mark,
// applies the undo record on failure, and folds authoritative state in on
// success.
func (m *Manager) settle(res domain.RemoteResult, err error, op, id string, undo domain.Undo) error {
	m.mu.Lock()
	if id != "" {
		delete(m.pending, id)
	}
	if err != nil {
		if undo != nil {
			m.items = undo(m.items)
		}
		m.mu.Unlock()
		m.notifier.SyncFailed(m.kind, op, id, err)
		if id != "" {
			return fmt.Errorf("%s %s in %s: %w", op, id, m.kind, err)
		}
		return fmt.Errorf("%s %s: %w", op, m.kind, err)
	}
	m.reconcileLocked(res)
	summary := domain.Summarize(m.items, m.shipping)
	m.mu.Unlock()

	m.notifier.CollectionChanged(m.kind, summary)
	return nil
}

// reconcileLocked folds a server response into the collection. When the
// server returned an authoritative item list it wins wholesale; otherwise the
// optimistic state stands. Count is always derived from the item list, so a
// count-only response needs no action.
func (m *Manager) reconcileLocked(res domain.RemoteResult) {
	if res.HasItems {
		m.items = domain.CloneItems(res.Items)
	}
}
