package testutil

import (
	"context"
	"sync"

	"github.com/renmeer/cartsync/internal/domain"
)

// MockRemote is a mock implementation of domain.Remote. Per-method function
// hooks override the default behavior; the default mirrors mutations into an
// in-memory authoritative collection and returns it, count included.
type MockRemote struct {
	mu          sync.Mutex
	Collections map[domain.Kind][]domain.Item
	Calls       []string

	FetchFn    func(kind domain.Kind) (domain.RemoteResult, error)
	AddFn      func(kind domain.Kind, item domain.Item) (domain.RemoteResult, error)
	RemoveFn   func(kind domain.Kind, id string) (domain.RemoteResult, error)
	QuantityFn func(kind domain.Kind, id string, qty int) (domain.RemoteResult, error)
	ClearFn    func(kind domain.Kind) (domain.RemoteResult, error)
	MoveFn     func(id string) (domain.RemoteResult, error)
}

// NewMockRemote creates a MockRemote with empty authoritative collections.
func NewMockRemote() *MockRemote {
	return &MockRemote{
		Collections: map[domain.Kind][]domain.Item{
			domain.KindCart:     {},
			domain.KindWishlist: {},
		},
	}
}

// SetCollection seeds the authoritative copy for kind.
func (m *MockRemote) SetCollection(kind domain.Kind, items []domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Collections[kind] = domain.CloneItems(items)
}

// CallLog returns the recorded call descriptions in order.
func (m *MockRemote) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	copy(out, m.Calls)
	return out
}

func (m *MockRemote) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *MockRemote) result(kind domain.Kind) domain.RemoteResult {
	items := domain.CloneItems(m.Collections[kind])
	n := len(items)
	return domain.RemoteResult{Items: items, HasItems: true, Count: &n}
}

// FetchCollection returns the authoritative collection for kind.
func (m *MockRemote) FetchCollection(ctx context.Context, kind domain.Kind) (domain.RemoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("fetch " + string(kind))
	if m.FetchFn != nil {
		return m.FetchFn(kind)
	}
	return m.result(kind), nil
}

// AddItem appends item to the authoritative collection if absent.
func (m *MockRemote) AddItem(ctx context.Context, kind domain.Kind, item domain.Item) (domain.RemoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("add " + string(kind) + " " + item.ID)
	if m.AddFn != nil {
		return m.AddFn(kind, item)
	}
	if !domain.Contains(m.Collections[kind], item.ID) {
		m.Collections[kind] = append(m.Collections[kind], item)
	}
	return m.result(kind), nil
}

// RemoveItem drops id from the authoritative collection.
func (m *MockRemote) RemoveItem(ctx context.Context, kind domain.Kind, id string) (domain.RemoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("remove " + string(kind) + " " + id)
	if m.RemoveFn != nil {
		return m.RemoveFn(kind, id)
	}
	next, _, _ := domain.Remove(m.Collections[kind], id)
	m.Collections[kind] = next
	return m.result(kind), nil
}

// UpdateQuantity sets the quantity of an authoritative cart line.
func (m *MockRemote) UpdateQuantity(ctx context.Context, kind domain.Kind, id string, qty int) (domain.RemoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("quantity " + string(kind) + " " + id)
	if m.QuantityFn != nil {
		return m.QuantityFn(kind, id, qty)
	}
	next, _, err := domain.SetQuantity(m.Collections[kind], id, qty)
	if err != nil {
		return domain.RemoteResult{}, err
	}
	m.Collections[kind] = next
	return m.result(kind), nil
}

// Clear empties the authoritative collection for kind.
func (m *MockRemote) Clear(ctx context.Context, kind domain.Kind) (domain.RemoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("clear " + string(kind))
	if m.ClearFn != nil {
		return m.ClearFn(kind)
	}
	m.Collections[kind] = []domain.Item{}
	return m.result(kind), nil
}

// MoveToCart moves id from the authoritative wishlist into the cart.
func (m *MockRemote) MoveToCart(ctx context.Context, id string) (domain.RemoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("move " + id)
	if m.MoveFn != nil {
		return m.MoveFn(id)
	}
	idx := domain.IndexOf(m.Collections[domain.KindWishlist], id)
	if idx >= 0 {
		item := m.Collections[domain.KindWishlist][idx]
		item.Quantity = domain.MinQuantity
		next, _, _ := domain.Remove(m.Collections[domain.KindWishlist], id)
		m.Collections[domain.KindWishlist] = next
		if !domain.Contains(m.Collections[domain.KindCart], id) {
			m.Collections[domain.KindCart] = append(m.Collections[domain.KindCart], item)
		}
	}
	return m.result(domain.KindWishlist), nil
}

// MockStore is an in-memory implementation of domain.SnapshotStore.
type MockStore struct {
	mu        sync.Mutex
	Snapshots map[domain.Kind][]domain.Item
	Writes    int
	Clears    int
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{Snapshots: make(map[domain.Kind][]domain.Item)}
}

// Read returns the stored snapshot, empty when absent.
func (s *MockStore) Read(kind domain.Kind) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.Snapshots[kind]
	if !ok {
		return []domain.Item{}
	}
	return domain.CloneItems(items)
}

// Write replaces the stored snapshot.
func (s *MockStore) Write(kind domain.Kind, items []domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes++
	s.Snapshots[kind] = domain.CloneItems(items)
}

// Clear removes the stored snapshot.
func (s *MockStore) Clear(kind domain.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clears++
	delete(s.Snapshots, kind)
}

// NotifierCall records one notification received by RecordingNotifier.
type NotifierCall struct {
	Method string
	Kind   domain.Kind
	Op     string
	ItemID string
	Err    error
	Count  int
}

// RecordingNotifier captures notifications for assertions.
type RecordingNotifier struct {
	mu    sync.Mutex
	Calls []NotifierCall
}

// SyncFailed records the failure notification.
func (r *RecordingNotifier) SyncFailed(kind domain.Kind, op string, itemID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, NotifierCall{Method: "sync_failed", Kind: kind, Op: op, ItemID: itemID, Err: err})
}

// RefreshFailed records the failure notification.
func (r *RecordingNotifier) RefreshFailed(kind domain.Kind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, NotifierCall{Method: "refresh_failed", Kind: kind, Err: err})
}

// CollectionChanged records the change notification.
func (r *RecordingNotifier) CollectionChanged(kind domain.Kind, summary domain.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, NotifierCall{Method: "collection_changed", Kind: kind, Count: summary.Count})
}

// ByMethod returns recorded calls matching method.
func (r *RecordingNotifier) ByMethod(method string) []NotifierCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []NotifierCall
	for _, c := range r.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
