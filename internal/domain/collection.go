package domain

import "errors"

var (
	ErrUnknownKind = errors.New("unknown collection kind")
	ErrNotCart     = errors.New("operation only applies to the cart")
	ErrNotWishlist = errors.New("operation only applies to the wishlist")
)

// Kind identifies which collection a mutation targets.
type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// StorageKey returns the local snapshot key for guest sessions.
func (k Kind) StorageKey() string {
	return "guest_" + string(k)
}

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	return k == KindCart || k == KindWishlist
}

// ItemState is the client-visible sync state of a single identity.
type ItemState string

const (
	StateAbsent        ItemState = "absent"
	StatePresent       ItemState = "present"
	StatePendingAdd    ItemState = "pending_add"
	StatePendingRemove ItemState = "pending_remove"
)

// Undo reverts a single optimistic mutation. It is scoped to the identity the
// mutation touched, so it stays correct even when other identities mutated
// between apply and revert. Undo for a removal re-inserts at the original
// position, clamped to the current length.
type Undo func(items []Item) []Item

// IndexOf returns the position of id in items, or -1.
func IndexOf(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether items holds an entry with the given identity.
func Contains(items []Item, id string) bool {
	return IndexOf(items, id) >= 0
}

// CloneItems returns a shallow copy of items.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Add appends item unless an entry with the same identity exists. The add is
// idempotent: a duplicate identity leaves items untouched and reports
// added=false, which callers treat as success. The returned Undo removes the
// appended entry.
func Add(items []Item, item Item) (out []Item, undo Undo, added bool) {
	if Contains(items, item.ID) {
		return items, nil, false
	}
	out = append(CloneItems(items), item)
	id := item.ID
	undo = func(cur []Item) []Item {
		next, _, _ := Remove(cur, id)
		return next
	}
	return out, undo, true
}

// Remove drops the entry with the given identity if present. The returned
// Undo re-inserts the dropped entry at its original index.
func Remove(items []Item, id string) (out []Item, undo Undo, removed bool) {
	idx := IndexOf(items, id)
	if idx < 0 {
		return items, nil, false
	}
	dropped := items[idx]
	out = make([]Item, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	undo = func(cur []Item) []Item {
		if Contains(cur, dropped.ID) {
			return cur
		}
		at := idx
		if at > len(cur) {
			at = len(cur)
		}
		next := make([]Item, 0, len(cur)+1)
		next = append(next, cur[:at]...)
		next = append(next, dropped)
		next = append(next, cur[at:]...)
		return next
	}
	return out, undo, true
}

// SetQuantity replaces the quantity of an existing cart line. An out-of-range
// quantity is rejected and the line keeps its previous value.
func SetQuantity(items []Item, id string, qty int) (out []Item, undo Undo, err error) {
	if qty < MinQuantity || qty > MaxQuantity {
		return items, nil, ErrQuantityOutOfRange
	}
	idx := IndexOf(items, id)
	if idx < 0 {
		return items, nil, ErrItemNotFound
	}
	prev := items[idx].Quantity
	out = CloneItems(items)
	out[idx].Quantity = qty
	undo = func(cur []Item) []Item {
		at := IndexOf(cur, id)
		if at < 0 {
			return cur
		}
		next := CloneItems(cur)
		next[at].Quantity = prev
		return next
	}
	return out, undo, nil
}
