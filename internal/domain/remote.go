package domain

import "context"

// RemoteResult carries whatever authoritative state the server chose to
// return. Both fields are optional: HasItems distinguishes "server returned
// an empty collection" from "server returned no collection at all", and Count
// is recomputed from Items when absent.
type RemoteResult struct {
	Items    []Item
	HasItems bool
	Count    *int
}

// Remote mirrors collection mutations to the server for authenticated
// sessions. Implementations return ErrUnauthorized (wrapped) on 401/403 so
// callers can degrade to the guest view, and wrap every other transport or
// server failure in ErrRemote.
type Remote interface {
	FetchCollection(ctx context.Context, kind Kind) (RemoteResult, error)
	AddItem(ctx context.Context, kind Kind, item Item) (RemoteResult, error)
	RemoveItem(ctx context.Context, kind Kind, id string) (RemoteResult, error)
	UpdateQuantity(ctx context.Context, kind Kind, id string, qty int) (RemoteResult, error)
	Clear(ctx context.Context, kind Kind) (RemoteResult, error)
	MoveToCart(ctx context.Context, id string) (RemoteResult, error)
}
