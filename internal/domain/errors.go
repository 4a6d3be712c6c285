package domain

import "errors"

// Domain errors
var (
	ErrItemNotFound = errors.New("item not found in collection")
	ErrUnauthorized = errors.New("unauthorized")
	ErrSyncInFlight = errors.New("a sync for this item is already in flight")
	ErrRemote       = errors.New("remote request failed")
)
