package domain

// SnapshotStore persists a guest collection as a full snapshot keyed by
// Kind.StorageKey(). Implementations never fail the caller: a missing or
// corrupt value reads as an empty collection and write failures are logged
// and swallowed.
type SnapshotStore interface {
	Read(kind Kind) []Item
	Write(kind Kind, items []Item)
	Clear(kind Kind)
}
