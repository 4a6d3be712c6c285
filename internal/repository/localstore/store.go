package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/renmeer/cartsync/internal/domain"
	"github.com/rs/zerolog/log"
)

// Store persists guest collections as one JSON file per storage key under a
// base directory. There is no partial-update protocol: every write rewrites
// the entire snapshot. Faults never propagate to callers -- a missing or
// unreadable snapshot reads as empty and write failures are logged.
type Store struct {
	dir string
}

// Ensure Store implements domain.SnapshotStore
var _ domain.SnapshotStore = (*Store)(nil)

// New creates a Store rooted at dir. The directory is created lazily on the
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Read returns the persisted snapshot for kind, or an empty collection when
// the snapshot is absent or corrupt.
func (s *Store) Read(kind domain.Kind) []domain.Item {
	path := s.path(kind)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("key", kind.StorageKey()).Msg("Failed to read guest snapshot")
		}
		return []domain.Item{}
	}

	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		// Foreign or malformed value is treated as absent, not fatal.
		log.Warn().Err(err).Str("key", kind.StorageKey()).Msg("Discarding malformed guest snapshot")
		return []domain.Item{}
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items
}

// Write replaces the snapshot for kind with the full item list.
func (s *Store) Write(kind domain.Kind, items []domain.Item) {
	if items == nil {
		items = []domain.Item{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		log.Error().Err(err).Str("key", kind.StorageKey()).Msg("Failed to serialize guest snapshot")
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", s.dir).Msg("Failed to create snapshot directory")
		return
	}

	if err := os.WriteFile(s.path(kind), data, 0o644); err != nil {
		log.Error().Err(err).Str("key", kind.StorageKey()).Msg("Failed to write guest snapshot")
	}
}

// Clear removes the snapshot for kind if present.
func (s *Store) Clear(kind domain.Kind) {
	if err := os.Remove(s.path(kind)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("key", kind.StorageKey()).Msg("Failed to clear guest snapshot")
	}
}

func (s *Store) path(kind domain.Kind) string {
	return filepath.Join(s.dir, kind.StorageKey()+".json")
}
