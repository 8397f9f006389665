// Package selection persists the set of entities the user exposes in the tray.
package selection

import (
	"fmt"
	"log"
	"sync"

	"github.com/hatray/hatray/internal/config"
	"github.com/hatray/hatray/internal/models"
)

// Store is CRUD over the persisted entity-id → BooleanEntity set.
// Mutations read the whole set, change one key, and write the whole set back;
// they are serialized so concurrent callers in one process never lose updates.
type Store struct {
	mu    sync.Mutex
	store config.Store
}

// New creates a selection store backed by the given settings store.
func New(store config.Store) *Store {
	return &Store{store: store}
}

// List returns the selected entities in insertion order. A missing or
// unreadable set yields an empty list.
func (s *Store) List() []models.BooleanEntity {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	if err != nil {
		log.Printf("[selection] Ignoring persisted entities: %v", err)
		return []models.BooleanEntity{}
	}
	return set.Entities()
}

// SetSelected inserts (selected=true) or removes (selected=false) the entity
// and persists the resulting set. Removing an absent entity is not an error.
// A corrupt set is replaced; any other read failure aborts without writing.
func (s *Store) SetSelected(entity models.BooleanEntity, selected bool) error {
	if entity.ID == "" {
		return fmt.Errorf("entity id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load()
	switch {
	case config.IsCorrupt(err):
		log.Printf("[selection] Replacing corrupt entities: %v", err)
		set = models.NewSelectedEntities()
	case err != nil:
		return fmt.Errorf("load entities: %w", err)
	}

	if selected {
		set.Put(entity)
	} else {
		set.Remove(entity.ID)
	}

	if err := s.store.Set(config.EntitiesKey, set); err != nil {
		return fmt.Errorf("save entities: %w", err)
	}
	return nil
}

func (s *Store) load() (*models.SelectedEntities, error) {
	set := models.NewSelectedEntities()
	if _, err := s.store.Get(config.EntitiesKey, set); err != nil {
		return nil, err
	}
	return set, nil
}
