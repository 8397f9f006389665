package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SwitchDomainPrefix namespaces switch entity ids on the hub.
const SwitchDomainPrefix = "switch."

// StateUnavailable is the hub's sentinel for entities it cannot reach.
const StateUnavailable = "unavailable"

// BooleanEntity is the normalized, persistable projection of a switch entity.
type BooleanEntity struct {
	ID           string `yaml:"id" json:"id"`
	State        string `yaml:"state" json:"state"`
	FriendlyName string `yaml:"friendly_name" json:"friendly_name"`
}

// Label returns the text shown for the entity in menus.
func (e BooleanEntity) Label() string {
	if e.FriendlyName != "" {
		return e.FriendlyName
	}
	return e.ID
}

// SelectedEntities is the persisted entity-id → BooleanEntity mapping.
// It keeps insertion order so menus stay stable across reloads.
// This corresponds to ~/.hatray/entities.yaml.
type SelectedEntities struct {
	order []string
	byID  map[string]BooleanEntity
}

// NewSelectedEntities creates an empty set.
func NewSelectedEntities() *SelectedEntities {
	return &SelectedEntities{byID: make(map[string]BooleanEntity)}
}

// Put inserts or overwrites the entity keyed by its id. An overwrite keeps
// the entry's original position.
func (s *SelectedEntities) Put(e BooleanEntity) {
	if s.byID == nil {
		s.byID = make(map[string]BooleanEntity)
	}
	if _, ok := s.byID[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.byID[e.ID] = e
}

// Remove deletes the entity with the given id. Returns false if it was absent.
func (s *SelectedEntities) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Get looks up an entity by id.
func (s *SelectedEntities) Get(id string) (BooleanEntity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Len returns the number of selected entities.
func (s *SelectedEntities) Len() int {
	return len(s.order)
}

// Entities returns the entities in insertion order.
func (s *SelectedEntities) Entities() []BooleanEntity {
	out := make([]BooleanEntity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// MarshalYAML encodes the set as a mapping in insertion order.
func (s *SelectedEntities) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, id := range s.order {
		key := &yaml.Node{}
		key.SetString(id)
		val := &yaml.Node{}
		if err := val.Encode(s.byID[id]); err != nil {
			return nil, fmt.Errorf("encode entity %s: %w", id, err)
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping, keeping document order. The mapping key
// is authoritative for the entity id.
func (s *SelectedEntities) UnmarshalYAML(value *yaml.Node) error {
	s.order = nil
	s.byID = make(map[string]BooleanEntity)

	if value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("entities: expected mapping, got %s", value.Tag)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		var id string
		if err := value.Content[i].Decode(&id); err != nil {
			return fmt.Errorf("entities: decode key: %w", err)
		}
		var e BooleanEntity
		if err := value.Content[i+1].Decode(&e); err != nil {
			return fmt.Errorf("entities: decode %s: %w", id, err)
		}
		e.ID = id
		s.Put(e)
	}
	return nil
}

// ToggleResult is one entity state returned by the hub after a toggle.
type ToggleResult struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// FriendlyName returns the friendly_name attribute, or "" if missing.
func (r ToggleResult) FriendlyName() string {
	name, _ := r.Attributes["friendly_name"].(string)
	return name
}
