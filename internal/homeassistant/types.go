package homeassistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hatray/hatray/internal/models"
)

// StateEntry mirrors one element of the /api/states payload. State and
// attribute values are kept raw so encodings can be checked during conversion.
type StateEntry struct {
	EntityID   string                     `json:"entity_id"`
	State      json.RawMessage            `json:"state"`
	Attributes map[string]json.RawMessage `json:"attributes"`
}

// statusResponse mirrors /api/. Message is required.
type statusResponse struct {
	Message *string `json:"message"`
}

// toggleRequest is the body of the switch toggle service call.
type toggleRequest struct {
	EntityID string `json:"entity_id"`
}

// ErrConversion is returned when an entity cannot be normalized.
var ErrConversion = errors.New("entity conversion failed")

// IsSwitchEntity reports whether id belongs to the switch domain.
func IsSwitchEntity(id string) bool {
	return strings.HasPrefix(id, models.SwitchDomainPrefix)
}

// rawState returns the entity state as a string. A missing or null state
// reads as unavailable; any non-string encoding is a conversion failure.
func (e StateEntry) rawState() (string, error) {
	if len(e.State) == 0 || string(e.State) == "null" {
		return models.StateUnavailable, nil
	}
	var s string
	if err := json.Unmarshal(e.State, &s); err != nil {
		return "", fmt.Errorf("%w: %s state %s is not a string", ErrConversion, e.EntityID, string(e.State))
	}
	return s, nil
}

// friendlyName returns the friendly_name attribute, or "" if it is absent
// or not a string.
func (e StateEntry) friendlyName() string {
	raw, ok := e.Attributes["friendly_name"]
	if !ok {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return ""
	}
	return name
}

// ToBooleanEntity converts a state entry into its persistable projection.
func ToBooleanEntity(e StateEntry) (models.BooleanEntity, error) {
	state, err := e.rawState()
	if err != nil {
		return models.BooleanEntity{}, err
	}
	return models.BooleanEntity{
		ID:           e.EntityID,
		State:        state,
		FriendlyName: e.friendlyName(),
	}, nil
}

// FilterSwitches keeps available switch entities. Entries that fail
// conversion are dropped, not reported.
func FilterSwitches(entries []StateEntry) []models.BooleanEntity {
	out := make([]models.BooleanEntity, 0, len(entries))
	for _, entry := range entries {
		if !IsSwitchEntity(entry.EntityID) {
			continue
		}
		entity, err := ToBooleanEntity(entry)
		if err != nil {
			continue
		}
		if entity.State == models.StateUnavailable {
			continue
		}
		out = append(out, entity)
	}
	return out
}
